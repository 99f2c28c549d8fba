package sitemap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/cms"

	"github.com/google/go-cmp/cmp"
)

type fakeSource struct {
	items []cms.SitemapItem
	err   error
}

func (f fakeSource) IsConfigured() bool { return true }
func (f fakeSource) SitemapItems(context.Context) ([]cms.SitemapItem, error) {
	return f.items, f.err
}

func ts(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func locs(set URLSet) []string {
	out := make([]string, len(set.URLs))
	for i, u := range set.URLs {
		out[i] = u.Loc
	}
	return out
}

var routes = []Route{
	{Path: "/", ChangeFreq: "weekly", Priority: 1},
	{Path: "/about", ChangeFreq: "monthly", Priority: 0.8},
}

func TestBuildUnionsStaticAndContent(t *testing.T) {
	src := fakeSource{items: []cms.SitemapItem{
		{Type: "event", Slug: "tea", UpdatedAt: ts("2026-09-01T10:00:00Z"), PublishedAt: ts("2026-01-01T00:00:00Z")},
		{Type: "report", Slug: "annual-2025", PublishedAt: ts("2026-02-01T00:00:00Z")},
		{Type: "page", Slug: "about"},
		{Type: "recipe", Slug: "soup"},
	}}
	set := NewBuilder("https://care.example/", routes, src).Build(context.Background())

	want := []string{
		"https://care.example/",
		"https://care.example/about",
		"https://care.example/events/tea",
		"https://care.example/reports/annual-2025",
	}
	if diff := cmp.Diff(want, locs(set)); diff != "" {
		t.Errorf("locs (-want +got):\n%s", diff)
	}
	if set.URLs[2].LastMod != "2026-09-01" {
		t.Errorf("event lastmod = %q, want update timestamp", set.URLs[2].LastMod)
	}
	if set.URLs[3].LastMod != "2026-02-01" {
		t.Errorf("report lastmod = %q", set.URLs[3].LastMod)
	}
	if set.URLs[0].LastMod != "" || set.URLs[0].Priority != "1.0" {
		t.Errorf("static entry = %+v", set.URLs[0])
	}
}

func TestBuildDegradesOnContentFailure(t *testing.T) {
	set := NewBuilder("https://care.example", routes, fakeSource{err: errors.New("timeout")}).Build(context.Background())
	if diff := cmp.Diff([]string{"https://care.example/", "https://care.example/about"}, locs(set)); diff != "" {
		t.Errorf("locs (-want +got):\n%s", diff)
	}
}

func TestBuildDefaultsRoutes(t *testing.T) {
	set := NewBuilder("https://care.example", nil, nil).Build(context.Background())
	if len(set.URLs) != len(DefaultRoutes) {
		t.Errorf("got %d urls, want %d", len(set.URLs), len(DefaultRoutes))
	}
}

func TestRender(t *testing.T) {
	out, err := Render(NewBuilder("https://care.example", routes, nil).Build(context.Background()))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`<loc>https://care.example/about</loc>`,
		`<changefreq>monthly</changefreq>`,
		`<priority>0.8</priority>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "<lastmod>") {
		t.Error("static routes should not carry lastmod")
	}
}

func TestLoadRoutes(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "routes.yaml")
	os.WriteFile(good, []byte("routes:\n  - path: /\n    changefreq: daily\n    priority: 1\n  - path: /news\n    changefreq: weekly\n    priority: 0.5\n"), 0o600)

	got, err := LoadRoutes(good)
	if err != nil {
		t.Fatalf("LoadRoutes: %v", err)
	}
	want := []Route{{Path: "/", ChangeFreq: "daily", Priority: 1}, {Path: "/news", ChangeFreq: "weekly", Priority: 0.5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes (-want +got):\n%s", diff)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("routes:\n  - path: news\n"), 0o600)
	if _, err := LoadRoutes(bad); err == nil {
		t.Error("expected error for relative path")
	}

	if got, _ := LoadRoutes(""); len(got) != len(DefaultRoutes) {
		t.Error("empty path should give defaults")
	}
}
