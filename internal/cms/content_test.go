package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/icons"

	"github.com/google/go-cmp/cmp"
)

type recorded struct {
	URL    *url.URL
	Header http.Header
}

// newTestClient serves body for every query and records the last request.
func newTestClient(t *testing.T, status int, body string) (*Client, *recorded) {
	t.Helper()
	last := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.URL = r.URL
		last.Header = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.CMSConfig{ProjectID: "proj", Dataset: "production", APIVersion: "2024-01-01", Token: "tkn"},
		WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	return c, last
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient(config.CMSConfig{})
	if c.IsConfigured() {
		t.Fatal("empty config reported as configured")
	}
	if _, err := c.Events(context.Background(), time.Now()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("got %v", err)
	}
}

func TestFormsForPage(t *testing.T) {
	c, last := newTestClient(t, http.StatusOK, `{"result":[{"id":"f1","name":"Contact Us","targetPage":"contact",
		"googleSheetUrl":"https://docs.google.com/spreadsheets/d/abc/edit",
		"fields":[{"name":"Email","type":"text","required":true,"order":1},{"name":"Agree","type":"boolean","order":null}]}]}`)

	forms, err := c.FormsForPage(context.Background(), "contact")
	if err != nil {
		t.Fatalf("FormsForPage: %v", err)
	}
	if len(forms) != 1 || forms[0].Name != "Contact Us" || len(forms[0].Fields) != 2 {
		t.Fatalf("forms = %+v", forms)
	}
	if o := forms[0].Fields[0].Order; o == nil || *o != 1 {
		t.Errorf("Email order = %v", o)
	}
	if forms[0].Fields[1].Order != nil {
		t.Error("null order should decode as absent")
	}

	if got := last.URL.Query().Get("$page"); got != `"contact"` {
		t.Errorf("$page param = %q", got)
	}
	if !strings.HasPrefix(last.URL.Path, "/v2024-01-01/data/query/production") {
		t.Errorf("path = %q", last.URL.Path)
	}
	if last.Header.Get("Authorization") != "Bearer tkn" {
		t.Errorf("auth header = %q", last.Header.Get("Authorization"))
	}
}

func TestEvents(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":[
		{"_id":"e1","title":"Tea Afternoon","slug":{"current":"tea"},"date":"2026-11-01T14:00:00Z",
		 "image":{"asset":{"_ref":"image-abc123-800x600-jpg"},"alt":"Tea cups"}},
		{"_id":"e2","title":"Summer Fair","slug":{"current":"fair"},"date":"2026-06-01","endDate":"2026-06-03"}
	]}`)

	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	events, err := c.Events(context.Background(), now)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if !events[0].Upcoming || events[1].Upcoming {
		t.Errorf("upcoming flags = %v, %v", events[0].Upcoming, events[1].Upcoming)
	}
	if want := "https://cdn.sanity.io/images/proj/production/abc123-800x600.jpg"; events[0].ImageURL != want {
		t.Errorf("image url = %q, want %q", events[0].ImageURL, want)
	}
	if events[1].End == nil || events[1].End.Day() != 3 {
		t.Errorf("end = %v", events[1].End)
	}
}

func TestServicesResolveIcons(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":[
		{"_id":"s1","title":"Meals on Wheels","icon":"meals"},
		{"_id":"s2","title":"Mystery","icon":"spaceship"}]}`)

	services, err := c.Services(context.Background())
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	want := []Service{
		{ID: "s1", Title: "Meals on Wheels", Icon: icons.Utensils, IconKnown: true},
		{ID: "s2", Title: "Mystery", Icon: icons.Fallback, IconKnown: false},
	}
	if diff := cmp.Diff(want, services); diff != "" {
		t.Errorf("services (-want +got):\n%s", diff)
	}
}

func TestPageNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":null}`)
	page, err := c.Page(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if page != nil {
		t.Errorf("page = %+v, want nil", page)
	}
}

func TestReportsFileURL(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":[{"_id":"r1","title":"Annual Report","slug":{"current":"annual-2025"},
		"year":2025,"file":{"asset":{"_ref":"file-f00d-pdf"}},"publishedAt":"2026-02-01T00:00:00Z"}]}`)
	reports, err := c.Reports(context.Background())
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if want := "https://cdn.sanity.io/files/proj/production/f00d.pdf"; reports[0].FileURL != want {
		t.Errorf("file url = %q", reports[0].FileURL)
	}
}

func TestSitemapItemsLastModified(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":[
		{"_type":"event","slug":"tea","_updatedAt":"2026-09-01T10:00:00Z","date":"2026-11-01"},
		{"_type":"report","slug":"annual","publishedAt":"2026-02-01T00:00:00Z"},
		{"_type":"page","slug":""}]}`)

	items, err := c.SitemapItems(context.Background())
	if err != nil {
		t.Fatalf("SitemapItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if lm := items[0].LastModified(); lm == nil || lm.Month() != time.September {
		t.Errorf("event lastmod = %v, want updated timestamp", lm)
	}
	if lm := items[1].LastModified(); lm == nil || lm.Month() != time.February {
		t.Errorf("report lastmod = %v, want published date", lm)
	}
}

func TestQueryErrorDescription(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadRequest, `{"error":{"description":"expected '}' following object body"}}`)
	_, err := c.Reports(context.Background())
	if err == nil || !strings.Contains(err.Error(), "expected '}'") {
		t.Errorf("got %v", err)
	}
}

func TestSplitRef(t *testing.T) {
	if got := ImageURL("p", "d", "not-an-image"); got != "" {
		t.Errorf("ImageURL on bad ref = %q", got)
	}
	if got := FileURL("p", "d", "file-x-"); got != "" {
		t.Errorf("FileURL on bad ref = %q", got)
	}
}
