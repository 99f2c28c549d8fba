// Package sitemap builds sitemap.xml from a fixed route list plus routable
// CMS documents.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/cms"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type Route struct {
	Path       string  `yaml:"path"`
	ChangeFreq string  `yaml:"changefreq"`
	Priority   float64 `yaml:"priority"`
}

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// DefaultRoutes are the SPA's fixed pages.
var DefaultRoutes = []Route{
	{Path: "/", ChangeFreq: "weekly", Priority: 1.0},
	{Path: "/about", ChangeFreq: "monthly", Priority: 0.8},
	{Path: "/services", ChangeFreq: "monthly", Priority: 0.8},
	{Path: "/events", ChangeFreq: "weekly", Priority: 0.8},
	{Path: "/reports", ChangeFreq: "monthly", Priority: 0.6},
	{Path: "/volunteer", ChangeFreq: "monthly", Priority: 0.7},
	{Path: "/donate", ChangeFreq: "monthly", Priority: 0.7},
	{Path: "/contact", ChangeFreq: "yearly", Priority: 0.6},
}

type dynamicRule struct {
	prefix     string
	changeFreq string
	priority   float64
}

var dynamicRules = map[string]dynamicRule{
	"page":   {prefix: "/", changeFreq: "monthly", priority: 0.7},
	"event":  {prefix: "/events/", changeFreq: "weekly", priority: 0.6},
	"report": {prefix: "/reports/", changeFreq: "yearly", priority: 0.5},
}

// ItemSource lists routable content documents.
type ItemSource interface {
	IsConfigured() bool
	SitemapItems(ctx context.Context) ([]cms.SitemapItem, error)
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type Builder struct {
	siteURL string
	routes  []Route
	source  ItemSource
}

func NewBuilder(siteURL string, routes []Route, source ItemSource) *Builder {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	return &Builder{
		siteURL: strings.TrimRight(siteURL, "/"),
		routes:  routes,
		source:  source,
	}
}

// LoadRoutes reads a YAML route list. An empty path yields DefaultRoutes.
func LoadRoutes(path string) ([]Route, error) {
	if path == "" {
		return DefaultRoutes, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap routes: %w", err)
	}
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap routes: %w", err)
	}
	for i, r := range f.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %d: path %q must start with /", i, r.Path)
		}
	}
	return f.Routes, nil
}

// Build returns the static routes followed by CMS documents. A CMS failure
// leaves only the static routes.
func (b *Builder) Build(ctx context.Context) URLSet {
	set := URLSet{Xmlns: xmlns}
	seen := make(map[string]bool)

	for _, r := range b.routes {
		loc := b.siteURL + r.Path
		seen[loc] = true
		set.URLs = append(set.URLs, URL{
			Loc:        loc,
			ChangeFreq: r.ChangeFreq,
			Priority:   formatPriority(r.Priority),
		})
	}

	if b.source == nil || !b.source.IsConfigured() {
		return set
	}

	items, err := b.source.SitemapItems(ctx)
	if err != nil {
		log.WithError(err).Warn("Sitemap content fetch failed, serving static routes only")
		return set
	}

	for _, item := range items {
		rule, ok := dynamicRules[item.Type]
		if !ok || item.Slug == "" {
			continue
		}
		loc := b.siteURL + rule.prefix + strings.TrimPrefix(item.Slug, "/")
		if seen[loc] {
			continue
		}
		seen[loc] = true

		u := URL{
			Loc:        loc,
			ChangeFreq: rule.changeFreq,
			Priority:   formatPriority(rule.priority),
		}
		if lm := item.LastModified(); lm != nil {
			u.LastMod = lm.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	return set
}

// Render encodes set as an XML document.
func Render(set URLSet) ([]byte, error) {
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func formatPriority(p float64) string {
	if p <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", p)
}
