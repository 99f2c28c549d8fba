package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/icons"
	"github.com/dhanavadh/eldercare-backend/internal/models"
)

const (
	formsQuery = `*[_type == "form" && targetPage == $page]{
  "id": _id, name, description, targetPage, googleSheetUrl,
  "fields": fields[]{name, "type": fieldType, required, placeholder, order}
}`
	eventsQuery   = `*[_type == "event"] | order(date desc){_id, title, slug, date, endDate, location, summary, image, _updatedAt}`
	reportsQuery  = `*[_type == "report"] | order(publishedAt desc){_id, title, slug, year, summary, file, publishedAt, _updatedAt}`
	pageQuery     = `*[_type == "page" && slug.current == $slug][0]{_id, title, slug, description, heroImage, body, _updatedAt}`
	servicesQuery = `*[_type == "service"] | order(order asc){_id, title, description, icon, order}`
	sitemapQuery  = `*[_type in ["page", "event", "report"] && defined(slug.current)]{_type, "slug": slug.current, _updatedAt, publishedAt, date}`
)

type slug struct {
	Current string `json:"current"`
}

type assetRef struct {
	Ref string `json:"_ref"`
	URL string `json:"url"`
}

type rawImage struct {
	Asset *assetRef `json:"asset"`
	Alt   string    `json:"alt"`
}

type rawFile struct {
	Asset *assetRef `json:"asset"`
}

type Event struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Location  string     `json:"location,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	ImageAlt  string     `json:"imageAlt,omitempty"`
	Upcoming  bool       `json:"upcoming"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type Report struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Year        int        `json:"year,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	FileURL     string     `json:"fileUrl,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type Page struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	HeroImageURL string          `json:"heroImageUrl,omitempty"`
	HeroImageAlt string          `json:"heroImageAlt,omitempty"`
	Body         json.RawMessage `json:"body,omitempty"`
}

type Service struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        icons.Icon `json:"icon"`
	IconKnown   bool       `json:"iconKnown"`
}

// SitemapItem is one routable content document.
type SitemapItem struct {
	Type        string
	Slug        string
	UpdatedAt   *time.Time
	PublishedAt *time.Time
}

// LastModified prefers the update timestamp over the authored date.
func (s SitemapItem) LastModified() *time.Time {
	if s.UpdatedAt != nil {
		return s.UpdatedAt
	}
	return s.PublishedAt
}

// FormsForPage returns the form definitions whose target page is pageSlug.
func (c *Client) FormsForPage(ctx context.Context, pageSlug string) ([]models.FormDefinition, error) {
	var forms []models.FormDefinition
	if err := c.Query(ctx, formsQuery, map[string]any{"page": pageSlug}, &forms); err != nil {
		return nil, fmt.Errorf("failed to fetch forms for %s: %w", pageSlug, err)
	}
	return forms, nil
}

func (c *Client) Events(ctx context.Context, now time.Time) ([]Event, error) {
	var raw []struct {
		ID        string   `json:"_id"`
		Title     string   `json:"title"`
		Slug      slug     `json:"slug"`
		Date      string   `json:"date"`
		EndDate   string   `json:"endDate"`
		Location  string   `json:"location"`
		Summary   string   `json:"summary"`
		Image     rawImage `json:"image"`
		UpdatedAt string   `json:"_updatedAt"`
	}
	if err := c.Query(ctx, eventsQuery, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		e := Event{
			ID:        r.ID,
			Title:     r.Title,
			Slug:      r.Slug.Current,
			Start:     parseTime(r.Date),
			End:       parseTime(r.EndDate),
			Location:  r.Location,
			Summary:   r.Summary,
			ImageURL:  c.imageURL(r.Image),
			ImageAlt:  r.Image.Alt,
			UpdatedAt: parseTime(r.UpdatedAt),
		}
		last := e.Start
		if e.End != nil {
			last = e.End
		}
		e.Upcoming = last != nil && !last.Before(now)
		events = append(events, e)
	}
	return events, nil
}

func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	var raw []struct {
		ID          string  `json:"_id"`
		Title       string  `json:"title"`
		Slug        slug    `json:"slug"`
		Year        int     `json:"year"`
		Summary     string  `json:"summary"`
		File        rawFile `json:"file"`
		PublishedAt string  `json:"publishedAt"`
	}
	if err := c.Query(ctx, reportsQuery, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}

	reports := make([]Report, 0, len(raw))
	for _, r := range raw {
		reports = append(reports, Report{
			ID:          r.ID,
			Title:       r.Title,
			Slug:        r.Slug.Current,
			Year:        r.Year,
			Summary:     r.Summary,
			FileURL:     c.fileURL(r.File),
			PublishedAt: parseTime(r.PublishedAt),
		})
	}
	return reports, nil
}

// Page returns nil without error when no page has the slug.
func (c *Client) Page(ctx context.Context, pageSlug string) (*Page, error) {
	var raw *struct {
		ID          string          `json:"_id"`
		Title       string          `json:"title"`
		Slug        slug            `json:"slug"`
		Description string          `json:"description"`
		HeroImage   rawImage        `json:"heroImage"`
		Body        json.RawMessage `json:"body"`
	}
	if err := c.Query(ctx, pageQuery, map[string]any{"slug": pageSlug}, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch page %s: %w", pageSlug, err)
	}
	if raw == nil {
		return nil, nil
	}
	return &Page{
		ID:           raw.ID,
		Title:        raw.Title,
		Slug:         raw.Slug.Current,
		Description:  raw.Description,
		HeroImageURL: c.imageURL(raw.HeroImage),
		HeroImageAlt: raw.HeroImage.Alt,
		Body:         raw.Body,
	}, nil
}

func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var raw []struct {
		ID          string `json:"_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	}
	if err := c.Query(ctx, servicesQuery, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch services: %w", err)
	}

	services := make([]Service, 0, len(raw))
	for _, r := range raw {
		icon, known := icons.Lookup(r.Icon)
		services = append(services, Service{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Icon:        icon,
			IconKnown:   known,
		})
	}
	return services, nil
}

func (c *Client) SitemapItems(ctx context.Context) ([]SitemapItem, error) {
	var raw []struct {
		Type        string `json:"_type"`
		Slug        string `json:"slug"`
		UpdatedAt   string `json:"_updatedAt"`
		PublishedAt string `json:"publishedAt"`
		Date        string `json:"date"`
	}
	if err := c.Query(ctx, sitemapQuery, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap items: %w", err)
	}

	items := make([]SitemapItem, 0, len(raw))
	for _, r := range raw {
		if r.Slug == "" {
			continue
		}
		published := parseTime(r.PublishedAt)
		if published == nil {
			published = parseTime(r.Date)
		}
		items = append(items, SitemapItem{
			Type:        r.Type,
			Slug:        r.Slug,
			UpdatedAt:   parseTime(r.UpdatedAt),
			PublishedAt: published,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return items[i].Slug < items[j].Slug
	})
	return items, nil
}

func (c *Client) imageURL(img rawImage) string {
	if img.Asset == nil {
		return ""
	}
	if img.Asset.URL != "" {
		return img.Asset.URL
	}
	return ImageURL(c.cfg.ProjectID, c.cfg.Dataset, img.Asset.Ref)
}

func (c *Client) fileURL(f rawFile) string {
	if f.Asset == nil {
		return ""
	}
	if f.Asset.URL != "" {
		return f.Asset.URL
	}
	return FileURL(c.cfg.ProjectID, c.cfg.Dataset, f.Asset.Ref)
}

// ImageURL converts an image asset reference such as
// "image-abc123-800x600-jpg" into its CDN URL.
func ImageURL(projectID, dataset, ref string) string {
	id, ext, ok := splitRef(ref, "image-")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s.%s", projectID, dataset, id, ext)
}

// FileURL converts a file asset reference such as "file-abc123-pdf" into its
// CDN URL.
func FileURL(projectID, dataset, ref string) string {
	id, ext, ok := splitRef(ref, "file-")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://cdn.sanity.io/files/%s/%s/%s.%s", projectID, dataset, id, ext)
}

func splitRef(ref, prefix string) (id, ext string, ok bool) {
	if !strings.HasPrefix(ref, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(ref, prefix)
	i := strings.LastIndexByte(rest, '-')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
