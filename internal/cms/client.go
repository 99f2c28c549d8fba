// Package cms reads site content from the headless CMS query API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/config"
)

var ErrNotConfigured = errors.New("cms is not configured")

// Client is an explicit handle on one CMS project/dataset. The zero project
// ID means unconfigured; callers check IsConfigured before relying on content.
type Client struct {
	cfg     config.CMSConfig
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different query host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.CMSConfig, opts ...Option) *Client {
	host := "api.sanity.io"
	if cfg.UseCDN && cfg.Token == "" {
		host = "apicdn.sanity.io"
	}
	c := &Client{
		cfg:     cfg,
		baseURL: fmt.Sprintf("https://%s.%s", cfg.ProjectID, host),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.cfg.ProjectID != "" && c.cfg.Dataset != ""
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// Query runs a GROQ query and decodes its result into out. Params are JSON
// encoded as the API expects.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	q := url.Values{}
	q.Set("query", query)
	for k, v := range params {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode param %s: %w", k, err)
		}
		q.Set("$"+k, string(raw))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s",
		c.baseURL, strings.TrimPrefix(c.cfg.APIVersion, "v"), url.PathEscape(c.cfg.Dataset), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read cms response: %w", err)
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("failed to decode cms response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if qr.Error != nil && qr.Error.Description != "" {
			return fmt.Errorf("cms query failed: %s", qr.Error.Description)
		}
		return fmt.Errorf("cms query failed with status %d", resp.StatusCode)
	}

	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("failed to decode cms result: %w", err)
	}
	return nil
}
