// Package webhook authenticates CMS publish notifications and forwards them as
// cache revalidation requests.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const SignatureHeader = "X-Webhook-Signature"

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature (hex, optionally prefixed "sha256=") against body in
// constant time.
func Verify(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Document is the part of a CMS webhook body used for revalidation.
type Document struct {
	ID   string `json:"_id"`
	Type string `json:"_type"`
	Slug struct {
		Current string `json:"current"`
	} `json:"slug"`
}

type Revalidator struct {
	url    string
	token  string
	client *http.Client
}

func NewRevalidator(url, token string, client *http.Client) *Revalidator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Revalidator{url: url, token: token, client: client}
}

func (r *Revalidator) Enabled() bool {
	return r != nil && r.url != ""
}

// Trigger asks the front end to drop cached content for doc.
func (r *Revalidator) Trigger(ctx context.Context, doc Document) error {
	if !r.Enabled() {
		return nil
	}
	body, err := json.Marshal(map[string]string{
		"id":   doc.ID,
		"type": doc.Type,
		"slug": doc.Slug.Current,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal revalidation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create revalidation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("revalidation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("revalidation returned status %d", resp.StatusCode)
	}
	return nil
}
