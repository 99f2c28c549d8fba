// Package captcha verifies bot-check tokens against a siteverify endpoint
// (reCAPTCHA, hCaptcha and Turnstile share the same form-encoded protocol).
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrRejected = errors.New("captcha verification failed")

type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func NewVerifier(secret, verifyURL string, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{secret: secret, verifyURL: verifyURL, client: client}
}

// Verify returns nil only when the provider accepted token. Transport and
// decoding failures count as rejection.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrRejected)
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: verifier returned status %d", ErrRejected, resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(result.ErrorCodes, ", "))
	}
	return nil
}
