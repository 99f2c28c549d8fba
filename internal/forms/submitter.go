package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/models"
)

const genericSubmitError = "Failed to submit form. Please try again later."

// TransportError is a network failure or a non-2xx reply from the relay.
// Message is the server's own text when it sent one.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPSubmitter posts payloads as JSON to the relay endpoint.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSubmitter{endpoint: endpoint, client: client}
}

func (h *HTTPSubmitter) Submit(ctx context.Context, payload models.SubmissionPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &TransportError{Message: genericSubmitError, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TransportError{Status: resp.StatusCode, Message: genericSubmitError, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er models.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			return "", &TransportError{Status: resp.StatusCode, Message: er.Error}
		}
		return "", &TransportError{Status: resp.StatusCode, Message: genericSubmitError}
	}

	var ok models.SubmitResponse
	if err := json.Unmarshal(raw, &ok); err != nil {
		return "", &TransportError{Status: resp.StatusCode, Message: genericSubmitError, Err: err}
	}
	return ok.Message, nil
}
