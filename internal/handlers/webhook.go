package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/metrics"
	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/webhook"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Revalidator interface {
	Trigger(ctx context.Context, doc webhook.Document) error
}

type WebhookHandler struct {
	secret      string
	revalidator Revalidator
}

// NewWebhookHandler verifies deliveries against secret. An empty secret
// accepts every delivery.
func NewWebhookHandler(secret string, revalidator Revalidator) *WebhookHandler {
	return &WebhookHandler{secret: secret, revalidator: revalidator}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Failed to read request body"})
		return
	}

	if h.secret == "" {
		log.Warn("Warning: WEBHOOK_SECRET is not set, accepting unsigned webhook")
		metrics.Webhooks.WithLabelValues("unverified").Inc()
	} else if !webhook.Verify(h.secret, body, c.GetHeader(webhook.SignatureHeader)) {
		metrics.Webhooks.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid signature"})
		return
	} else {
		metrics.Webhooks.WithLabelValues("verified").Inc()
	}

	var doc webhook.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		log.WithError(err).Warn("Warning: webhook body is not a document, revalidating without it")
	}

	if h.revalidator != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.revalidator.Trigger(ctx, doc); err != nil {
			metrics.SideEffectFailures.WithLabelValues("revalidation").Inc()
			log.WithError(err).WithField("document", doc.ID).Warn("Warning: revalidation failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
