package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/forms"
	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	submitTimeout      = 60 * time.Second
	submitErrorMessage = "Failed to submit form. Please try again later."

	// Room for a few base64 attachments at the client-side size cap.
	maxSubmitBodyBytes = 4 * forms.MaxAttachmentSize
)

type SubmissionRelay interface {
	Submit(ctx context.Context, p models.SubmissionPayload, remoteIP string) error
}

type SubmitHandler struct {
	relay   SubmissionRelay
	maxBody int64
}

func NewSubmitHandler(relay SubmissionRelay) *SubmitHandler {
	return &SubmitHandler{relay: relay, maxBody: maxSubmitBodyBytes}
}

func (h *SubmitHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	var req models.SubmissionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: fmt.Sprintf("Request body is too large. Maximum size is %dMB", h.maxBody/(1024*1024)),
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()

	if err := h.relay.Submit(ctx, req, c.ClientIP()); err != nil {
		status, message := submitErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithField("form", req.FormName).Error("Form submission failed")
			c.Error(err)
		}
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, models.SubmitResponse{
		Success: true,
		Message: "Form submitted successfully",
	})
}

func submitErrorStatus(err error) (int, string) {
	var re *services.Error
	if !errors.As(err, &re) {
		return http.StatusInternalServerError, submitErrorMessage
	}
	switch {
	case errors.Is(re.Kind, services.ErrNotConfigured):
		return http.StatusInternalServerError, re.Message
	case errors.Is(re.Kind, services.ErrInvalidRequest),
		errors.Is(re.Kind, services.ErrInvalidTarget),
		errors.Is(re.Kind, services.ErrVerificationFailed):
		return http.StatusBadRequest, re.Message
	}
	return http.StatusInternalServerError, submitErrorMessage
}

// MethodNotAllowed answers every route registered for other methods.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
}
