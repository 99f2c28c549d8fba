package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"
	gormmodels "github.com/dhanavadh/eldercare-backend/internal/models/gorm"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type SubmissionStore interface {
	GetByID(ctx context.Context, id string) (*gormmodels.SubmissionRecord, error)
	ListByForm(ctx context.Context, formName string, limit int) ([]gormmodels.SubmissionRecord, error)
}

// FormHandler exposes the submission audit log to staff.
type FormHandler struct {
	store SubmissionStore
}

func NewFormHandler(store SubmissionStore) *FormHandler {
	return &FormHandler{store: store}
}

func (h *FormHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = min(n, maxListLimit)
	}

	submissions, err := h.store.ListByForm(c.Request.Context(), c.Query("form"), limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch form submissions"})
		return
	}
	if submissions == nil {
		submissions = []gormmodels.SubmissionRecord{}
	}

	c.JSON(http.StatusOK, submissions)
}

func (h *FormHandler) GetByID(c *gin.Context) {
	submissionID := c.Param("id")

	submission, err := h.store.GetByID(c.Request.Context(), submissionID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch form submission"})
		return
	}

	if submission == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Form submission not found"})
		return
	}

	c.JSON(http.StatusOK, submission)
}

// RequireAdmin guards staff routes with a static bearer token. An empty token
// closes the routes entirely.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}
