package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/cms"
	"github.com/dhanavadh/eldercare-backend/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const contentTimeout = 15 * time.Second

type ContentSource interface {
	FormsForPage(ctx context.Context, pageSlug string) ([]models.FormDefinition, error)
	Events(ctx context.Context, now time.Time) ([]cms.Event, error)
	Reports(ctx context.Context) ([]cms.Report, error)
	Page(ctx context.Context, pageSlug string) (*cms.Page, error)
	Services(ctx context.Context) ([]cms.Service, error)
}

// ContentHandler proxies CMS reads so the front end never holds a CMS token.
type ContentHandler struct {
	source ContentSource
	now    func() time.Time
}

func NewContentHandler(source ContentSource) *ContentHandler {
	return &ContentHandler{source: source, now: time.Now}
}

func (h *ContentHandler) GetForms(c *gin.Context) {
	page := strings.TrimSpace(c.Query("page"))
	if page == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "page query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	forms, err := h.source.FormsForPage(ctx, page)
	if err != nil {
		h.fail(c, err, "Failed to fetch forms")
		return
	}
	if forms == nil {
		forms = []models.FormDefinition{}
	}
	c.JSON(http.StatusOK, forms)
}

func (h *ContentHandler) GetEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	events, err := h.source.Events(ctx, h.now())
	if err != nil {
		h.fail(c, err, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []cms.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *ContentHandler) GetReports(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	reports, err := h.source.Reports(ctx)
	if err != nil {
		h.fail(c, err, "Failed to fetch reports")
		return
	}
	if reports == nil {
		reports = []cms.Report{}
	}
	c.JSON(http.StatusOK, reports)
}

func (h *ContentHandler) GetPage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	page, err := h.source.Page(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err, "Failed to fetch page")
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) GetServices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	services, err := h.source.Services(ctx)
	if err != nil {
		h.fail(c, err, "Failed to fetch services")
		return
	}
	if services == nil {
		services = []cms.Service{}
	}
	c.JSON(http.StatusOK, services)
}

func (h *ContentHandler) fail(c *gin.Context, err error, message string) {
	if errors.Is(err, cms.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Content service is not configured"})
		return
	}
	log.WithError(err).Error(message)
	c.Error(err)
	c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: message})
}
