package handlers

import (
	"context"
	"net/http"

	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/sitemap"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type SitemapBuilder interface {
	Build(ctx context.Context) sitemap.URLSet
}

type SitemapHandler struct {
	builder SitemapBuilder
}

func NewSitemapHandler(builder SitemapBuilder) *SitemapHandler {
	return &SitemapHandler{builder: builder}
}

func (h *SitemapHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), contentTimeout)
	defer cancel()

	body, err := sitemap.Render(h.builder.Build(ctx))
	if err != nil {
		log.WithError(err).Error("Failed to render sitemap")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate sitemap"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}
