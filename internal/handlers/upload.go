package handlers

import (
	"net/http"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type FileLinker interface {
	SignedURL(objectName string) (string, error)
}

// UploadHandler serves stored form attachments. Sheet rows link here so the
// links outlive any single signed URL.
type UploadHandler struct {
	files FileLinker
}

func NewUploadHandler(files FileLinker) *UploadHandler {
	return &UploadHandler{files: files}
}

func (h *UploadHandler) ServeFile(c *gin.Context) {
	objectName := strings.TrimPrefix(c.Param("object"), "/")
	if objectName == "" {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "File not found"})
		return
	}

	signedURL, err := h.files.SignedURL(objectName)
	if err != nil {
		log.WithError(err).WithField("object", objectName).Warn("Failed to sign attachment URL")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "File not found"})
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Redirect(http.StatusTemporaryRedirect, signedURL)
}
