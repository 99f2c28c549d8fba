package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/forms"
	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/storage"

	log "github.com/sirupsen/logrus"
)

// Signed URLs for private buckets are capped at seven days by GCS.
const maxSignedURLExpiry = 7 * 24 * time.Hour

const FilesRoutePrefix = "/api/files/"

type ObjectStore interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName string, contentType string) (*storage.UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	GetSignedURL(objectName string, expiry time.Duration) (string, error)
}

type StoredFile struct {
	ObjectName string
	URL        string
	Size       int64
}

type AttachmentService struct {
	store   ObjectStore
	baseURL string
	now     func() time.Time
}

// NewAttachmentService stores attachments in store. When baseURL is set the
// returned links go through the API's file route, which survives signed URL
// expiry.
func NewAttachmentService(store ObjectStore, baseURL string) *AttachmentService {
	return &AttachmentService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *AttachmentService) Upload(ctx context.Context, formName string, f models.FileField) (*StoredFile, error) {
	data, err := base64.StdEncoding.DecodeString(forms.StripDataURL(f.Data))
	if err != nil {
		return nil, &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf("File %s is not valid base64", f.Name), Err: err}
	}

	contentType := f.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := storage.GenerateObjectName(formName, f.Name, s.now())
	result, err := s.store.UploadFile(ctx, bytes.NewReader(data), objectName, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to GCS: %w", err)
	}

	link, err := s.link(result)
	if err != nil {
		if derr := s.store.DeleteFile(ctx, objectName); derr != nil {
			log.WithError(derr).WithField("object", objectName).Warn("Warning: failed to remove unlinked upload")
		}
		return nil, err
	}

	return &StoredFile{
		ObjectName: objectName,
		URL:        link,
		Size:       result.Size,
	}, nil
}

func (s *AttachmentService) link(result *storage.UploadResult) (string, error) {
	switch {
	case s.baseURL != "":
		return s.baseURL + FilesRoutePrefix + result.ObjectName, nil
	case result.PublicURL != "":
		return result.PublicURL, nil
	default:
		return s.store.GetSignedURL(result.ObjectName, maxSignedURLExpiry)
	}
}

func (s *AttachmentService) Delete(ctx context.Context, objectName string) error {
	return s.store.DeleteFile(ctx, objectName)
}

// SignedURL returns a short-lived download link for an attachment.
func (s *AttachmentService) SignedURL(objectName string) (string, error) {
	if !strings.HasPrefix(objectName, "forms/") || strings.Contains(objectName, "..") {
		return "", fmt.Errorf("object %q is not a form attachment", objectName)
	}
	return s.store.GetSignedURL(objectName, time.Hour)
}
