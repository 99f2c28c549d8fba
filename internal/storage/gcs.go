package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	bucketName string
	public     bool
}

type UploadResult struct {
	ObjectName string
	PublicURL  string
	Size       int64
}

func NewGCSClient(bucketName, credentialsPath string, public bool) (*GCSClient, error) {
	ctx := context.Background()

	var client *storage.Client
	var err error

	if credentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
		public:     public,
	}, nil
}

func (g *GCSClient) UploadFile(ctx context.Context, reader io.Reader, objectName string, contentType string) (*UploadResult, error) {
	obj := g.client.Bucket(g.bucketName).Object(objectName)

	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=0"
	if g.public {
		writer.CacheControl = "public, max-age=86400"
	}

	size, err := io.Copy(writer, reader)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	result := &UploadResult{
		ObjectName: objectName,
		Size:       size,
	}
	if g.public {
		result.PublicURL = g.PublicURL(objectName)
	}
	return result, nil
}

// DeleteFile removes objectName. An object that is already gone counts as
// deleted.
func (g *GCSClient) DeleteFile(ctx context.Context, objectName string) error {
	obj := g.client.Bucket(g.bucketName).Object(objectName)

	if err := obj.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete object from GCS: %w", err)
	}

	return nil
}

func (g *GCSClient) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}

	u, err := g.client.Bucket(g.bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return u, nil
}

func (g *GCSClient) PublicURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, (&url.URL{Path: objectName}).EscapedPath())
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

var unsafeSegment = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses everything but letters and digits into
// single dashes.
func Slugify(s string) string {
	slug := strings.Trim(unsafeSegment.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "form"
	}
	return slug
}

// GenerateObjectName namespaces an attachment under its form and gives it a
// timestamped, collision-resistant base name that keeps the original extension.
func GenerateObjectName(formName, originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("forms/%s/%d-%s%s", Slugify(formName), now.UnixNano(), uuid.NewString(), ext)
}
