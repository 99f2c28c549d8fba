package forms

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"
)

const MaxAttachmentSize = 5 * 1024 * 1024

var AllowedExtensions = []string{".docx", ".doc", ".txt", ".pdf"}

// File is a user-selected attachment.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

type AttachmentError struct {
	Field  string
	Reason string
}

func (e *AttachmentError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// CheckAttachment runs the type check and then the size check.
func CheckAttachment(f File) error {
	name := strings.ToLower(f.Name())
	allowed := false
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(name, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &AttachmentError{
			Reason: "Invalid file type. Allowed types: " + strings.Join(AllowedExtensions, ", "),
		}
	}
	if f.Size() > MaxAttachmentSize {
		return &AttachmentError{
			Reason: fmt.Sprintf("File is too large. Maximum size is %dMB", MaxAttachmentSize/(1024*1024)),
		}
	}
	return nil
}

// EncodeAttachment checks f and reads it fully into a base64 FileField.
func EncodeAttachment(f File) (models.FileField, error) {
	if err := CheckAttachment(f); err != nil {
		return models.FileField{}, err
	}

	rc, err := f.Open()
	if err != nil {
		return models.FileField{}, &AttachmentError{Reason: fmt.Sprintf("Failed to read file %s: %v", f.Name(), err)}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return models.FileField{}, &AttachmentError{Reason: fmt.Sprintf("Failed to read file %s: %v", f.Name(), err)}
	}

	contentType := f.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return models.FileField{
		Name: f.Name(),
		Data: base64.StdEncoding.EncodeToString(data),
		Type: contentType,
	}, nil
}

// StripDataURL drops a "data:<type>;base64," prefix if present.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// MemFile is an attachment already held in memory.
type MemFile struct {
	FileName string
	Type     string
	Data     []byte
}

func (m *MemFile) Name() string        { return m.FileName }
func (m *MemFile) Size() int64         { return int64(len(m.Data)) }
func (m *MemFile) ContentType() string { return m.Type }
func (m *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.Data)), nil
}

// OSFile is an attachment on local disk.
type OSFile struct {
	path string
	size int64
}

func OpenOSFile(path string) (*OSFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &OSFile{path: path, size: info.Size()}, nil
}

func (o *OSFile) Name() string { return filepath.Base(o.path) }
func (o *OSFile) Size() int64  { return o.size }
func (o *OSFile) ContentType() string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(o.path)))
}
func (o *OSFile) Open() (io.ReadCloser, error) {
	return os.Open(o.path)
}
