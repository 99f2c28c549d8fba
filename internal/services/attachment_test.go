package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/storage"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	public  bool
	signErr error
	signed  []time.Duration
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) UploadFile(ctx context.Context, r io.Reader, objectName, contentType string) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[objectName] = data
	m.types[objectName] = contentType
	res := &storage.UploadResult{ObjectName: objectName, Size: int64(len(data))}
	if m.public {
		res.PublicURL = "https://storage.example/" + objectName
	}
	return res, nil
}

func (m *memStore) DeleteFile(ctx context.Context, objectName string) error {
	m.deleted = append(m.deleted, objectName)
	delete(m.objects, objectName)
	return nil
}

func (m *memStore) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	m.signed = append(m.signed, expiry)
	if m.signErr != nil {
		return "", m.signErr
	}
	return "https://signed.example/" + objectName, nil
}

func TestAttachmentUpload(t *testing.T) {
	store := newMemStore()
	svc := NewAttachmentService(store, "https://api.example.org/")

	sf, err := svc.Upload(context.Background(), "Volunteer Form", models.FileField{
		Name: "CV.PDF",
		Data: "data:application/pdf;base64,aGVsbG8=",
		Type: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if !strings.HasPrefix(sf.ObjectName, "forms/volunteer-form/") || !strings.HasSuffix(sf.ObjectName, ".pdf") {
		t.Errorf("object name = %q", sf.ObjectName)
	}
	if string(store.objects[sf.ObjectName]) != "hello" {
		t.Errorf("stored = %q", store.objects[sf.ObjectName])
	}
	if store.types[sf.ObjectName] != "application/pdf" {
		t.Errorf("content type = %q", store.types[sf.ObjectName])
	}
	if sf.URL != "https://api.example.org/api/files/"+sf.ObjectName {
		t.Errorf("url = %q", sf.URL)
	}
	if sf.Size != 5 {
		t.Errorf("size = %d", sf.Size)
	}
}

func TestAttachmentLinkFallbacks(t *testing.T) {
	f := models.FileField{Name: "a.txt", Data: "aGk="}

	public := newMemStore()
	public.public = true
	sf, err := NewAttachmentService(public, "").Upload(context.Background(), "f", f)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if sf.URL != "https://storage.example/"+sf.ObjectName {
		t.Errorf("public url = %q", sf.URL)
	}
	if public.types[sf.ObjectName] != "application/octet-stream" {
		t.Errorf("default content type = %q", public.types[sf.ObjectName])
	}

	private := newMemStore()
	sf, err = NewAttachmentService(private, "").Upload(context.Background(), "f", f)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if sf.URL != "https://signed.example/"+sf.ObjectName {
		t.Errorf("signed url = %q", sf.URL)
	}
	if len(private.signed) != 1 || private.signed[0] != maxSignedURLExpiry {
		t.Errorf("signed expiries = %v", private.signed)
	}
}

func TestAttachmentInvalidBase64(t *testing.T) {
	store := newMemStore()
	_, err := NewAttachmentService(store, "").Upload(context.Background(), "f", models.FileField{Name: "a.txt", Data: "!!!"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if len(store.objects) != 0 {
		t.Error("object stored for invalid data")
	}
}

func TestAttachmentSignedURL(t *testing.T) {
	svc := NewAttachmentService(newMemStore(), "")

	u, err := svc.SignedURL("forms/x/1.pdf")
	if err != nil || u != "https://signed.example/forms/x/1.pdf" {
		t.Errorf("SignedURL = %q, %v", u, err)
	}
	for _, bad := range []string{"other/x.pdf", "forms/../secret", ""} {
		if _, err := svc.SignedURL(bad); err == nil {
			t.Errorf("SignedURL(%q) allowed", bad)
		}
	}
}

func TestAttachmentUploadRemovesObjectWhenLinkFails(t *testing.T) {
	store := newMemStore()
	store.signErr = errors.New("no signing key")

	_, err := NewAttachmentService(store, "").Upload(context.Background(), "f", models.FileField{Name: "a.txt", Data: "aGk="})
	if err == nil {
		t.Fatal("expected link error")
	}
	if len(store.deleted) != 1 || len(store.objects) != 0 {
		t.Errorf("deleted = %v, left = %d", store.deleted, len(store.objects))
	}
}
