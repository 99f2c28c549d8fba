package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormmodels "github.com/dhanavadh/eldercare-backend/internal/models/gorm"

	"cloud.google.com/go/storage"
	"github.com/google/go-cmp/cmp"
)

// flakyBucket holds objects by name. failOnce names objects whose first delete
// times out; deleting a missing object reports ErrObjectNotExist.
type flakyBucket struct {
	objects  map[string]bool
	failOnce map[string]bool
}

func (b *flakyBucket) DeleteFile(ctx context.Context, objectName string) error {
	if b.failOnce[objectName] {
		delete(b.failOnce, objectName)
		return errors.New("context deadline exceeded")
	}
	if !b.objects[objectName] {
		return fmt.Errorf("failed to delete object from GCS: %w", storage.ErrObjectNotExist)
	}
	delete(b.objects, objectName)
	return nil
}

type memPruner struct {
	recs    []gormmodels.SubmissionRecord
	deleted []string
}

func (m *memPruner) OlderThan(ctx context.Context, cutoff time.Time) ([]gormmodels.SubmissionRecord, error) {
	var out []gormmodels.SubmissionRecord
	for _, r := range m.recs {
		if r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memPruner) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	for i, r := range m.recs {
		if r.ID == id {
			m.recs = append(m.recs[:i], m.recs[i+1:]...)
			break
		}
	}
	return nil
}

type memDeleter struct {
	fail    string
	deleted []string
}

func (m *memDeleter) DeleteFile(ctx context.Context, objectName string) error {
	if objectName == m.fail {
		return errors.New("permission denied")
	}
	m.deleted = append(m.deleted, objectName)
	return nil
}

var cutoff = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func fixtures() []gormmodels.SubmissionRecord {
	old := cutoff.Add(-48 * time.Hour)
	return []gormmodels.SubmissionRecord{
		{ID: "a", FormName: "Contact", CreatedAt: old},
		{ID: "b", FormName: "Volunteer", CreatedAt: old, FileObjects: map[string]string{
			"Resume": "forms/volunteer/2.pdf",
			"Letter": "forms/volunteer/1.pdf",
		}},
		{ID: "c", FormName: "Contact", CreatedAt: cutoff.Add(time.Hour)},
	}
}

func TestPruneSubmissions(t *testing.T) {
	store := &memPruner{recs: fixtures()}
	files := &memDeleter{}

	res, err := PruneSubmissions(context.Background(), store, files, cutoff, false)
	if err != nil {
		t.Fatalf("PruneSubmissions: %v", err)
	}

	if diff := cmp.Diff(PruneResult{Records: 2, Objects: 2}, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, store.deleted); diff != "" {
		t.Errorf("deleted records (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"forms/volunteer/1.pdf", "forms/volunteer/2.pdf"}, files.deleted); diff != "" {
		t.Errorf("deleted objects (-want +got):\n%s", diff)
	}
}

func TestPruneSubmissionsDryRun(t *testing.T) {
	store := &memPruner{recs: fixtures()}
	files := &memDeleter{}

	res, err := PruneSubmissions(context.Background(), store, files, cutoff, true)
	if err != nil {
		t.Fatalf("PruneSubmissions: %v", err)
	}
	if res.Records != 2 || res.Objects != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(store.deleted) != 0 || len(files.deleted) != 0 {
		t.Errorf("dry run deleted records=%v objects=%v", store.deleted, files.deleted)
	}
}

func TestPruneSubmissionsKeepsRecordOnObjectFailure(t *testing.T) {
	store := &memPruner{recs: fixtures()}
	files := &memDeleter{fail: "forms/volunteer/2.pdf"}

	res, err := PruneSubmissions(context.Background(), store, files, cutoff, false)
	if err != nil {
		t.Fatalf("PruneSubmissions: %v", err)
	}
	if res.Skipped != 1 || res.Records != 1 {
		t.Errorf("result = %+v", res)
	}
	if diff := cmp.Diff([]string{"a"}, store.deleted); diff != "" {
		t.Errorf("deleted records (-want +got):\n%s", diff)
	}
}

func TestPruneSubmissionsWithoutStorage(t *testing.T) {
	store := &memPruner{recs: fixtures()}

	res, err := PruneSubmissions(context.Background(), store, nil, cutoff, false)
	if err != nil {
		t.Fatalf("PruneSubmissions: %v", err)
	}
	if res.Skipped != 1 || res.Records != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestPruneSubmissionsRetriesAfterPartialDelete(t *testing.T) {
	store := &memPruner{recs: fixtures()}
	bucket := &flakyBucket{
		objects:  map[string]bool{"forms/volunteer/1.pdf": true, "forms/volunteer/2.pdf": true},
		failOnce: map[string]bool{"forms/volunteer/2.pdf": true},
	}

	res, err := PruneSubmissions(context.Background(), store, bucket, cutoff, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("first run = %+v, want record b kept", res)
	}

	res, err = PruneSubmissions(context.Background(), store, bucket, cutoff, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(PruneResult{Records: 1, Objects: 2}, res); diff != "" {
		t.Errorf("second run mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, store.deleted); diff != "" {
		t.Errorf("deleted records (-want +got):\n%s", diff)
	}
	if len(bucket.objects) != 0 {
		t.Errorf("objects left: %v", bucket.objects)
	}
}

func TestPruneSubmissionsObjectsRemovedElsewhere(t *testing.T) {
	store := &memPruner{recs: fixtures()}
	bucket := &flakyBucket{objects: map[string]bool{}}

	res, err := PruneSubmissions(context.Background(), store, bucket, cutoff, false)
	if err != nil {
		t.Fatalf("PruneSubmissions: %v", err)
	}
	if res.Skipped != 0 || res.Records != 2 {
		t.Errorf("result = %+v", res)
	}
}
