package utils

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	gormmodels "github.com/dhanavadh/eldercare-backend/internal/models/gorm"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
)

type SubmissionPruner interface {
	OlderThan(ctx context.Context, cutoff time.Time) ([]gormmodels.SubmissionRecord, error)
	Delete(ctx context.Context, id string) error
}

type ObjectDeleter interface {
	DeleteFile(ctx context.Context, objectName string) error
}

type PruneResult struct {
	Records int
	Objects int
	Skipped int
}

// PruneSubmissions removes audit records created before cutoff together with
// their stored attachments. A missing attachment counts as deleted. A record is
// kept when any of its attachments could not be deleted, so the next run
// retries it. files may be nil when no bucket is configured; records with
// attachments are then skipped.
func PruneSubmissions(ctx context.Context, store SubmissionPruner, files ObjectDeleter, cutoff time.Time, dryRun bool) (PruneResult, error) {
	var res PruneResult

	recs, err := store.OlderThan(ctx, cutoff)
	if err != nil {
		return res, err
	}

	if dryRun {
		log.Infof("DRY RUN: Would remove %d submissions created before %s", len(recs), cutoff.Format(time.RFC3339))
	}

	for _, rec := range recs {
		objects := sortedObjects(rec.FileObjects)

		if dryRun {
			log.Infof("  %s - %s (%s): %d attachments", rec.ID, rec.FormName, rec.CreatedAt.Format(time.RFC3339), len(objects))
			res.Records++
			res.Objects += len(objects)
			continue
		}

		if len(objects) > 0 && files == nil {
			log.Warnf("Warning: skipping submission %s, no storage configured for its %d attachments", rec.ID, len(objects))
			res.Skipped++
			continue
		}

		failed := false
		for _, obj := range objects {
			err := files.DeleteFile(ctx, obj)
			if errors.Is(err, storage.ErrObjectNotExist) {
				log.WithField("object", obj).Debug("Attachment already removed")
				err = nil
			}
			if err != nil {
				log.WithError(err).WithField("object", obj).Warn("Warning: failed to delete attachment")
				failed = true
				continue
			}
			res.Objects++
		}
		if failed {
			res.Skipped++
			continue
		}

		if err := store.Delete(ctx, rec.ID); err != nil {
			return res, fmt.Errorf("failed to delete submission %s: %w", rec.ID, err)
		}
		res.Records++
	}

	return res, nil
}

func sortedObjects(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, obj := range m {
		if obj != "" {
			out = append(out, obj)
		}
	}
	sort.Strings(out)
	return out
}
