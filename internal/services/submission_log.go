package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormmodels "github.com/dhanavadh/eldercare-backend/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionLog stores the audit trail of relayed submissions in MySQL.
type SubmissionLog struct {
	db *gorm.DB
}

func NewSubmissionLog(db *gorm.DB) *SubmissionLog {
	return &SubmissionLog{db: db}
}

func (s *SubmissionLog) Record(ctx context.Context, rec *gormmodels.SubmissionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// GetByID returns nil without error when no record has id.
func (s *SubmissionLog) GetByID(ctx context.Context, id string) (*gormmodels.SubmissionRecord, error) {
	var rec gormmodels.SubmissionRecord

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	return &rec, nil
}

func (s *SubmissionLog) ListByForm(ctx context.Context, formName string, limit int) ([]gormmodels.SubmissionRecord, error) {
	var recs []gormmodels.SubmissionRecord

	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if formName != "" {
		q = q.Where("form_name = ?", formName)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	return recs, nil
}

func (s *SubmissionLog) OlderThan(ctx context.Context, cutoff time.Time) ([]gormmodels.SubmissionRecord, error) {
	var recs []gormmodels.SubmissionRecord

	err := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Order("created_at ASC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch old submissions: %w", err)
	}

	return recs, nil
}

func (s *SubmissionLog) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&gormmodels.SubmissionRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}
