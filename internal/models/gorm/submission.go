package gorm

import (
	"time"
)

const (
	StatusAppended = "appended"
	StatusFailed   = "failed"
)

// SubmissionRecord is the audit trail of a relayed submission. The spreadsheet
// stays the system of record; this table exists for support and cleanup.
type SubmissionRecord struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	FormName      string            `gorm:"not null;index" json:"formName"`
	PageSlug      string            `gorm:"index" json:"pageSlug"`
	SpreadsheetID string            `gorm:"not null" json:"spreadsheetId"`
	FieldNames    []string          `gorm:"serializer:json" json:"fieldNames"`
	FileObjects   map[string]string `gorm:"serializer:json" json:"fileObjects,omitempty"`
	Status        string            `gorm:"default:appended" json:"status"`
	Error         string            `json:"error,omitempty"`
	Notified      bool              `json:"notified"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`
}

func (SubmissionRecord) TableName() string {
	return "form_submissions"
}
