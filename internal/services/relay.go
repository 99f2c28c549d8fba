package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal/metrics"
	"github.com/dhanavadh/eldercare-backend/internal/models"
	gormmodels "github.com/dhanavadh/eldercare-backend/internal/models/gorm"
	"github.com/dhanavadh/eldercare-backend/internal/sheets"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidRequest     = errors.New("invalid submission")
	ErrInvalidTarget      = errors.New("invalid submission target")
	ErrVerificationFailed = errors.New("verification failed")
	ErrNotConfigured      = errors.New("server not configured")
)

// Error carries a user-facing message next to its category.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

const contactKeyword = "contact"

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type SheetStore interface {
	ReadHeader(ctx context.Context, spreadsheetID string) ([]string, error)
	WriteHeader(ctx context.Context, spreadsheetID string, header []string) error
	AppendRow(ctx context.Context, spreadsheetID string, row []string) error
}

type FileStore interface {
	Upload(ctx context.Context, formName string, f models.FileField) (*StoredFile, error)
	Delete(ctx context.Context, objectName string) error
}

type Notifier interface {
	NotifyContact(ctx context.Context, p models.SubmissionPayload, fileURLs map[string]string) error
}

type Recorder interface {
	Record(ctx context.Context, rec *gormmodels.SubmissionRecord) error
}

// RelayDeps wires the relay. A nil Sheets means credentials are missing; a nil
// Verifier means captcha is not configured; Files, Notifier and Recorder are
// optional.
type RelayDeps struct {
	Sheets   SheetStore
	Files    FileStore
	Verifier Verifier
	Notifier Notifier
	Recorder Recorder
	Now      func() time.Time
}

// Relay writes form submissions to their target spreadsheet. It holds no
// per-request state.
//
// The header read/merge/write and the row append are separate API calls with
// no lock between them. Two concurrent submissions that both add a column can
// race; the later header write wins and the earlier row may land under a
// header that lacks its new column until the next submission re-adds it.
type Relay struct {
	deps RelayDeps
}

func NewRelay(deps RelayDeps) *Relay {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Relay{deps: deps}
}

// Submit validates p, verifies its captcha token, uploads its files and then
// appends one row to the target sheet. Notification and audit logging never
// change the outcome.
func (r *Relay) Submit(ctx context.Context, p models.SubmissionPayload, remoteIP string) error {
	err := r.submit(ctx, p, remoteIP)
	outcome := "success"
	if err != nil {
		outcome = "error"
		var re *Error
		if errors.As(err, &re) {
			outcome = kindLabel(re.Kind)
		}
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()
	return err
}

func (r *Relay) submit(ctx context.Context, p models.SubmissionPayload, remoteIP string) error {
	logger := log.WithFields(log.Fields{"form": p.FormName, "page": p.PageSlug})

	if missing := missingFields(p); len(missing) > 0 {
		return &Error{Kind: ErrInvalidRequest, Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}

	if reservedFieldUsed(p) {
		return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf("Field name %q is reserved", sheets.TimestampColumn)}
	}

	if r.deps.Sheets == nil {
		return &Error{Kind: ErrNotConfigured, Message: "Server configuration error: Google Sheets credentials are missing"}
	}

	if err := r.verify(ctx, p.CaptchaToken, remoteIP); err != nil {
		return err
	}

	spreadsheetID, err := sheets.SpreadsheetID(p.GoogleSheetURL)
	if err != nil {
		return &Error{Kind: ErrInvalidTarget, Message: "Invalid Google Sheet URL", Err: err}
	}

	// Uploads finish before any sheet I/O so their URLs can go into the row.
	stored, err := r.uploadAll(ctx, p)
	if err != nil {
		return err
	}
	fileURLs := make(map[string]string, len(stored))
	objects := make(map[string]string, len(stored))
	for name, f := range stored {
		fileURLs[name] = f.URL
		objects[name] = f.ObjectName
	}

	existing, err := r.deps.Sheets.ReadHeader(ctx, spreadsheetID)
	if err != nil {
		r.record(ctx, p, spreadsheetID, objects, err, false)
		return fmt.Errorf("failed to read spreadsheet header: %w", err)
	}

	header, changed := sheets.MergeHeader(existing, sheets.FieldNames(p.Fields, p.FileFields))
	if changed {
		if err := r.deps.Sheets.WriteHeader(ctx, spreadsheetID, header); err != nil {
			r.record(ctx, p, spreadsheetID, objects, err, false)
			return fmt.Errorf("failed to update spreadsheet header: %w", err)
		}
		logger.WithField("columns", len(header)).Info("Spreadsheet header updated")
	}

	row := sheets.BuildRow(header, p.Fields, fileURLs, r.deps.Now().UTC().Format(time.RFC3339))
	if err := r.deps.Sheets.AppendRow(ctx, spreadsheetID, row); err != nil {
		r.record(ctx, p, spreadsheetID, objects, err, false)
		return fmt.Errorf("failed to append row: %w", err)
	}

	notified := false
	if IsContactSubmission(p) && r.deps.Notifier != nil {
		if err := r.deps.Notifier.NotifyContact(ctx, p, fileURLs); err != nil {
			metrics.SideEffectFailures.WithLabelValues("notification").Inc()
			logger.WithError(err).Warn("Warning: contact notification failed")
		} else {
			notified = true
		}
	}

	r.record(ctx, p, spreadsheetID, objects, nil, notified)
	logger.WithField("spreadsheet", spreadsheetID).Info("Form submission appended")
	return nil
}

// verify fails open only when no verifier is configured.
func (r *Relay) verify(ctx context.Context, token, remoteIP string) error {
	if r.deps.Verifier == nil {
		if token != "" {
			log.Debug("Captcha token supplied but verification is not configured, skipping")
		}
		return nil
	}
	if token == "" {
		return &Error{Kind: ErrVerificationFailed, Message: "CAPTCHA verification is required"}
	}
	if err := r.deps.Verifier.Verify(ctx, token, remoteIP); err != nil {
		return &Error{Kind: ErrVerificationFailed, Message: "CAPTCHA verification failed", Err: err}
	}
	return nil
}

// uploadAll stores every file field in order. On any failure the files
// already stored are removed and nothing reaches the sheet.
func (r *Relay) uploadAll(ctx context.Context, p models.SubmissionPayload) (map[string]*StoredFile, error) {
	if p.FileFields.Len() == 0 {
		return nil, nil
	}
	if r.deps.Files == nil {
		return nil, &Error{Kind: ErrNotConfigured, Message: "Server configuration error: file storage is not configured"}
	}

	stored := make(map[string]*StoredFile, p.FileFields.Len())
	for _, name := range p.FileFields.Keys() {
		f, _ := p.FileFields.Get(name)
		sf, err := r.deps.Files.Upload(ctx, p.FormName, f)
		if err != nil {
			r.rollback(ctx, stored)
			var re *Error
			if errors.As(err, &re) {
				return nil, re
			}
			return nil, fmt.Errorf("failed to upload file %s: %w", f.Name, err)
		}
		stored[name] = sf
	}
	return stored, nil
}

func (r *Relay) rollback(ctx context.Context, stored map[string]*StoredFile) {
	for _, sf := range stored {
		if err := r.deps.Files.Delete(ctx, sf.ObjectName); err != nil {
			log.WithError(err).WithField("object", sf.ObjectName).Warn("Warning: failed to remove orphaned upload")
		}
	}
}

func (r *Relay) record(ctx context.Context, p models.SubmissionPayload, spreadsheetID string, objects map[string]string, failure error, notified bool) {
	if r.deps.Recorder == nil {
		return
	}
	rec := &gormmodels.SubmissionRecord{
		FormName:      p.FormName,
		PageSlug:      p.PageSlug,
		SpreadsheetID: spreadsheetID,
		FieldNames:    sheets.FieldNames(p.Fields, p.FileFields),
		FileObjects:   objects,
		Status:        gormmodels.StatusAppended,
		Notified:      notified,
		CreatedAt:     r.deps.Now().UTC(),
	}
	if failure != nil {
		rec.Status = gormmodels.StatusFailed
		rec.Error = failure.Error()
	}
	if err := r.deps.Recorder.Record(ctx, rec); err != nil {
		metrics.SideEffectFailures.WithLabelValues("audit_log").Inc()
		log.WithError(err).WithField("form", p.FormName).Warn("Warning: failed to record submission")
	}
}

// IsContactSubmission reports whether p came from the contact page or a form
// whose name mentions contact.
func IsContactSubmission(p models.SubmissionPayload) bool {
	if strings.EqualFold(p.PageSlug, contactKeyword) {
		return true
	}
	return strings.Contains(strings.ToLower(p.FormName), contactKeyword)
}

func missingFields(p models.SubmissionPayload) []string {
	var missing []string
	if strings.TrimSpace(p.FormName) == "" {
		missing = append(missing, "formName")
	}
	if strings.TrimSpace(p.GoogleSheetURL) == "" {
		missing = append(missing, "googleSheetUrl")
	}
	if p.Fields == nil {
		missing = append(missing, "fields")
	}
	return missing
}

// reservedFieldUsed reports whether a submitted field would share the
// spreadsheet's timestamp column.
func reservedFieldUsed(p models.SubmissionPayload) bool {
	if _, ok := p.Fields.Get(sheets.TimestampColumn); ok {
		return true
	}
	_, ok := p.FileFields.Get(sheets.TimestampColumn)
	return ok
}

func kindLabel(kind error) string {
	switch {
	case errors.Is(kind, ErrInvalidRequest):
		return "invalid"
	case errors.Is(kind, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(kind, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(kind, ErrNotConfigured):
		return "not_configured"
	}
	return "error"
}
