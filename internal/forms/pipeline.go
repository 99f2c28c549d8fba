package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateVerifyingCaptcha
	StateCaptchaFailed
	StateEncodingAttachments
	StateSending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateVerifyingCaptcha:
		return "verifying-captcha"
	case StateCaptchaFailed:
		return "captcha-failed"
	case StateEncodingAttachments:
		return "encoding-attachments"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrCaptchaRequired = errors.New("captcha token required")
	ErrEmptyForm       = errors.New("form has no fields")
	ErrUnknownField    = errors.New("unknown field")
)

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = e.Fields[name]
	}
	return strings.Join(msgs, "; ")
}

// Submitter delivers a payload to the relay and returns its success message.
type Submitter interface {
	Submit(ctx context.Context, payload models.SubmissionPayload) (string, error)
}

// Session holds the state of one rendered form between submit attempts.
// It is not safe for concurrent use.
type Session struct {
	form      models.FormDefinition
	schema    *Schema
	submitter Submitter
	siteKey   string

	values Values
	token  string
	state  State
}

// NewSession prepares a form for input. siteKey enables the captcha step when
// non-empty.
func NewSession(form models.FormDefinition, submitter Submitter, siteKey string) *Session {
	schema := Build(form.Fields)
	return &Session{
		form:      form,
		schema:    schema,
		submitter: submitter,
		siteKey:   siteKey,
		values:    schema.InitialValues(),
		state:     StateIdle,
	}
}

func (s *Session) Schema() *Schema { return s.schema }
func (s *Session) State() State    { return s.state }

// Set stores a value for a known field. A nil value clears an upload.
func (s *Session) Set(name string, value any) error {
	if _, ok := s.schema.Field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if value == nil {
		delete(s.values, name)
		return nil
	}
	s.values[name] = value
	return nil
}

func (s *Session) Values() Values {
	out := make(Values, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Session) SetCaptchaToken(token string) {
	s.token = token
}

func (s *Session) CaptchaToken() string {
	return s.token
}

// Submit runs one attempt: validate, check for a captcha token, encode
// attachments, send. Nothing is sent unless every earlier step passes.
func (s *Session) Submit(ctx context.Context) (string, error) {
	if s.schema.Empty() {
		return "", ErrEmptyForm
	}

	// A rejected attempt leaves the form editable again.
	s.state = StateValidating
	if errs := s.schema.Validate(s.values); errs != nil {
		s.state = StateRejected
		log.WithFields(log.Fields{"form": s.form.Name, "fields": len(errs)}).Debug("Form rejected by validation")
		s.state = StateIdle
		return "", &ValidationError{Fields: errs}
	}

	if s.siteKey != "" {
		s.state = StateVerifyingCaptcha
		if s.token == "" {
			s.state = StateCaptchaFailed
			return "", ErrCaptchaRequired
		}
	}

	s.state = StateEncodingAttachments
	files, err := s.encodeAttachments(ctx)
	if err != nil {
		s.state = StateFailed
		return "", err
	}

	payload := s.buildPayload(files)

	s.state = StateSending
	msg, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		s.state = StateFailed
		s.token = ""
		log.WithFields(log.Fields{"form": s.form.Name, "error": err}).Warn("Form submission failed")
		return "", err
	}

	s.state = StateSucceeded
	s.values = s.schema.InitialValues()
	s.token = ""
	return msg, nil
}

func (s *Session) encodeAttachments(ctx context.Context) (*models.FileFields, error) {
	type pending struct {
		field string
		file  File
	}
	var uploads []pending
	for _, f := range s.schema.Fields() {
		if f.Kind != KindUpload {
			continue
		}
		file, ok := s.values[f.Name].(File)
		if !ok || file == nil {
			continue
		}
		// Cheap checks first, in render order, so the reported reason does not
		// depend on goroutine scheduling.
		if err := CheckAttachment(file); err != nil {
			var ae *AttachmentError
			if errors.As(err, &ae) {
				return nil, &AttachmentError{Field: f.Name, Reason: ae.Reason}
			}
			return nil, err
		}
		uploads = append(uploads, pending{field: f.Name, file: file})
	}
	if len(uploads) == 0 {
		return nil, nil
	}

	encoded := make([]models.FileField, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ff, err := EncodeAttachment(u.file)
			if err != nil {
				var ae *AttachmentError
				if errors.As(err, &ae) {
					return &AttachmentError{Field: u.field, Reason: ae.Reason}
				}
				return err
			}
			encoded[i] = ff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := &models.FileFields{}
	for i, u := range uploads {
		files.Set(u.field, encoded[i])
	}
	return files, nil
}

func (s *Session) buildPayload(files *models.FileFields) models.SubmissionPayload {
	fields := &models.FieldValues{}
	for _, f := range s.schema.Fields() {
		if f.Kind == KindUpload {
			continue
		}
		v, ok := s.values[f.Name]
		if !ok {
			continue
		}
		fields.Set(f.Name, v)
	}

	return models.SubmissionPayload{
		FormName:       s.form.Name,
		PageSlug:       s.form.TargetPage,
		GoogleSheetURL: s.form.SubmissionTarget,
		Fields:         fields,
		FileFields:     files,
		CaptchaToken:   s.token,
	}
}
