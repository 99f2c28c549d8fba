// Package forms turns content-authored field lists into validation rules and
// drives a single form submission from user input to the relay endpoint.
package forms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/models"
)

// EmptyFormMessage is shown in place of a form whose fields were all filtered out.
const EmptyFormMessage = "This form is not available right now. Please contact us directly."

// CaptchaPrompt is shown when a submission is attempted without a captcha token.
const CaptchaPrompt = "Please complete the verification challenge before submitting"

type FieldKind int

const (
	KindText FieldKind = iota + 1
	KindTextArea
	KindBoolean
	KindUpload
)

var kindNames = map[string]FieldKind{
	"text":     KindText,
	"textarea": KindTextArea,
	"boolean":  KindBoolean,
	"checkbox": KindBoolean,
	"file":     KindUpload,
}

// ParseKind maps a content type string to a FieldKind. Unknown strings are rejected.
func ParseKind(s string) (FieldKind, bool) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTextArea:
		return "textarea"
	case KindBoolean:
		return "boolean"
	case KindUpload:
		return "file"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// Field is a descriptor that survived filtering.
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Placeholder string
	Order       *int
}

func (f Field) sortKey() int {
	if f.Order == nil {
		return math.MaxInt
	}
	return *f.Order
}

// Values is the current state of a rendered form. Text kinds hold strings,
// booleans hold bool and uploads hold a File.
type Values map[string]any

// FieldErrors maps field name to a user-facing message.
type FieldErrors map[string]string

type Rule struct {
	Field Field
}

// Check returns an empty string when v satisfies the rule.
func (r Rule) Check(v any) string {
	name := r.Field.Name
	required := fmt.Sprintf("%s is required", name)

	switch r.Field.Kind {
	case KindText, KindTextArea:
		if v == nil {
			if r.Field.Required {
				return required
			}
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be text", name)
		}
		if r.Field.Required && s == "" {
			return required
		}
	case KindBoolean:
		if v == nil {
			if r.Field.Required {
				return required
			}
			return ""
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Sprintf("%s must be true or false", name)
		}
		if r.Field.Required && !b {
			return required
		}
	case KindUpload:
		f, ok := v.(File)
		if !ok || f == nil {
			if v != nil && !ok {
				return fmt.Sprintf("%s must be a file", name)
			}
			if r.Field.Required {
				return required
			}
		}
	}
	return ""
}

// Schema is the derived rule set for one form definition.
type Schema struct {
	fields []Field
	rules  map[string]Rule
}

// Build filters descriptors, orders them for rendering and derives one rule per
// field. Descriptors without a name or with an unknown kind are dropped, as are
// repeats of a name already seen.
func Build(descriptors []models.FieldDescriptor) *Schema {
	s := &Schema{rules: make(map[string]Rule)}

	for _, d := range descriptors {
		if d.Name == "" {
			continue
		}
		kind, ok := ParseKind(d.Kind)
		if !ok {
			continue
		}
		if _, dup := s.rules[d.Name]; dup {
			continue
		}
		f := Field{
			Name:        d.Name,
			Kind:        kind,
			Required:    d.Required,
			Placeholder: d.Placeholder,
			Order:       d.Order,
		}
		s.fields = append(s.fields, f)
		s.rules[f.Name] = Rule{Field: f}
	}

	sort.SliceStable(s.fields, func(i, j int) bool {
		a, b := s.fields[i], s.fields[j]
		if a.sortKey() != b.sortKey() {
			return a.sortKey() < b.sortKey()
		}
		return a.Name < b.Name
	})

	return s
}

// Empty reports that no field survived filtering; callers show EmptyFormMessage
// and no submit control.
func (s *Schema) Empty() bool {
	return len(s.fields) == 0
}

// Fields returns the fields in render order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Field(name string) (Field, bool) {
	r, ok := s.rules[name]
	return r.Field, ok
}

func (s *Schema) Rule(name string) (Rule, bool) {
	r, ok := s.rules[name]
	return r, ok
}

// InitialValues returns "" for text kinds and false for booleans. Upload
// fields are absent.
func (s *Schema) InitialValues() Values {
	v := make(Values, len(s.fields))
	for _, f := range s.fields {
		switch f.Kind {
		case KindText, KindTextArea:
			v[f.Name] = ""
		case KindBoolean:
			v[f.Name] = false
		}
	}
	return v
}

// Validate checks every rule against values. A nil result means valid.
func (s *Schema) Validate(values Values) FieldErrors {
	var errs FieldErrors
	for _, f := range s.fields {
		if msg := s.rules[f.Name].Check(values[f.Name]); msg != "" {
			if errs == nil {
				errs = make(FieldErrors)
			}
			errs[f.Name] = msg
		}
	}
	return errs
}
