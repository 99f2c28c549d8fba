package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/cms"
	"github.com/dhanavadh/eldercare-backend/internal/forms"
	"github.com/dhanavadh/eldercare-backend/internal/models"

	"github.com/spf13/cobra"
)

var submitFlags struct {
	page         string
	form         string
	relay        string
	captchaToken string
	set          []string
	files        []string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Fill in and submit a page's form through the relay",
	Long: "Submit validates and encodes a form exactly as the site does, then posts it\n" +
		"to the relay endpoint. Use --set name=value for text and boolean fields and\n" +
		"--file name=path for uploads.",
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitFlags.page, "page", "", "Page slug (required)")
	f.StringVar(&submitFlags.form, "form", "", "Form name; may be omitted when the page has one form")
	f.StringVar(&submitFlags.relay, "relay", "", "Submission endpoint (default API_BASE_URL/api/submit-form)")
	f.StringVar(&submitFlags.captchaToken, "captcha-token", "", "CAPTCHA token to send with the submission")
	f.StringArrayVar(&submitFlags.set, "set", nil, "Field value as name=value (repeatable)")
	f.StringArrayVar(&submitFlags.files, "file", nil, "Upload as name=path (repeatable)")

	_ = submitCmd.MarkFlagRequired("page")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	defs, err := cms.NewClient(cfg.CMS).FormsForPage(cmd.Context(), submitFlags.page)
	if err != nil {
		return err
	}
	def, err := pickForm(defs, submitFlags.form)
	if err != nil {
		return err
	}

	endpoint := submitFlags.relay
	if endpoint == "" {
		if cfg.Server.BaseURL == "" {
			return errors.New("--relay is required when API_BASE_URL is not set")
		}
		endpoint = cfg.Server.BaseURL + "/api/submit-form"
	}

	session := forms.NewSession(*def, forms.NewHTTPSubmitter(endpoint, nil), cfg.Captcha.SiteKey)

	values, err := parseAssignments(submitFlags.set)
	if err != nil {
		return err
	}
	for name, raw := range values {
		field, ok := session.Schema().Field(name)
		if !ok {
			return fmt.Errorf("%w: %s", forms.ErrUnknownField, name)
		}
		v, err := coerceValue(field, raw)
		if err != nil {
			return err
		}
		if err := session.Set(name, v); err != nil {
			return err
		}
	}

	paths, err := parseAssignments(submitFlags.files)
	if err != nil {
		return err
	}
	for name, path := range paths {
		f, err := forms.OpenOSFile(path)
		if err != nil {
			return err
		}
		if err := session.Set(name, f); err != nil {
			return err
		}
	}

	if submitFlags.captchaToken != "" {
		session.SetCaptchaToken(submitFlags.captchaToken)
	}

	msg, err := session.Submit(cmd.Context())
	out := cmd.OutOrStdout()
	if err != nil {
		if errors.Is(err, forms.ErrCaptchaRequired) {
			fmt.Fprintf(out, "  %s (use --captcha-token)\n", forms.CaptchaPrompt)
		}
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			for name, problem := range verr.Fields {
				fmt.Fprintf(out, "  %s: %s\n", name, problem)
			}
		}
		return fmt.Errorf("submission %s: %w", session.State(), err)
	}

	fmt.Fprintln(out, msg)
	return nil
}

func pickForm(defs []models.FormDefinition, name string) (*models.FormDefinition, error) {
	if name == "" {
		if len(defs) == 1 {
			return &defs[0], nil
		}
		return nil, fmt.Errorf("page has %d forms, pick one with --form", len(defs))
	}
	for i := range defs {
		if strings.EqualFold(defs[i].Name, name) {
			return &defs[i], nil
		}
	}
	return nil, fmt.Errorf("no form named %q on this page", name)
}

// parseAssignments splits name=value pairs. The first '=' separates; values
// may contain further '=' characters.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", p)
		}
		out[name] = value
	}
	return out, nil
}

func coerceValue(f forms.Field, raw string) (any, error) {
	switch f.Kind {
	case forms.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not true or false", f.Name, raw)
		}
		return b, nil
	case forms.KindUpload:
		return nil, fmt.Errorf("%s is an upload, use --file", f.Name)
	}
	return raw, nil
}
