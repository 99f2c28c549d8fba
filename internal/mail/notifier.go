// Package mail sends staff notifications for contact-form submissions.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/models"
	"github.com/dhanavadh/eldercare-backend/internal/sheets"

	log "github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
)

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

type Notifier struct {
	from    string
	to      string
	enabled bool
	send    sendFunc
}

func NewNotifier(cfg config.MailConfig) *Notifier {
	n := &Notifier{
		from:    cfg.From,
		to:      cfg.NotifyTo,
		enabled: cfg.Configured(),
	}
	n.send = func(ctx context.Context, msg *gomail.Msg) error {
		opts := []gomail.Option{
			gomail.WithPort(cfg.Port),
			gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		}
		if cfg.Username != "" {
			opts = append(opts,
				gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
				gomail.WithUsername(cfg.Username),
				gomail.WithPassword(cfg.Password),
			)
		}
		client, err := gomail.NewClient(cfg.Host, opts...)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client.DialAndSendWithContext(ctx, msg)
	}
	return n
}

func (n *Notifier) Enabled() bool {
	return n.enabled
}

// NotifyContact emails a summary of p to staff. It is a no-op when mail is not
// configured.
func (n *Notifier) NotifyContact(ctx context.Context, p models.SubmissionPayload, fileURLs map[string]string) error {
	if !n.enabled {
		log.WithField("form", p.FormName).Debug("Mail not configured, skipping contact notification")
		return nil
	}

	subject, body := ContactSummary(p, fileURLs)

	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(splitAddresses(n.to)...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	if replyTo := replyAddress(p.Fields); replyTo != "" {
		if err := msg.ReplyTo(replyTo); err != nil {
			log.WithField("address", replyTo).Debug("Ignoring unusable reply-to address")
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// ContactSummary renders the notification subject and plain-text body.
func ContactSummary(p models.SubmissionPayload, fileURLs map[string]string) (string, string) {
	subject := fmt.Sprintf("New %s submission", p.FormName)

	var b strings.Builder
	fmt.Fprintf(&b, "A new submission was received for %q", p.FormName)
	if p.PageSlug != "" {
		fmt.Fprintf(&b, " on page /%s", p.PageSlug)
	}
	b.WriteString(".\n\n")
	for _, name := range p.Fields.Keys() {
		v, _ := p.Fields.Get(name)
		fmt.Fprintf(&b, "%s: %s\n", name, sheets.FormatValue(v))
	}
	for _, name := range p.FileFields.Keys() {
		f, _ := p.FileFields.Get(name)
		if u, ok := fileURLs[name]; ok {
			fmt.Fprintf(&b, "%s: %s (%s)\n", name, f.Name, u)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", name, f.Name)
		}
	}
	return subject, b.String()
}

func replyAddress(fields *models.FieldValues) string {
	for _, name := range fields.Keys() {
		if !strings.Contains(strings.ToLower(name), "email") {
			continue
		}
		v, _ := fields.Get(name)
		if s, ok := v.(string); ok && strings.Contains(s, "@") {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func splitAddresses(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
