package notifier

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer sends notifications over SMTP.
type Mailer struct {
	client *mail.Client
	from   string
}

// NewMailer builds the SMTP client. Port 465 uses implicit TLS; other ports
// negotiate STARTTLS opportunistically, matching common provider defaults.
func NewMailer(cfg Config) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: cfg.User}, nil
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.FromFormat("Invoice Intake Service", m.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := mm.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("reply-to address: %w", err)
		}
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	if len(msg.PDF) > 0 {
		if err := mm.AttachReader("invoice.pdf", bytes.NewReader(msg.PDF)); err != nil {
			return fmt.Errorf("attach pdf: %w", err)
		}
	}
	return m.client.DialAndSendWithContext(ctx, mm)
}
