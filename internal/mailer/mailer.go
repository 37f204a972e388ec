package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
)

// Email is one outbound message. Subject and HTML arrive fully personalized.
type Email struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
}

// Sender hands one email to the external provider and returns the provider
// message id. Callers treat any error as a per-recipient failure.
type Sender interface {
	Send(ctx context.Context, e Email) (string, error)
	// IsConfigured reports whether the provider has credentials. Dispatching
	// through an unconfigured sender fails the whole campaign.
	IsConfigured() bool
}

// Config holds the SMTP settings for the default sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender implements Sender over SMTP.
type SMTPSender struct {
	config Config
}

func NewSMTPSender(config Config) *SMTPSender {
	return &SMTPSender{config: config}
}

func (s *SMTPSender) IsConfigured() bool {
	return s.config.Host != ""
}

func (s *SMTPSender) Send(ctx context.Context, e Email) (string, error) {
	if !s.IsConfigured() {
		return "", appErrors.ErrSenderUnconfigured
	}

	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())
	if err := msg.FromFormat(e.FromName, e.FromEmail); err != nil {
		return "", fmt.Errorf("failed to set email from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return "", fmt.Errorf("failed to set email recipient: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, e.HTML)

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	// SMTP gives us no provider id back; mint one so delivery records stay
	// individually addressable.
	return uuid.NewString(), nil
}
