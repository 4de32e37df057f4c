package notifier

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
)

// SMTP mails confirmations through a relay
type SMTP struct {
	cfg     config.SMTPConfig
	wedding Wedding
}

func NewSMTP(cfg config.SMTPConfig, wedding Wedding) (*SMTP, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp: host and from address are required")
	}
	return &SMTP{cfg: cfg, wedding: wedding}, nil
}

// Message builds the confirmation mail without sending it
func (s *SMTP) Message(c models.Confirmation) (*mail.Msg, error) {
	subject, body, err := Render(c, s.wedding)
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(c.GuestEmail); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTP) Send(ctx context.Context, c models.Confirmation) error {
	m, err := s.Message(c)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
