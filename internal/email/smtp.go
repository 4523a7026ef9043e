package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"logistica_backend/platform/config"
	"logistica_backend/platform/logger"
)

// SMTPSender delivers messages through an SMTP relay using go-mail.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// NewSender returns the configured Sender: SMTP when email is enabled, a
// logging no-op otherwise so local environments need no relay.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		return &NoopSender{log: log}
	}
	return &SMTPSender{cfg: cfg, log: log}
}

// Send delivers one message. A client is dialed per message; notification
// volume here is low and keeping no long-lived SMTP connection is simpler
// than managing reconnects.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.GetSMTPUsername()),
			mail.WithPassword(s.cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(s.cfg.GetSMTPHost(), opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.log.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NoopSender logs instead of delivering. Used when EMAIL_ENABLED is off.
type NoopSender struct {
	log *logger.Logger
}

// Send logs the message and succeeds.
func (s *NoopSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email delivery disabled, dropping message",
		"to", msg.To, "subject", msg.Subject)
	return nil
}
