package notification

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer opens one SMTP session per message.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info("Mail sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)))
	return nil
}
