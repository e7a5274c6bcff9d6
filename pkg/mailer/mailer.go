package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/noah-isme/career-services-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender from mail configuration.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail %q has no recipients", msg.Subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, msg.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

// LogSender records messages instead of delivering them. Used when mail is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail suppressed", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// New returns the sender matching the configuration.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if !cfg.Enabled {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}
