package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/utils"
)

// Mailer is the outbound-email collaborator. The pipeline only needs
// "send email(recipient, body)".
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailerFromEnv returns an SMTP mailer when SMTP_HOST is configured,
// otherwise a log-only mailer so password recovery still works in
// development.
func NewMailerFromEnv(log *logger.Logger) Mailer {
	host := utils.GetEnv("SMTP_HOST", "", log)
	if host == "" {
		log.Info("SMTP_HOST not set, using log mailer")
		return &logMailer{log: log.With("service", "LogMailer")}
	}
	return &smtpMailer{
		log:  log.With("service", "SMTPMailer"),
		host: host,
		port: utils.GetEnv("SMTP_PORT", "587", log),
		user: utils.GetEnv("SMTP_USER", "", log),
		pass: utils.GetEnv("SMTP_PASSWORD", "", log),
		from: utils.GetEnv("MAIL_FROM", "noreply@wellbeam.app", log),
	}
}

type logMailer struct {
	log *logger.Logger
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info("Would send email", "to", to, "subject", subject)
	return nil
}

type smtpMailer struct {
	log  *logger.Logger
	host string
	port string
	user string
	pass string
	from string
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", m.from, to, subject, body)
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}
