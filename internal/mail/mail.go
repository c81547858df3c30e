// Package mail sends transactional e-mail over SMTP.
package mail

import (
	"context"
	"fmt"
	"html"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dialer is the part of gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	dialer Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) Sender {
	return NewSender(gomail.NewDialer(host, port, username, password), from)
}

func NewSender(d Dialer, from string) Sender {
	return &smtpSender{dialer: d, from: from}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	log := logger.FromCtx(ctx).With(
		zap.String("component", "mail"),
		zap.String("to", msg.To),
	)

	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error("smtp send failed", zap.Error(err))
		return err
	}

	log.Info("mail sent", zap.String("subject", msg.Subject))
	return nil
}

// BuildResetMessage renders the password reset e-mail for link.
func BuildResetMessage(to, name, link string) Message {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}

	text := fmt.Sprintf(
		"%s,\n\nYou requested a password reset. Open the link below within 10 minutes to choose a new password:\n\n%s\n\nIf you did not request this, ignore this e-mail.\n",
		greeting, link,
	)
	body := fmt.Sprintf(
		`<p>%s,</p><p>You requested a password reset. Open the link below within 10 minutes to choose a new password:</p><p><a href="%s">Reset password</a></p><p>If you did not request this, ignore this e-mail.</p>`,
		html.EscapeString(greeting), html.EscapeString(link),
	)

	return Message{
		To:      to,
		Subject: "Password reset",
		Text:    text,
		HTML:    body,
	}
}
