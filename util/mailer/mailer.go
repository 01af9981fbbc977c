// Package mailer delivers the transactional HTML emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"

	"github.com/wneessen/go-mail"
)

type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type Mailer struct {
	cfg  Config
	port int
}

func New(cfg Config) *Mailer {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 {
		port = 587
	}
	return &Mailer{cfg: cfg, port: port}
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}
	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) SendOTP(ctx context.Context, email, name, otp string) error {
	body, err := render(otpTmpl, map[string]any{"Name": name, "OTP": otp})
	if err != nil {
		return err
	}
	return m.send(ctx, email, "Your BookSwap Verification Code", body)
}

func (m *Mailer) NotifyNewRequest(ctx context.Context, ownerEmail, requesterName, bookTitle, message string) error {
	body, err := render(newRequestTmpl, map[string]any{
		"Requester": requesterName,
		"Title":     bookTitle,
		"Message":   message,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, ownerEmail, "New Book Request: "+bookTitle, body)
}

func (m *Mailer) NotifyAccepted(ctx context.Context, requesterEmail, requesterName, bookTitle, ownerName, responseMessage string) error {
	body, err := render(acceptedTmpl, map[string]any{
		"Requester": requesterName,
		"Title":     bookTitle,
		"Owner":     ownerName,
		"Response":  responseMessage,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, requesterEmail, "Request Accepted: "+bookTitle, body)
}

func (m *Mailer) NotifyDeclined(ctx context.Context, requesterEmail, requesterName, bookTitle, ownerName, responseMessage string) error {
	body, err := render(declinedTmpl, map[string]any{
		"Requester": requesterName,
		"Title":     bookTitle,
		"Owner":     ownerName,
		"Response":  responseMessage,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, requesterEmail, "Request Declined: "+bookTitle, body)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
