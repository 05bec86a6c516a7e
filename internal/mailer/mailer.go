// internal/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"
)

// Mailer is the delivery collaborator: one attempt per call, bounded by the
// caller's context. The pipeline never retries a failed attempt.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AttachmentMailer additionally sends a message with one file attached; the
// report generator uses it for the CSV artifact.
type AttachmentMailer interface {
	Mailer
	SendWithAttachment(ctx context.Context, to, subject, body, filename string, attachment []byte) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	dialer *mail.Dialer
	from   string
	log    *zap.Logger
}

func NewSMTP(host string, port int, user, password, from string, timeout time.Duration, log *zap.Logger) *SMTP {
	d := mail.NewDialer(host, port, user, password)
	d.Timeout = timeout
	return &SMTP{dialer: d, from: from, log: log}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.send(ctx, m)
}

func (s *SMTP) SendWithAttachment(ctx context.Context, to, subject, body, filename string, attachment []byte) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.AttachReader(filename, bytes.NewReader(attachment))
	return s.send(ctx, m)
}

// send runs DialAndSend under the caller's deadline. The dialer carries its
// own socket timeout; the select covers contexts shorter than that.
func (s *SMTP) send(ctx context.Context, m *mail.Message) error {
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.log.Warn("smtp send abandoned", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

var _ AttachmentMailer = (*SMTP)(nil)
