// internal/mailer/mock.go
package mailer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Message is one delivery captured by the mock.
type Message struct {
	To         string
	Subject    string
	Body       string
	Filename   string
	Attachment []byte
}

// Mock records sends in memory. It stands in for the relay in dev mode and in
// tests; FailFor forces a failure reason per address and Delay simulates a
// slow relay so timeout behavior can be exercised.
type Mock struct {
	mu      sync.Mutex
	sent    []Message
	FailFor map[string]string
	Delay   time.Duration
}

func NewMock() *Mock {
	return &Mock{FailFor: make(map[string]string)}
}

func (m *Mock) Send(ctx context.Context, to, subject, body string) error {
	return m.deliver(ctx, Message{To: to, Subject: subject, Body: body})
}

func (m *Mock) SendWithAttachment(ctx context.Context, to, subject, body, filename string, attachment []byte) error {
	return m.deliver(ctx, Message{To: to, Subject: subject, Body: body, Filename: filename, Attachment: attachment})
}

func (m *Mock) deliver(ctx context.Context, msg Message) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if reason, ok := m.FailFor[msg.To]; ok {
		return errors.New(reason)
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *Mock) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ AttachmentMailer = (*Mock)(nil)
