package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SentMail is one message accepted by Mailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// Mailer records sent mail. SendFn, when set, decides the outcome of each send
// and may panic to simulate a misbehaving transport.
type Mailer struct {
	SendFn func(ctx context.Context, to, subject, htmlBody string) error

	mu   sync.Mutex
	sent []SentMail
}

// Send records the message unless SendFn fails.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, to, subject, htmlBody); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// Sent returns the messages delivered so far.
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// Push is one event accepted by Pusher.
type Push struct {
	UserID  uuid.UUID
	Payload any
}

// Pusher records pushed events. PushFn behaves like Mailer.SendFn.
type Pusher struct {
	PushFn func(ctx context.Context, userID uuid.UUID, payload any) error

	mu     sync.Mutex
	pushed []Push
}

// PushToUser records the event unless PushFn fails.
func (p *Pusher) PushToUser(ctx context.Context, userID uuid.UUID, payload any) error {
	if p.PushFn != nil {
		if err := p.PushFn(ctx, userID, payload); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, Push{UserID: userID, Payload: payload})
	return nil
}

// Pushed returns the events delivered so far.
func (p *Pusher) Pushed() []Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Push(nil), p.pushed...)
}
