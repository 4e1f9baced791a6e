//go:generate go run go.uber.org/mock/mockgen -source=sender.go -destination=../mocks/mock_sender.go -package=mocks
package messaging

import (
	"context"
	"log/slog"
	"remind-lab/errors"
	"sync"
	"time"
)

// Sender delivers text to a phone through the messaging transport.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
	Status() Status
}

type Status struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Outbound is a message handed to the simulated transport.
type Outbound struct {
	Recipient string
	Text      string
	At        time.Time
}

// SimulatedSender stands in for the WhatsApp session: it logs every message
// and keeps the most recent ones in memory for inspection.
type SimulatedSender struct {
	log     *slog.Logger
	mu      sync.Mutex
	ready   bool
	keep    int
	outbox  []Outbound
	lastErr string
}

func NewSimulatedSender(log *slog.Logger, keep int) *SimulatedSender {
	return &SimulatedSender{log: log, ready: true, keep: keep}
}

func (s *SimulatedSender) Send(ctx context.Context, recipient, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errors.ErrSenderNotReady
	}
	s.log.Info("[WhatsApp simulated] sending", "to", recipient, "text", text)
	s.outbox = append(s.outbox, Outbound{Recipient: recipient, Text: text, At: time.Now().UTC()})
	if s.keep > 0 && len(s.outbox) > s.keep {
		s.outbox = s.outbox[len(s.outbox)-s.keep:]
	}
	return nil
}

func (s *SimulatedSender) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Ready: s.ready, Error: s.lastErr}
}

// SetReady toggles the simulated session, recording why it went down.
func (s *SimulatedSender) SetReady(ready bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
	s.lastErr = reason
	if ready {
		s.lastErr = ""
	}
}

func (s *SimulatedSender) Sent() []Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Outbound(nil), s.outbox...)
}
