// Package projection builds read models from observed events.
// It never emits events nor touches storage.
package projection

import (
	"context"
	"fmt"
	"remind-lab/domain/event"
	"sync"
	"time"
)

type Entry struct {
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Timeline keeps the most recent activity of the assistant, oldest dropped first.
type Timeline struct {
	mu      sync.RWMutex
	size    int
	entries []Entry
}

func NewTimeline(size int) *Timeline {
	if size <= 0 {
		size = 100
	}
	return &Timeline{size: size}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	entry, ok := toEntry(e)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.size {
		t.entries = append([]Entry(nil), t.entries[len(t.entries)-t.size:]...)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns them all.
func (t *Timeline) Recent(n int) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n <= 0 || n > len(t.entries) {
		n = len(t.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(t.entries) - 1; i >= len(t.entries)-n; i-- {
		out = append(out, t.entries[i])
	}
	return out
}

func toEntry(e event.DomainEvent) (Entry, bool) {
	switch evt := e.(type) {
	case event.MessageAnalyzed:
		return Entry{
			Kind:    "message",
			Subject: evt.Message.Phone,
			Summary: fmt.Sprintf("%s (%s, %s)", evt.Command.Intent, evt.Command.Sentiment, evt.Command.Language),
			At:      evt.At,
		}, true
	case event.NotificationSent:
		outcome := "delivered"
		if !evt.Delivered {
			outcome = "failed"
		}
		return Entry{Kind: "notification", Subject: evt.Recipient, Summary: evt.Kind + " " + outcome, At: evt.At}, true
	case event.WorkerRestarted:
		return Entry{Kind: "restart", Subject: evt.WorkerName, Summary: evt.Reason, At: evt.At}, true
	default:
		return Entry{}, false
	}
}
