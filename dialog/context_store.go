// Package dialog keeps short per-sender conversation memory and builds the
// templated replies sent back to users.
package dialog

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// HistorySize is the number of messages kept per sender.
const HistorySize = 3

// Defaults for NewContextStore. A budget of 280 runes fits three short chat
// messages whole.
const (
	DefaultMaxSenders    = 1000
	DefaultContextBudget = 280
)

const contextSeparator = " | "

type history struct {
	mu       sync.Mutex
	messages []string
}

// ContextStore is a process-lifetime cache of the last messages of each sender.
// Each sender history has its own lock; the sender table itself is an LRU so
// idle senders are forgotten once MaxSenders is reached.
type ContextStore struct {
	senders *lru.Cache[string, *history]
	budget  int
}

// NewContextStore bounds the store to maxSenders histories and the context
// string to budget runes.
func NewContextStore(maxSenders, budget int) (*ContextStore, error) {
	cache, err := lru.New[string, *history](maxSenders)
	if err != nil {
		return nil, err
	}
	return &ContextStore{senders: cache, budget: budget}, nil
}

// Append records a message, evicting the oldest one past HistorySize.
// A history evicted from the LRU while Append waited for its lock is dropped
// and the message goes to a fresh one.
func (s *ContextStore) Append(sender, message string) {
	for {
		h := s.historyOf(sender)
		h.mu.Lock()
		if live, ok := s.senders.Peek(sender); !ok || live != h {
			h.mu.Unlock()
			continue
		}
		h.messages = append(h.messages, message)
		if len(h.messages) > HistorySize {
			h.messages = append([]string(nil), h.messages[len(h.messages)-HistorySize:]...)
		}
		h.mu.Unlock()
		return
	}
}

// Get returns up to HistorySize messages, oldest first.
func (s *ContextStore) Get(sender string) []string {
	h, ok := s.senders.Get(sender)
	if !ok {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

// ContextString joins the history and keeps its last budget runes, the most
// recent words being the useful ones.
func (s *ContextStore) ContextString(sender string) string {
	joined := strings.Join(s.Get(sender), contextSeparator)
	runes := []rune(joined)
	if s.budget <= 0 || len(runes) <= s.budget {
		return joined
	}
	return string(runes[len(runes)-s.budget:])
}

func (s *ContextStore) Len() int {
	return s.senders.Len()
}

func (s *ContextStore) historyOf(sender string) *history {
	if h, ok := s.senders.Get(sender); ok {
		return h
	}
	fresh := &history{}
	if previous, found, _ := s.senders.PeekOrAdd(sender, fresh); found {
		return previous
	}
	return fresh
}
