package scheduler

import (
	"sync"
	"time"
)

// TickSource drives the scheduler. C delivers the instant of each tick.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// TickerSource ticks on the wall clock at a fixed interval.
type TickerSource struct {
	ticker *time.Ticker
}

func NewTickerSource(interval time.Duration) *TickerSource {
	return &TickerSource{ticker: time.NewTicker(interval)}
}

func (s *TickerSource) C() <-chan time.Time { return s.ticker.C }

func (s *TickerSource) Stop() { s.ticker.Stop() }

// ManualSource only ticks when told to, from tests or an external cron trigger.
type ManualSource struct {
	ch   chan time.Time
	done chan struct{}
	once sync.Once
}

func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan time.Time), done: make(chan struct{})}
}

func (s *ManualSource) C() <-chan time.Time { return s.ch }

// Tick blocks until the scheduler picks the tick up. It returns false once
// the source is stopped.
func (s *ManualSource) Tick(at time.Time) bool {
	select {
	case <-s.done:
		return false
	case s.ch <- at:
		return true
	}
}

func (s *ManualSource) Stop() {
	s.once.Do(func() { close(s.done) })
}
