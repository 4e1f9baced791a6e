package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"remind-lab/analytics"
	"remind-lab/domain/event"
	errs "remind-lab/errors"
	"remind-lab/messaging"
	"remind-lab/observability"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Notification is one outbound message. Kind is a domain.NotificationKind
// or a domain.DigestKind.
type Notification struct {
	Recipient string
	Kind      string
	Text      string
}

// Notifier hands a notification over for delivery without waiting for it.
type Notifier interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Recorder counts delivery outcomes per phone.
type Recorder interface {
	Incr(ctx context.Context, phone string, c analytics.Counter) error
}

// DefaultMaxPending bounds the backlog when MaxPending is not set.
const DefaultMaxPending = 256

type DispatcherConfig struct {
	MaxInFlight int64
	// MaxPending bounds the accepted sends that have not finished yet,
	// including those waiting for an in-flight slot.
	MaxPending  int
	SendTimeout time.Duration
}

// Dispatcher sends notifications in the background. At most MaxInFlight
// sends run at once and each is cut after SendTimeout. Dispatch never waits:
// once MaxPending sends are outstanding, new ones are dropped. Failed and
// dropped sends are logged and counted, never retried.
type Dispatcher struct {
	sender     messaging.Sender
	sem        *semaphore.Weighted
	timeout    time.Duration
	maxPending int
	recorder   Recorder
	events     chan<- event.DomainEvent
	metrics    *observability.Metrics
	log        *slog.Logger
	mu         sync.Mutex
	closed     bool
	pending    int
	wg         sync.WaitGroup
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(sender messaging.Sender, cfg DispatcherConfig, recorder Recorder, metrics *observability.Metrics, log *slog.Logger) *Dispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	return &Dispatcher{
		sender:     sender,
		sem:        semaphore.NewWeighted(cfg.MaxInFlight),
		timeout:    cfg.SendTimeout,
		maxPending: cfg.MaxPending,
		recorder:   recorder,
		metrics:    metrics,
		log:        log,
	}
}

// WithEvents publishes a NotificationSent event once each send settles.
// Publishing never blocks; events are lost when the channel is full.
func (d *Dispatcher) WithEvents(events chan<- event.DomainEvent) *Dispatcher {
	d.events = events
	return d
}

// Dispatch hands n to its own goroutine, which waits for an in-flight slot
// and sends. The send outlives ctx cancellation so that Drain can still wait
// for it.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errs.ErrDispatcherClosed
	}
	if d.pending >= d.maxPending {
		d.mu.Unlock()
		d.drop(ctx, n)
		return errs.ErrDispatchBacklogFull
	}
	d.pending++
	d.wg.Add(1)
	d.mu.Unlock()

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		defer d.release()
		// Background never cancels, so Acquire only returns once a slot is free.
		_ = d.sem.Acquire(context.Background(), 1)
		defer d.sem.Release(1)
		d.metrics.DispatchStarted()
		defer d.metrics.DispatchDone()
		d.send(sendCtx, n)
	}()
	return nil
}

func (d *Dispatcher) release() {
	d.mu.Lock()
	d.pending--
	d.mu.Unlock()
}

// Pending is the number of accepted sends that have not finished.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Dispatcher) drop(ctx context.Context, n Notification) {
	d.log.Warn("Notification dropped, too many pending sends", "to", n.Recipient, "kind", n.Kind, "pending", d.maxPending)
	d.metrics.NotificationSent(n.Kind, "dropped")
	if d.recorder != nil {
		if err := d.recorder.Incr(context.WithoutCancel(ctx), n.Recipient, analytics.Failed); err != nil {
			d.log.Warn("Unable to record notification outcome", "to", n.Recipient, "error", err)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, n Notification) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	err := d.sender.Send(ctx, n.Recipient, n.Text)

	outcome, counter := "sent", analytics.Notified
	switch {
	case err == nil:
		d.log.Debug("Notification sent", "to", n.Recipient, "kind", n.Kind)
	case errors.Is(err, context.DeadlineExceeded):
		outcome, counter = "timeout", analytics.Failed
		d.log.Warn("Notification timed out", "to", n.Recipient, "kind", n.Kind, "timeout", d.timeout)
	default:
		outcome, counter = "failed", analytics.Failed
		d.log.Warn("Notification failed", "to", n.Recipient, "kind", n.Kind, "error", err)
	}
	d.metrics.NotificationSent(n.Kind, outcome)

	if d.recorder != nil {
		if rerr := d.recorder.Incr(context.WithoutCancel(ctx), n.Recipient, counter); rerr != nil {
			d.log.Warn("Unable to record notification outcome", "to", n.Recipient, "error", rerr)
		}
	}
	if d.events != nil {
		select {
		case d.events <- event.NotificationSent{Recipient: n.Recipient, Kind: n.Kind, Delivered: err == nil, At: time.Now().UTC()}:
		default:
			d.log.Debug("Notification event lost", "to", n.Recipient)
		}
	}
}

// Drain refuses new dispatches and waits for the in-flight ones, or for ctx.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
