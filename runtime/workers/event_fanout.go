package workers

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain/event"
	"remind-lab/observability"
	"sync"
	"time"
)

// EventFanout broadcasts domain events to every registered sink.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. Each sink gets its own goroutine and at
// most sinkTimeout to consume an event; a slow sink never holds the others.
// Every event is then forwarded to the telemetry channel when it has room.
type EventFanout struct {
	log         *slog.Logger
	sinks       []contract.EventSink
	domain      chan event.DomainEvent
	telemetry   chan event.DomainEvent
	sinkTimeout time.Duration
	metrics     *observability.Metrics
}

var _ contract.Worker = (*EventFanout)(nil)

func NewEventFanout(
	log *slog.Logger,
	sinks []contract.EventSink,
	domainEvents, telemetryEvents chan event.DomainEvent,
	sinkTimeout time.Duration,
	metrics *observability.Metrics) *EventFanout {
	return &EventFanout{
		log:         log,
		sinks:       sinks,
		domain:      domainEvents,
		telemetry:   telemetryEvents,
		sinkTimeout: sinkTimeout,
		metrics:     metrics,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domain:
			w.Fanout(ctx, evt)
			select {
			case w.telemetry <- evt:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping domain event fanout")
			return nil
		}
	}
}

// Fanout hands the event to every sink and waits until each one returned or
// timed out.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg sync.WaitGroup
	for _, sink := range w.sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				name := fmt.Sprintf("%T", sink)
				w.metrics.SinkFailed(name)
				w.log.Warn("Sink failed to consume event", "sink", name, "sender", evt.Sender(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
