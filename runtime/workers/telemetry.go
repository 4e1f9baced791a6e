package workers

import (
	"context"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain/event"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker feeds the observability consumers (activity timeline,
// logs) from the telemetry channel. Handlers run inline and must be quick.
type TelemetryWorker struct {
	log       *slog.Logger
	telemetry chan event.DomainEvent
	handlers  []contract.EventSink
}

func NewTelemetryWorker(log *slog.Logger, telemetry chan event.DomainEvent, handlers ...contract.EventSink) *TelemetryWorker {
	return &TelemetryWorker{log: log, telemetry: telemetry, handlers: handlers}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-w.telemetry:
			w.handle(ctx, evt)
		}
	}
}

func (w *TelemetryWorker) handle(ctx context.Context, evt event.DomainEvent) {
	if restarted, ok := evt.(event.WorkerRestarted); ok {
		w.log.Warn("Worker restarted after a crash", "name", restarted.WorkerName, "reason", restarted.Reason)
	}
	for _, h := range w.handlers {
		if err := h.Consume(ctx, evt); err != nil {
			w.log.Debug("Telemetry handler failed", "error", err)
		}
	}
}
