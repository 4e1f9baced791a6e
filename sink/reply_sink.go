package sink

import (
	"context"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain"
	"remind-lab/domain/event"
	"remind-lab/messaging"
)

var _ contract.EventSink = ReplySink{}

// ReplySink answers through the messaging transport, only for messages that
// came in through it.
type ReplySink struct {
	sender messaging.Sender
	log    *slog.Logger
}

func NewReplySink(sender messaging.Sender, log *slog.Logger) ReplySink {
	return ReplySink{sender: sender, log: log}
}

func (r ReplySink) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageAnalyzed)
	if !ok || evt.Origin != domain.FromTransport || evt.Reply == "" {
		return nil
	}
	return r.sender.Send(ctx, evt.Message.Phone, evt.Reply)
}
