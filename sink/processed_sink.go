// Package sink holds the consumers of analysis events. Each sink does one
// thing with a MessageAnalyzed event and ignores every other event.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain/event"
	"remind-lab/repositories"
)

var _ contract.EventSink = ProcessedSink{}

// ProcessedSink attaches the analysis outcome to the stored message.
type ProcessedSink struct {
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewProcessedSink(repository repositories.IMessageRepository, log *slog.Logger) ProcessedSink {
	return ProcessedSink{repository: repository, log: log}
}

func (p ProcessedSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAnalyzed:
		if err := p.repository.MarkProcessed(evt.Message.ID, evt.Command, evt.Reply); err != nil {
			return fmt.Errorf("marking message %s processed: %w", evt.Message.ID, err)
		}
		return nil
	default:
		p.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}
