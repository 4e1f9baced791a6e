package sink

import (
	"context"
	"remind-lab/analytics"
	"remind-lab/contract"
	"remind-lab/domain/event"
)

type Recorder interface {
	Incr(ctx context.Context, phone string, c analytics.Counter) error
}

var _ contract.EventSink = AnalyticsSink{}

// AnalyticsSink counts analysed messages per phone.
type AnalyticsSink struct {
	recorder Recorder
}

func NewAnalyticsSink(recorder Recorder) AnalyticsSink {
	return AnalyticsSink{recorder: recorder}
}

func (a AnalyticsSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if evt, ok := e.(event.MessageAnalyzed); ok {
		return a.recorder.Incr(ctx, evt.Message.Phone, analytics.Messages)
	}
	return nil
}
