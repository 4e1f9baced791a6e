package workers

import (
	"context"
	"log/slog"
	"remind-lab/analyzer"
	"remind-lab/contract"
	"remind-lab/dialog"
	"remind-lab/domain"
	"remind-lab/domain/event"
	"remind-lab/observability"
	"remind-lab/repositories"
	"time"
)

var _ contract.Worker = (*PoolUnitWorker)(nil)

// PoolUnitWorker is one analysis worker of the pool: it turns each job into a
// command and a reply and publishes them as a MessageAnalyzed event.
type PoolUnitWorker struct {
	analyzer    *analyzer.Analyzer
	responder   *dialog.Responder
	contexts    *dialog.ContextStore
	preferences repositories.IPreferenceRepository
	jobs        chan domain.AnalysisJob
	events      chan event.DomainEvent
	metrics     *observability.Metrics
	log         *slog.Logger
}

func NewPoolUnitWorker(
	analyzer *analyzer.Analyzer,
	responder *dialog.Responder,
	contexts *dialog.ContextStore,
	preferences repositories.IPreferenceRepository,
	jobs chan domain.AnalysisJob,
	events chan event.DomainEvent,
	metrics *observability.Metrics,
	log *slog.Logger) *PoolUnitWorker {
	return &PoolUnitWorker{
		analyzer:    analyzer,
		responder:   responder,
		contexts:    contexts,
		preferences: preferences,
		jobs:        jobs,
		events:      events,
		metrics:     metrics,
		log:         log,
	}
}

func (w *PoolUnitWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.events <- w.Analyze(job):
			}
		}
	}
}

// Analyze reads the sender's preference, classifies the text relative to the
// receive time in the sender's zone and renders the reply with the previous
// messages as context.
func (w *PoolUnitWorker) Analyze(job domain.AnalysisJob) event.MessageAnalyzed {
	msg := job.Message
	pref, err := w.preferences.Get(msg.Phone)
	if err != nil {
		pref = domain.DefaultPreference(msg.Phone)
	}
	now := msg.ReceivedAt.In(pref.Location())
	cmd := w.analyzer.Analyze(msg.Text, pref.Language, now)
	w.metrics.MessageAnalyzed(string(cmd.Intent))

	reply := w.responder.Respond(dialog.Input{
		Intent:    cmd.Intent,
		Sentiment: cmd.Sentiment,
		Entities:  cmd.Entities,
		Context:   w.contexts.ContextString(msg.Phone),
		Language:  cmd.Language,
	})
	w.contexts.Append(msg.Phone, msg.Text)

	return event.MessageAnalyzed{
		Message:  msg,
		Origin:   job.Origin,
		Command:  cmd,
		Reply:    reply,
		Timezone: pref.Timezone,
		At:       time.Now().UTC(),
	}
}
