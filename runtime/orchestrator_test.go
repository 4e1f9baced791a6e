package runtime_test

import (
	"context"
	"log/slog"
	"remind-lab/analyzer"
	"remind-lab/dialog"
	"remind-lab/domain"
	"remind-lab/domain/event"
	"remind-lab/lexicon"
	"remind-lab/repositories"
	"remind-lab/runtime"
	"remind-lab/runtime/workers"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) snapshot() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func newOrchestrator(t *testing.T, bufferSize int) (*runtime.Orchestrator, *repositories.PreferenceRepository) {
	t.Helper()
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	set, err := lexicon.Default(domain.Spanish)
	req.NoError(err)
	contexts, err := dialog.NewContextStore(16, 500)
	req.NoError(err)
	preferences := repositories.NewPreferenceRepository(db, log)

	pipeline := runtime.Pipeline{
		Analyzer:    analyzer.New(set, log),
		Responder:   dialog.NewResponder(set, dialog.FixedSelector(0)),
		Contexts:    contexts,
		Preferences: preferences,
	}
	cfg := runtime.Config{NumWorkers: 2, BufferSize: bufferSize, SinkTimeout: time.Second}
	return runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), pipeline, nil, cfg), preferences
}

func Test_Orchestrator_dispatches_analysis_events_to_sinks(t *testing.T) {
	req := require.New(t)
	orchestrator, preferences := newOrchestrator(t, 8)
	req.NoError(preferences.Upsert(domain.UserPreference{Phone: "+34600000001", Timezone: "Europe/Madrid"}))

	sink := &recordingSink{}
	orchestrator.RegisterSinks(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()

	msg := domain.RawMessage{
		ID:         uuid.New(),
		Phone:      "+34600000001",
		Text:       "recuérdame mañana a las 9 llamar al dentista",
		ReceivedAt: time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC),
	}
	req.True(orchestrator.Dispatch(domain.AnalysisJob{Message: msg, Origin: domain.FromTransport}))

	req.Eventually(func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	analyzed, ok := sink.snapshot()[0].(event.MessageAnalyzed)
	req.True(ok)
	req.Equal(msg.ID, analyzed.Message.ID)
	req.Equal(domain.FromTransport, analyzed.Origin)
	req.Equal(domain.IntentReminder, analyzed.Command.Intent)
	req.Equal("Europe/Madrid", analyzed.Timezone)
	req.Equal("2025-06-05 09:00", analyzed.Command.Entities.DateTime.Format("2006-01-02 15:04"))
	req.NotEmpty(analyzed.Reply)

	// Then the telemetry worker projected the event on the timeline
	req.Eventually(func() bool { return len(orchestrator.Timeline().Recent(10)) == 1 }, 2*time.Second, 10*time.Millisecond)
	req.GreaterOrEqual(orchestrator.Running(), 4)

	orchestrator.Stop()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("Orchestrator should have stopped")
	}
}

func Test_Orchestrator_drops_jobs_when_queue_is_full(t *testing.T) {
	req := require.New(t)
	orchestrator, _ := newOrchestrator(t, 1)

	// Given no worker consuming the queue
	job := domain.AnalysisJob{Message: domain.RawMessage{ID: uuid.New(), Phone: "+34600000001", Text: "hola"}}
	req.True(orchestrator.Dispatch(job))
	req.False(orchestrator.Dispatch(job))

	for _, c := range orchestrator.Channels() {
		if c.Name == "jobs" {
			req.Len(c.Channel.(chan domain.AnalysisJob), 1)
		}
	}
}
