// Package runtime handles job intake, event propagation and worker lifecycles.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/analyzer"
	"remind-lab/contract"
	"remind-lab/dialog"
	"remind-lab/domain"
	"remind-lab/domain/event"
	"remind-lab/observability"
	"remind-lab/projection"
	"remind-lab/repositories"
	"remind-lab/runtime/workers"
	"sync"
	"time"
)

type Config struct {
	NumWorkers   int
	BufferSize   int
	SinkTimeout  time.Duration
	TimelineSize int
}

// Pipeline is what an analysis worker needs to turn a message into a command
// and a reply.
type Pipeline struct {
	Analyzer    *analyzer.Analyzer
	Responder   *dialog.Responder
	Contexts    *dialog.ContextStore
	Preferences repositories.IPreferenceRepository
}

type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	cfg             Config
	pipeline        Pipeline
	metrics         *observability.Metrics
	supervisor      *workers.Supervisor
	permanentSinks  []contract.EventSink
	extraWorkers    []contract.Worker
	timeline        *projection.Timeline
	jobs            chan domain.AnalysisJob
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.DomainEvent
	started         bool
}

var _ contract.IOrchestrator = (*Orchestrator)(nil)

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor, pipeline Pipeline, metrics *observability.Metrics, cfg Config) *Orchestrator {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.TimelineSize <= 0 {
		cfg.TimelineSize = 100
	}
	o := &Orchestrator{
		log:             log,
		cfg:             cfg,
		pipeline:        pipeline,
		metrics:         metrics,
		supervisor:      supervisor,
		timeline:        projection.NewTimeline(cfg.TimelineSize),
		jobs:            make(chan domain.AnalysisJob, cfg.BufferSize),
		domainEvents:    make(chan event.DomainEvent, cfg.BufferSize),
		telemetryEvents: make(chan event.DomainEvent, cfg.BufferSize),
	}
	supervisor.WithTelemetry(o.telemetryEvents)
	return o
}

// RegisterSinks adds consumers of analysis events. Sinks registered after
// Start are ignored.
func (o *Orchestrator) RegisterSinks(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// RegisterWorkers adds long running workers (scheduler, monitor) supervised
// alongside the analysis pool.
func (o *Orchestrator) RegisterWorkers(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, workers...)
}

// Dispatch never blocks: when the queue is full the job is dropped.
func (o *Orchestrator) Dispatch(job domain.AnalysisJob) bool {
	select {
	case o.jobs <- job:
		return true
	default:
		o.metrics.CommandDropped()
		o.log.Warn("Analysis queue full, dropping command", "message", job.Message.ID, "phone", job.Message.Phone)
		return false
	}
}

// Telemetry is where notification and restart events are published.
func (o *Orchestrator) Telemetry() chan<- event.DomainEvent {
	return o.telemetryEvents
}

func (o *Orchestrator) Timeline() *projection.Timeline {
	return o.timeline
}

// Running is the number of supervised workers currently alive.
func (o *Orchestrator) Running() int {
	return o.supervisor.Running()
}

// Channels exposes the internal queues to the monitor.
func (o *Orchestrator) Channels() []observability.NamedChannel {
	return []observability.NamedChannel{
		{Name: "jobs", Channel: o.jobs},
		{Name: "domain_events", Channel: o.domainEvents},
		{Name: "telemetry_events", Channel: o.telemetryEvents},
	}
}

// Start prepares the workers and then runs the supervisor. It blocks until
// the context is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	// Preparation happens before taking the lock.
	poolWorkers := o.preparePoolWorkers()

	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true
	fanout := workers.NewEventFanout(o.log, o.permanentSinks, o.domainEvents, o.telemetryEvents, o.cfg.SinkTimeout, o.metrics)
	telemetry := workers.NewTelemetryWorker(o.log, o.telemetryEvents, o.timeline)

	o.supervisor.Add(fanout, telemetry)
	o.supervisor.Add(poolWorkers...)
	o.supervisor.Add(o.extraWorkers...)
	sinks := len(o.permanentSinks)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers",
		"pool", len(poolWorkers), "sinks", sinks, "workers", len(o.extraWorkers))
	o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) preparePoolWorkers() []contract.Worker {
	var res []contract.Worker
	for i := 0; i < o.cfg.NumWorkers; i++ {
		res = append(res, workers.NewPoolUnitWorker(
			o.pipeline.Analyzer,
			o.pipeline.Responder,
			o.pipeline.Contexts,
			o.pipeline.Preferences,
			o.jobs,
			o.domainEvents,
			o.metrics,
			o.log,
		))
	}
	return res
}

// Stop cancels the supervised context. Buffered jobs that were not picked up
// are lost; their messages stay stored as unprocessed.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
