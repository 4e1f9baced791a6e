package workers

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain/event"
	"remind-lab/errors"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultRestartInterval = 200 * time.Millisecond

// Supervisor runs each worker in its own goroutine, recovers its panics and
// restarts it after the restart interval. A worker returning nil is done and
// never restarted. Cancelling the parent context stops every worker.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
	telemetry       chan<- event.DomainEvent
	running         atomic.Int32
}

var _ contract.ISupervisor = (*Supervisor)(nil)

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = DefaultRestartInterval
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// WithTelemetry publishes a WorkerRestarted event on every restart.
func (s *Supervisor) WithTelemetry(telemetry chan<- event.DomainEvent) *Supervisor {
	s.telemetry = telemetry
	return s
}

// Run blocks until every worker is done. Calling Cancel only stops the
// workers of this supervisor, not the parent context.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Running is the number of workers currently supervised.
func (s *Supervisor) Running() int {
	return int(s.running.Load())
}

// Start runs a worker under supervision. A panic or an error restarts the
// worker without affecting the others.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	s.running.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()
		defer s.running.Add(-1)

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			s.publishRestart(workerName, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

func (s *Supervisor) publishRestart(name string, err error) {
	if s.telemetry == nil {
		return
	}
	select {
	case s.telemetry <- event.WorkerRestarted{WorkerName: name, Reason: err.Error(), At: time.Now().UTC()}:
	default:
	}
}

// Stop cancels every supervised worker. Run returns once they are all done.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
