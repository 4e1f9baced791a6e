// Package server holds the gRPC surface of the assistant: the standard
// health service, kept in line with the runtime state.
package server

import (
	"context"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/messaging"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AssistantService is the service name probes can ask about; the empty name
// reports the same status for the whole server.
const AssistantService = "remind.Assistant"

type WorkerCounter interface {
	Running() int
}

// HealthWorker refreshes the health status on every interval. The assistant is
// serving while the sender is ready and at least one worker runs.
type HealthWorker struct {
	health   *health.Server
	sender   messaging.Sender
	workers  WorkerCounter
	interval time.Duration
	log      *slog.Logger
	last     healthpb.HealthCheckResponse_ServingStatus
}

var _ contract.Worker = (*HealthWorker)(nil)

func NewHealthWorker(sender messaging.Sender, workers WorkerCounter, interval time.Duration, log *slog.Logger) *HealthWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h := health.NewServer()
	h.SetServingStatus(AssistantService, healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthWorker{
		health:   h,
		sender:   sender,
		workers:  workers,
		interval: interval,
		log:      log,
		last:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
}

// Register exposes the health service on s.
func (w *HealthWorker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, w.health)
}

func (w *HealthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.Refresh()
	for {
		select {
		case <-ctx.Done():
			w.health.Shutdown()
			return nil
		case <-ticker.C:
			w.Refresh()
		}
	}
}

func (w *HealthWorker) Refresh() {
	status := healthpb.HealthCheckResponse_SERVING
	sender := w.sender.Status()
	if !sender.Ready || w.workers.Running() == 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if status != w.last {
		w.log.Info("Health status changed", "from", w.last, "to", status, "sender_error", sender.Error)
		w.last = status
	}
	w.health.SetServingStatus(AssistantService, status)
	w.health.SetServingStatus("", status)
}
