package server

import (
	"context"
	"log/slog"
	"net"
	"remind-lab/messaging"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fixedCounter struct{ n atomic.Int32 }

func (c *fixedCounter) Running() int { return int(c.n.Load()) }

func TestHealthWorker(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	sender := messaging.NewSimulatedSender(log, 1)
	counter := &fixedCounter{}
	counter.n.Store(2)
	worker := NewHealthWorker(sender, counter, time.Hour, log)

	listener := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	worker.Register(s)
	go func() { _ = s.Serve(listener) }()
	defer s.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return listener.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	req.NoError(err)
	defer func() { _ = conn.Close() }()
	client := healthpb.NewHealthClient(conn)
	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		req.NoError(err)
		return res.Status
	}

	// Given nothing refreshed yet, the assistant is not serving
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check(AssistantService))

	worker.Refresh()
	req.Equal(healthpb.HealthCheckResponse_SERVING, check(AssistantService))
	req.Equal(healthpb.HealthCheckResponse_SERVING, check(""))

	sender.SetReady(false, "session closed")
	worker.Refresh()
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check(AssistantService))

	sender.SetReady(true, "")
	counter.n.Store(0)
	worker.Refresh()
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check(""))

	// Then a stopped worker leaves the server not serving
	counter.n.Store(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()
	req.Eventually(func() bool { return check(AssistantService) == healthpb.HealthCheckResponse_SERVING }, time.Second, 10*time.Millisecond)
	cancel()
	req.NoError(<-done)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check(AssistantService))
}
