package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/analytics"
	"remind-lab/domain/event"
	"remind-lab/errors"
	"remind-lab/messaging"
	"remind-lab/mocks"
	"remind-lab/observability"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]map[analytics.Counter]int
}

func (r *countingRecorder) Incr(_ context.Context, phone string, c analytics.Counter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]map[analytics.Counter]int)
	}
	if r.counts[phone] == nil {
		r.counts[phone] = make(map[analytics.Counter]int)
	}
	r.counts[phone][c]++
	return nil
}

func (r *countingRecorder) get(phone string, c analytics.Counter) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[phone][c]
}

func TestDispatcher_SendsAndRecords(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), "+34600000001", "hola").Return(nil)
	sender.EXPECT().Send(gomock.Any(), "+34600000002", "hola").Return(fmt.Errorf("socket closed"))

	recorder := &countingRecorder{}
	events := make(chan event.DomainEvent, 4)
	dispatcher := NewDispatcher(sender, DispatcherConfig{MaxInFlight: 2, SendTimeout: time.Second}, recorder, nil, slog.New(slog.DiscardHandler)).
		WithEvents(events)

	req.NoError(dispatcher.Dispatch(context.Background(), Notification{Recipient: "+34600000001", Kind: "due", Text: "hola"}))
	req.NoError(dispatcher.Dispatch(context.Background(), Notification{Recipient: "+34600000002", Kind: "due", Text: "hola"}))
	req.NoError(dispatcher.Drain(context.Background()))

	req.Equal(1, recorder.get("+34600000001", analytics.Notified))
	req.Equal(1, recorder.get("+34600000002", analytics.Failed))
	req.Len(events, 2)

	err := dispatcher.Dispatch(context.Background(), Notification{Recipient: "+34600000001", Text: "tarde"})
	req.ErrorIs(err, errors.ErrDispatcherClosed)
}

func TestDispatcher_TimeoutDoesNotBlockCaller(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), "+34600000001", gomock.Any()).DoAndReturn(
		func(ctx context.Context, _, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		})

	reg := prometheus.NewRegistry()
	recorder := &countingRecorder{}
	dispatcher := NewDispatcher(sender, DispatcherConfig{MaxInFlight: 1, SendTimeout: 20 * time.Millisecond},
		recorder, observability.NewMetrics(reg), slog.New(slog.DiscardHandler))

	start := time.Now()
	req.NoError(dispatcher.Dispatch(context.Background(), Notification{Recipient: "+34600000001", Kind: "due", Text: "lento"}))
	req.Less(time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req.NoError(dispatcher.Drain(ctx))
	req.Equal(1, recorder.get("+34600000001", analytics.Failed))

	count, err := testutil.GatherAndCount(reg, "remind_scheduler_notifications_total")
	req.NoError(err)
	req.Equal(1, count)
}

func TestDispatcher_BoundsInFlightSends(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)

	var current, peak atomic.Int32
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(6).DoAndReturn(
		func(context.Context, string, string) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		})

	dispatcher := NewDispatcher(sender, DispatcherConfig{MaxInFlight: 2, SendTimeout: time.Second}, nil, nil, slog.New(slog.DiscardHandler))
	for i := range 6 {
		req.NoError(dispatcher.Dispatch(context.Background(), Notification{Recipient: fmt.Sprintf("+3460000000%d", i), Kind: "due"}))
	}
	req.NoError(dispatcher.Drain(context.Background()))
	req.LessOrEqual(peak.Load(), int32(2))
}

func TestDispatcher_DrainGivesUpWithContext(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	release := make(chan struct{})
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, string) error {
			<-release
			return nil
		})

	dispatcher := NewDispatcher(sender, DispatcherConfig{MaxInFlight: 1}, nil, nil, slog.New(slog.DiscardHandler))
	req.NoError(dispatcher.Dispatch(context.Background(), Notification{Recipient: "+34600000001"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req.ErrorIs(dispatcher.Drain(ctx), context.DeadlineExceeded)

	close(release)
	req.NoError(dispatcher.Drain(context.Background()))
}

// hungSender never answers; only the send timeout ends a send.
type hungSender struct{}

func (hungSender) Send(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hungSender) Status() messaging.Status { return messaging.Status{Ready: true} }

func TestDispatcher_NeverWaitsForASlot(t *testing.T) {
	req := require.New(t)
	recorder := &countingRecorder{}
	dispatcher := NewDispatcher(hungSender{}, DispatcherConfig{MaxInFlight: 2, MaxPending: 4, SendTimeout: 100 * time.Millisecond},
		recorder, nil, slog.New(slog.DiscardHandler))

	start := time.Now()
	var dropped int
	for i := range 6 {
		err := dispatcher.Dispatch(context.Background(), Notification{Recipient: fmt.Sprintf("+3460000000%d", i), Kind: "due"})
		if err != nil {
			req.ErrorIs(err, errors.ErrDispatchBacklogFull)
			dropped++
		}
	}
	req.Less(time.Since(start), 50*time.Millisecond)
	req.Equal(2, dropped)
	req.Equal(4, dispatcher.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(dispatcher.Drain(ctx))
	req.Zero(dispatcher.Pending())
	for i := range 6 {
		req.Equal(1, recorder.get(fmt.Sprintf("+3460000000%d", i), analytics.Failed))
	}
}
