package analytics

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"remind-lab/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "analytics.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Counters(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	empty, err := s.Get(ctx, "+34600000001")
	req.NoError(err)
	req.Equal(domain.Analytics{Phone: "+34600000001"}, empty)

	for _, c := range []Counter{Messages, Messages, Reminders, Notified, Failed, Completed} {
		req.NoError(s.Incr(ctx, "+34600000001", c))
	}
	req.NoError(s.Incr(ctx, "+34600000002", Messages))

	got, err := s.Get(ctx, "+34600000001")
	req.NoError(err)
	req.Equal(domain.Analytics{Phone: "+34600000001", Messages: 2, Reminders: 1, Completed: 1, Notified: 1, Failed: 1}, got)

	all, err := s.List(ctx)
	req.NoError(err)
	req.Len(all, 2)
	req.Equal("+34600000001", all[0].Phone)

	req.Error(s.Incr(ctx, "+34600000001", "messages = 0; --"))
}

func TestStore_ConcurrentIncr(t *testing.T) {
	req := require.New(t)
	s := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Incr(ctx, "+34600000001", Messages))
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "+34600000001")
	req.NoError(err)
	req.Equal(int64(20), got.Messages)
}

func TestRetryOp(t *testing.T) {
	cfg := retryConfig{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", nil, 1, false},
		{"transient then success", []error{errors.New("database is locked")}, 2, false},
		{"permanent error", []error{errors.New("no such table")}, 1, true},
		{"transient exhausted", []error{
			errors.New("SQLITE_BUSY"), errors.New("SQLITE_BUSY"), errors.New("SQLITE_BUSY"),
		}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryOp(cfg, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			require.Equal(t, tt.wantCalls, calls)
			require.Equal(t, tt.wantErr, err != nil)
		})
	}
}
