package messaging

import (
	"context"
	"log/slog"
	"remind-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatedSender(t *testing.T) {
	req := require.New(t)
	sender := NewSimulatedSender(slog.New(slog.DiscardHandler), 2)
	ctx := context.Background()

	req.Equal(Status{Ready: true}, sender.Status())
	for _, text := range []string{"uno", "dos", "tres"} {
		req.NoError(sender.Send(ctx, "+34600000001", text))
	}
	sent := sender.Sent()
	req.Len(sent, 2)
	req.Equal("dos", sent[0].Text)
	req.Equal("tres", sent[1].Text)

	sender.SetReady(false, "session closed")
	req.Equal(Status{Ready: false, Error: "session closed"}, sender.Status())
	req.ErrorIs(sender.Send(ctx, "+34600000001", "cuatro"), errors.ErrSenderNotReady)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	sender.SetReady(true, "")
	req.ErrorIs(sender.Send(cancelled, "+34600000001", "cinco"), context.Canceled)
}
