package search

import (
	"context"
	"log/slog"
	"remind-lab/domain"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIndex_Search(t *testing.T) {
	req := require.New(t)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	defer func() { _ = writer.Close() }()

	index := NewIndex(writer, slog.New(slog.DiscardHandler))
	at := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	older := domain.RawMessage{ID: uuid.New(), Phone: "+34600000001", Text: "recuérdame llamar al dentista", ReceivedAt: at}
	newer := domain.RawMessage{ID: uuid.New(), Phone: "+34600000001", Text: "el dentista cambió la cita", ReceivedAt: at.Add(time.Hour)}
	other := domain.RawMessage{ID: uuid.New(), Phone: "+34600000002", Text: "mi dentista es genial", ReceivedAt: at}
	for _, m := range []domain.RawMessage{older, newer, other} {
		req.NoError(index.IndexMessage(m))
	}

	ids, err := index.Search(context.Background(), "+34600000001", "dentista", 10)
	req.NoError(err)
	req.Equal([]uuid.UUID{newer.ID, older.ID}, ids)

	ids, err = index.Search(context.Background(), "", "dentista", 10)
	req.NoError(err)
	req.Len(ids, 3)

	ids, err = index.Search(context.Background(), "", "basura", 10)
	req.NoError(err)
	req.Empty(ids)

	// Re-indexing replaces the document.
	req.NoError(index.IndexMessage(older))
	ids, err = index.Search(context.Background(), "+34600000001", "dentista", 10)
	req.NoError(err)
	req.Len(ids, 2)
}
