// Package search indexes message text in Bluge for full-text lookups.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"remind-lab/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldContent = "content"
	fieldPhone   = "phone"
	fieldAt      = "at"
)

// Index wraps a Bluge writer. Documents are keyed by message id so that
// indexing the same message twice replaces it.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

func (i *Index) IndexMessage(m domain.RawMessage) error {
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewTextField(fieldContent, m.Text)).
		AddField(bluge.NewKeywordField(fieldPhone, m.Phone).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldAt, m.ReceivedAt).StoreValue().Sortable())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", m.ID, err)
	}
	return nil
}

// Search returns the ids of matching messages, newest first. An empty phone
// searches every sender.
func (i *Index) Search(ctx context.Context, phone, text string, limit int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(text).SetField(fieldContent))
	if phone != "" {
		query.AddMust(bluge.NewTermQuery(phone).SetField(fieldPhone))
	}
	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"-" + fieldAt})

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		var id uuid.UUID
		var parseErr error
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id, parseErr = uuid.ParseBytes(value)
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		if parseErr != nil {
			i.log.Warn("Skipping search hit with invalid id", "error", parseErr)
		} else {
			ids = append(ids, id)
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
