package sink

import (
	"context"
	"remind-lab/contract"
	"remind-lab/domain"
	"remind-lab/domain/event"
)

type Indexer interface {
	IndexMessage(m domain.RawMessage) error
}

var _ contract.EventSink = SearchSink{}

// SearchSink makes analysed messages searchable by content.
type SearchSink struct {
	indexer Indexer
}

func NewSearchSink(indexer Indexer) SearchSink {
	return SearchSink{indexer: indexer}
}

func (s SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	if evt, ok := e.(event.MessageAnalyzed); ok {
		return s.indexer.IndexMessage(evt.Message)
	}
	return nil
}
