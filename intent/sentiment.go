package intent

import (
	"remind-lab/domain"
	"remind-lab/lexicon"
)

// SentimentScorer counts whole-word positive and negative cues.
type SentimentScorer struct {
	table *lexicon.Table
}

func NewSentimentScorer(table *lexicon.Table) *SentimentScorer {
	return &SentimentScorer{table: table}
}

func (s *SentimentScorer) Score(text string) domain.Sentiment {
	pos := len(s.table.Positive.FindWords(text))
	neg := len(s.table.Negative.FindWords(text))
	switch {
	case pos > neg:
		return domain.Positive
	case neg > pos:
		return domain.Negative
	default:
		return domain.Neutral
	}
}
