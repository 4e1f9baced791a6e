package domain

import (
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// Recurrence is a frequency plus an optional inclusive end date.
type Recurrence struct {
	Frequency Frequency
	EndDate   *time.Time
}

// Entities are the optional fields extracted from a message.
// A nil pointer or empty string means the pattern did not match.
type Entities struct {
	Task       string
	DateTime   *time.Time
	Recurrence *Recurrence
	Priority   Priority
	Category   string
	Calendar   string
	QueryType  string
}

// Command is the structured result of analysing one message.
// It is produced once and never mutated afterwards.
type Command struct {
	Intent    Intent
	Sentiment Sentiment
	Language  Language
	Entities  Entities
}

// TaskOr returns the extracted task or the given fallback label.
func (c Command) TaskOr(fallback string) string {
	if c.Entities.Task == "" {
		return fallback
	}
	return c.Entities.Task
}
