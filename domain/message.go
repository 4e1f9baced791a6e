// Package domain contains core concepts of the assistant.
// This file defines inbound Message records.
// Raw messages are immutable once received; analysis results are attached later.
package domain

import (
	"remind-lab/domain/mimetypes"
	"time"

	"github.com/google/uuid"
)

// Attachment is a reference to media sent along with a message.
type Attachment struct {
	URL  string
	MIME mimetypes.MIME
	Kind mimetypes.Kind
}

// RawMessage represents an inbound chat message.
type RawMessage struct {
	ID         uuid.UUID // unique identifier
	Phone      string
	Text       string
	ReceivedAt time.Time
	Attachment *Attachment
}

// StoredMessage is a RawMessage plus the analysis outcome once processed.
type StoredMessage struct {
	RawMessage
	Processed bool
	Intent    Intent
	Sentiment Sentiment
	Language  Language
	Reply     string
}

// Origin tells where a message entered the system. Only messages coming from
// the messaging transport are answered through it.
type Origin string

const (
	FromAPI       Origin = "api"
	FromTransport Origin = "transport"
)

// AnalysisJob asks the worker pool to analyse a stored message.
type AnalysisJob struct {
	Message RawMessage
	Origin  Origin
}
