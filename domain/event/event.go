package event

import (
	"remind-lab/domain"
	"time"
)

// DomainEvent is anything produced by the analysis pipeline and consumed by sinks.
type DomainEvent interface {
	Sender() string
}

// MessageAnalyzed carries the command derived from a message and the reply
// built for it. Timezone is the sender's, used to anchor extracted dates.
type MessageAnalyzed struct {
	Message  domain.RawMessage
	Origin   domain.Origin
	Command  domain.Command
	Reply    string
	Timezone string
	At       time.Time
}

func (m MessageAnalyzed) Sender() string { return m.Message.Phone }

// NotificationSent is published by the dispatcher once a send settles.
type NotificationSent struct {
	Recipient string
	Kind      string
	Delivered bool
	At        time.Time
}

func (n NotificationSent) Sender() string { return n.Recipient }

// WorkerRestarted is published by the supervisor after a worker crashed.
type WorkerRestarted struct {
	WorkerName string
	Reason     string
	At         time.Time
}

func (w WorkerRestarted) Sender() string { return w.WorkerName }
