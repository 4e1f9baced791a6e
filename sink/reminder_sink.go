package sink

import (
	"context"
	stderrors "errors"
	"log/slog"
	"remind-lab/contract"
	"remind-lab/domain"
	"remind-lab/domain/event"
	"remind-lab/errors"
)

// ReminderCreator turns a reminder command into a stored reminder.
type ReminderCreator interface {
	CreateFromCommand(ctx context.Context, msg domain.RawMessage, cmd domain.Command, timezone string) (domain.Reminder, error)
}

var _ contract.EventSink = ReminderSink{}

// ReminderSink persists the reminders asked for in chat. A reminder message
// without a date stays a plain message: the reply already asks for the time.
type ReminderSink struct {
	creator ReminderCreator
	log     *slog.Logger
}

func NewReminderSink(creator ReminderCreator, log *slog.Logger) ReminderSink {
	return ReminderSink{creator: creator, log: log}
}

func (r ReminderSink) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageAnalyzed)
	if !ok || !evt.Command.Intent.IsReminder() {
		return nil
	}
	reminder, err := r.creator.CreateFromCommand(ctx, evt.Message, evt.Command, evt.Timezone)
	if stderrors.Is(err, errors.ErrMissingDateTime) {
		r.log.Debug("Reminder message without date", "message", evt.Message.ID)
		return nil
	}
	if err != nil {
		return err
	}
	r.log.Info("Reminder created from message", "id", reminder.ID, "message", evt.Message.ID)
	return nil
}
