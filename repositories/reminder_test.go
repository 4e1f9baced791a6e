package repositories

import (
	"remind-lab/domain"
	"remind-lab/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newReminder(phone string, at time.Time) domain.Reminder {
	return domain.Reminder{
		ID:              uuid.New(),
		Phone:           phone,
		Title:           "llamar al dentista",
		FirstOccurrence: at,
		Occurrence:      at,
		Priority:        domain.Medium,
		Timezone:        "Europe/Madrid",
		CreatedAt:       time.Now().UTC(),
	}
}

func TestReminderRepository_RoundTrip(t *testing.T) {
	req := require.New(t)
	repository := NewReminderRepository(openDB(t), discard())
	madrid, err := time.LoadLocation("Europe/Madrid")
	req.NoError(err)

	end := time.Date(2025, time.December, 31, 0, 0, 0, 0, madrid)
	reminder := newReminder("+34600000001", time.Date(2025, time.June, 4, 15, 0, 0, 0, madrid))
	reminder.Recurrence = &domain.Recurrence{Frequency: domain.Weekly, EndDate: &end}
	reminder.SharedWith = []string{"+34600000002"}
	req.NoError(repository.Create(reminder))

	got, err := repository.Get(reminder.ID)
	req.NoError(err)
	req.True(reminder.Occurrence.Equal(got.Occurrence))
	req.Equal(madrid.String(), got.Occurrence.Location().String())
	req.Equal(domain.Weekly, got.Recurrence.Frequency)
	req.True(end.Equal(*got.Recurrence.EndDate))
	req.Equal([]string{"+34600000002"}, got.SharedWith)

	_, err = repository.Get(uuid.New())
	req.ErrorIs(err, errors.ErrReminderNotFound)
}

func TestReminderRepository_ListByPhoneAndActive(t *testing.T) {
	req := require.New(t)
	repository := NewReminderRepository(openDB(t), discard())
	at := time.Date(2025, time.June, 4, 15, 0, 0, 0, time.UTC)

	first := newReminder("+34600000001", at)
	second := newReminder("+34600000001", at.Add(time.Hour))
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := newReminder("+34600000002", at)
	for _, r := range []domain.Reminder{first, second, other} {
		req.NoError(repository.Create(r))
	}

	byPhone, err := repository.ListByPhone("+34600000001")
	req.NoError(err)
	req.Len(byPhone, 2)
	req.Equal(first.ID, byPhone[0].ID)
	req.Equal(second.ID, byPhone[1].ID)

	other.CreatedAt = second.CreatedAt.Add(time.Second)
	req.NoError(repository.Create(other))
	all, err := repository.ListAll()
	req.NoError(err)
	req.Len(all, 3)
	req.Equal([]uuid.UUID{first.ID, second.ID, other.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	req.NoError(repository.Complete(first.ID))
	req.NoError(repository.MarkInactive(other.ID))

	active, err := repository.ListActive()
	req.NoError(err)
	req.Len(active, 1)
	req.Equal(second.ID, active[0].ID)
}

func TestReminderRepository_FiredFlagsAndReschedule(t *testing.T) {
	req := require.New(t)
	repository := NewReminderRepository(openDB(t), discard())
	at := time.Date(2025, time.June, 4, 15, 0, 0, 0, time.UTC)
	reminder := newReminder("+34600000001", at)
	reminder.Timezone = "UTC"
	req.NoError(repository.Create(reminder))

	req.NoError(repository.MarkFired(reminder.ID, domain.PreNotice))
	req.NoError(repository.MarkFired(reminder.ID, domain.DueNotice))
	got, err := repository.Get(reminder.ID)
	req.NoError(err)
	req.True(got.FiredPreNotice)
	req.True(got.FiredDue)

	next := at.AddDate(0, 0, 7)
	req.NoError(repository.Reschedule(reminder.ID, next, 1))
	got, err = repository.Get(reminder.ID)
	req.NoError(err)
	req.False(got.FiredPreNotice)
	req.False(got.FiredDue)
	req.Equal(1, got.OccurrenceIndex)
	req.True(next.Equal(got.Occurrence))
	req.True(at.Equal(got.FirstOccurrence))

	req.Error(repository.MarkFired(reminder.ID, "late"))
	req.ErrorIs(repository.MarkInactive(uuid.New()), errors.ErrReminderNotFound)
}

func TestReminderRepository_Share(t *testing.T) {
	req := require.New(t)
	repository := NewReminderRepository(openDB(t), discard())
	reminder := newReminder("+34600000001", time.Now())
	reminder.SharedWith = []string{"+34600000002"}
	req.NoError(repository.Create(reminder))

	updated, err := repository.Share(reminder.ID, []string{"+34600000002", "+34600000003", "+34600000001", ""})
	req.NoError(err)
	req.Equal([]string{"+34600000002", "+34600000003"}, updated.SharedWith)

	got, err := repository.Get(reminder.ID)
	req.NoError(err)
	req.Equal(updated.SharedWith, got.SharedWith)
}
