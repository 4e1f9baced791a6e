package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	PreNotice NotificationKind = "pre"
	DueNotice NotificationKind = "due"
)

// PreNoticeLead is how long before an occurrence the pre-notice fires.
const PreNoticeLead = 30 * time.Minute

// NotificationEvent is the transient record of one fired notification.
// It is never persisted on its own; the fired flags on Reminder carry the state.
type NotificationEvent struct {
	ReminderID uuid.UUID
	Kind       NotificationKind
	FiredAt    time.Time
}

// Reminder is a scheduled (possibly recurring) notification owned by a phone.
// Occurrence is the instant of the current occurrence, OccurrenceIndex counts
// how many occurrences were already consumed since FirstOccurrence.
type Reminder struct {
	ID              uuid.UUID
	Phone           string
	Title           string
	Description     string
	FirstOccurrence time.Time
	Occurrence      time.Time
	OccurrenceIndex int
	Recurrence      *Recurrence
	Priority        Priority
	Category        string
	Completed       bool
	Inactive        bool
	FiredPreNotice  bool
	FiredDue        bool
	SharedWith      []string
	Timezone        string
	AttachmentURL   string
	CreatedAt       time.Time
}

func (r Reminder) IsRecurring() bool {
	return r.Recurrence != nil && r.Recurrence.Frequency.Valid()
}

// Active reports whether the scheduler should still evaluate the reminder.
func (r Reminder) Active() bool {
	return !r.Completed && !r.Inactive
}

func (r Reminder) IsShared() bool {
	return len(r.SharedWith) > 0
}

// Recipients returns the owner followed by every distinct shared recipient.
func (r Reminder) Recipients() []string {
	seen := map[string]struct{}{r.Phone: {}}
	out := []string{r.Phone}
	for _, p := range r.SharedWith {
		if _, ok := seen[p]; ok || p == "" {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// OccurrenceAt returns the n-th occurrence (0 being FirstOccurrence) evaluated
// in loc, so that daily/weekly steps keep the same wall clock across DST.
func (r Reminder) OccurrenceAt(n int, loc *time.Location) time.Time {
	first := r.FirstOccurrence.In(loc)
	if !r.IsRecurring() || n == 0 {
		return first
	}
	return AddFrequency(first, r.Recurrence.Frequency, n)
}

// Next computes the occurrence following the current one and its index.
// Stepping from FirstOccurrence rather than from Occurrence keeps a
// "31st of the month" reminder on the 31st whenever the month allows it.
func (r Reminder) Next(loc *time.Location) (time.Time, int) {
	idx := r.OccurrenceIndex + 1
	return r.OccurrenceAt(idx, loc), idx
}

// AddFrequency adds n units of f to t. Month and year additions clamp to
// the last day of the target month instead of overflowing into the next one.
func AddFrequency(t time.Time, f Frequency, n int) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, n)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonthsClamped(t, n)
	case Yearly:
		return addMonthsClamped(t, 12*n)
	default:
		return t
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	target := time.Month(tm + 1)
	if last := daysIn(ty, target, t.Location()); d > last {
		d = last
	}
	return time.Date(ty, target, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Allows reports whether an occurrence at t is still within the end date.
// The end date is inclusive through the end of its calendar day.
func (r Recurrence) Allows(t time.Time) bool {
	if r.EndDate == nil {
		return true
	}
	end := *r.EndDate
	y, m, d := end.Date()
	limit := time.Date(y, m, d+1, 0, 0, 0, 0, end.Location())
	return t.Before(limit)
}
