package repositories

import (
	"fmt"
	"log/slog"
	"remind-lab/domain"
	"remind-lab/errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IReminderRepository interface {
	Create(reminder domain.Reminder) error
	Get(id uuid.UUID) (domain.Reminder, error)
	ListByPhone(phone string) ([]domain.Reminder, error)
	ListAll() ([]domain.Reminder, error)
	ListActive() ([]domain.Reminder, error)
	MarkFired(id uuid.UUID, kind domain.NotificationKind) error
	Reschedule(id uuid.UUID, next time.Time, index int) error
	MarkInactive(id uuid.UUID) error
	Complete(id uuid.UUID) error
	Share(id uuid.UUID, phones []string) (domain.Reminder, error)
}

type ReminderRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewReminderRepository(db *badger.DB, log *slog.Logger) *ReminderRepository {
	return &ReminderRepository{db: db, log: log}
}

type diskRecurrence struct {
	Frequency domain.Frequency `json:"frequency"`
	EndDate   *int64           `json:"end_date,omitempty"`
}

type diskReminder struct {
	ID              string          `json:"id"`
	Phone           string          `json:"phone"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	FirstOccurrence int64           `json:"first_occurrence"`
	Occurrence      int64           `json:"occurrence"`
	OccurrenceIndex int             `json:"occurrence_index"`
	Recurrence      *diskRecurrence `json:"recurrence,omitempty"`
	Priority        domain.Priority `json:"priority,omitempty"`
	Category        string          `json:"category,omitempty"`
	Completed       bool            `json:"completed"`
	Inactive        bool            `json:"inactive"`
	FiredPreNotice  bool            `json:"fired_pre_notice"`
	FiredDue        bool            `json:"fired_due"`
	SharedWith      []string        `json:"shared_with,omitempty"`
	Timezone        string          `json:"timezone"`
	AttachmentURL   string          `json:"attachment_url,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

// Reminders live under "reminder:{uuid}". A second key
// "reminder_phone:{phone}:{created_at_padded}:{uuid}" lets a phone list its
// reminders in creation order without a full scan.
func reminderKey(id uuid.UUID) string {
	return fmt.Sprintf("reminder:%s", id)
}

func reminderPhoneKey(r domain.Reminder) string {
	return fmt.Sprintf("reminder_phone:%s:%019d:%s", r.Phone, r.CreatedAt.UnixNano(), r.ID)
}

func (r ReminderRepository) Create(reminder domain.Reminder) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := writeJSON(txn, reminderKey(reminder.ID), fromReminder(reminder)); err != nil {
			return err
		}
		return txn.Set([]byte(reminderPhoneKey(reminder)), []byte(reminder.ID.String()))
	})
}

func (r ReminderRepository) Get(id uuid.UUID) (domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		reminder, err = getReminder(txn, id)
		return err
	})
	return reminder, err
}

func (r ReminderRepository) ListByPhone(phone string) ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []uuid.UUID
		err := scanPrefix(txn, fmt.Sprintf("reminder_phone:%s:", phone), false, func(_, val []byte) (bool, error) {
			id, err := uuid.ParseBytes(val)
			if err != nil {
				return false, err
			}
			ids = append(ids, id)
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			reminder, err := getReminder(txn, id)
			if err != nil {
				return err
			}
			reminders = append(reminders, reminder)
		}
		return nil
	})
	return reminders, err
}

// ListAll returns every stored reminder, oldest first.
func (r ReminderRepository) ListAll() ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, "reminder:", false, func(_, val []byte) (bool, error) {
			reminder, err := decodeReminder(val)
			if err != nil {
				return false, err
			}
			reminders = append(reminders, reminder)
			return true, nil
		})
	})
	slices.SortStableFunc(reminders, func(a, b domain.Reminder) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return reminders, err
}

// ListActive returns every reminder that is neither completed nor inactive.
func (r ReminderRepository) ListActive() ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, "reminder:", false, func(_, val []byte) (bool, error) {
			reminder, err := decodeReminder(val)
			if err != nil {
				return false, err
			}
			if reminder.Active() {
				reminders = append(reminders, reminder)
			}
			return true, nil
		})
	})
	return reminders, err
}

func (r ReminderRepository) MarkFired(id uuid.UUID, kind domain.NotificationKind) error {
	return r.mutate(id, func(reminder *domain.Reminder) error {
		switch kind {
		case domain.PreNotice:
			reminder.FiredPreNotice = true
		case domain.DueNotice:
			reminder.FiredDue = true
		default:
			return fmt.Errorf("unknown notification kind %q", kind)
		}
		return nil
	})
}

// Reschedule moves the reminder to a new occurrence and resets its fired flags.
func (r ReminderRepository) Reschedule(id uuid.UUID, next time.Time, index int) error {
	return r.mutate(id, func(reminder *domain.Reminder) error {
		reminder.Occurrence = next
		reminder.OccurrenceIndex = index
		reminder.FiredPreNotice = false
		reminder.FiredDue = false
		return nil
	})
}

func (r ReminderRepository) MarkInactive(id uuid.UUID) error {
	return r.mutate(id, func(reminder *domain.Reminder) error {
		reminder.Inactive = true
		return nil
	})
}

func (r ReminderRepository) Complete(id uuid.UUID) error {
	return r.mutate(id, func(reminder *domain.Reminder) error {
		reminder.Completed = true
		return nil
	})
}

// Share adds recipients to the reminder, ignoring the owner and duplicates.
func (r ReminderRepository) Share(id uuid.UUID, phones []string) (domain.Reminder, error) {
	var updated domain.Reminder
	err := r.mutate(id, func(reminder *domain.Reminder) error {
		merged := lo.Uniq(append(reminder.SharedWith, phones...))
		reminder.SharedWith = lo.Filter(merged, func(p string, _ int) bool {
			return p != "" && p != reminder.Phone
		})
		updated = *reminder
		return nil
	})
	return updated, err
}

func (r ReminderRepository) mutate(id uuid.UUID, fn func(*domain.Reminder) error) error {
	return r.db.Update(func(txn *badger.Txn) error {
		reminder, err := getReminder(txn, id)
		if err != nil {
			return err
		}
		if err := fn(&reminder); err != nil {
			return err
		}
		return writeJSON(txn, reminderKey(id), fromReminder(reminder))
	})
}

func getReminder(txn *badger.Txn, id uuid.UUID) (domain.Reminder, error) {
	var disk diskReminder
	found, err := readJSON(txn, reminderKey(id), &disk)
	if err != nil {
		return domain.Reminder{}, err
	}
	if !found {
		return domain.Reminder{}, fmt.Errorf("%w: %s", errors.ErrReminderNotFound, id)
	}
	return toReminder(disk)
}

func decodeReminder(val []byte) (domain.Reminder, error) {
	var disk diskReminder
	if err := unmarshal(val, &disk); err != nil {
		return domain.Reminder{}, err
	}
	return toReminder(disk)
}

func fromReminder(r domain.Reminder) diskReminder {
	disk := diskReminder{
		ID:              r.ID.String(),
		Phone:           r.Phone,
		Title:           r.Title,
		Description:     r.Description,
		FirstOccurrence: r.FirstOccurrence.UnixNano(),
		Occurrence:      r.Occurrence.UnixNano(),
		OccurrenceIndex: r.OccurrenceIndex,
		Priority:        r.Priority,
		Category:        r.Category,
		Completed:       r.Completed,
		Inactive:        r.Inactive,
		FiredPreNotice:  r.FiredPreNotice,
		FiredDue:        r.FiredDue,
		SharedWith:      r.SharedWith,
		Timezone:        r.Timezone,
		AttachmentURL:   r.AttachmentURL,
		CreatedAt:       r.CreatedAt.UnixNano(),
	}
	if r.Recurrence != nil {
		disk.Recurrence = &diskRecurrence{Frequency: r.Recurrence.Frequency}
		if r.Recurrence.EndDate != nil {
			disk.Recurrence.EndDate = lo.ToPtr(r.Recurrence.EndDate.UnixNano())
		}
	}
	return disk
}

// toReminder restores instants in the reminder's own timezone.
func toReminder(disk diskReminder) (domain.Reminder, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Reminder{}, err
	}
	loc := domain.LoadLocation(disk.Timezone)
	at := func(n int64) time.Time { return time.Unix(0, n).In(loc) }

	reminder := domain.Reminder{
		ID:              id,
		Phone:           disk.Phone,
		Title:           disk.Title,
		Description:     disk.Description,
		FirstOccurrence: at(disk.FirstOccurrence),
		Occurrence:      at(disk.Occurrence),
		OccurrenceIndex: disk.OccurrenceIndex,
		Priority:        disk.Priority,
		Category:        disk.Category,
		Completed:       disk.Completed,
		Inactive:        disk.Inactive,
		FiredPreNotice:  disk.FiredPreNotice,
		FiredDue:        disk.FiredDue,
		SharedWith:      disk.SharedWith,
		Timezone:        disk.Timezone,
		AttachmentURL:   disk.AttachmentURL,
		CreatedAt:       time.Unix(0, disk.CreatedAt).UTC(),
	}
	if disk.Recurrence != nil {
		reminder.Recurrence = &domain.Recurrence{Frequency: disk.Recurrence.Frequency}
		if disk.Recurrence.EndDate != nil {
			reminder.Recurrence.EndDate = lo.ToPtr(at(*disk.Recurrence.EndDate))
		}
	}
	return reminder, nil
}
