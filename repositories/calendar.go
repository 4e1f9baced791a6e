package repositories

import (
	"fmt"
	"log/slog"
	"remind-lab/domain"
	"remind-lab/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type ICalendarRepository interface {
	CreateCalendar(calendar domain.Calendar) error
	GetCalendar(id uuid.UUID) (domain.Calendar, error)
	ListCalendars(phone string) ([]domain.Calendar, error)
	StoreEvent(event domain.CalendarEvent) error
	ListEvents(calendarID uuid.UUID) ([]domain.CalendarEvent, error)
}

type CalendarRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCalendarRepository(db *badger.DB, log *slog.Logger) *CalendarRepository {
	return &CalendarRepository{db: db, log: log}
}

type diskCalendar struct {
	ID                 string              `json:"id"`
	Phone              string              `json:"phone"`
	Type               domain.CalendarType `json:"type"`
	Name               string              `json:"name"`
	SealedAccessToken  []byte              `json:"sealed_access_token,omitempty"`
	SealedRefreshToken []byte              `json:"sealed_refresh_token,omitempty"`
	ExpiresAt          *time.Time          `json:"expires_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

type diskEvent struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendar_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	SharedWith  []string  `json:"shared_with,omitempty"`
}

// Calendars are keyed "calendar:{phone}:{uuid}" with a "calendar_id:{uuid}"
// pointer; events "event:{calendar}:{start_padded}:{uuid}" so that a prefix
// scan returns them by start time.
func (c CalendarRepository) CreateCalendar(calendar domain.Calendar) error {
	key := fmt.Sprintf("calendar:%s:%s", calendar.Phone, calendar.ID)
	disk := diskCalendar{
		ID:                 calendar.ID.String(),
		Phone:              calendar.Phone,
		Type:               calendar.Type,
		Name:               calendar.Name,
		SealedAccessToken:  calendar.SealedAccessToken,
		SealedRefreshToken: calendar.SealedRefreshToken,
		ExpiresAt:          calendar.ExpiresAt,
		CreatedAt:          calendar.CreatedAt,
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := writeJSON(txn, key, disk); err != nil {
			return err
		}
		return txn.Set([]byte(fmt.Sprintf("calendar_id:%s", calendar.ID)), []byte(key))
	})
}

func (c CalendarRepository) GetCalendar(id uuid.UUID) (domain.Calendar, error) {
	var calendar domain.Calendar
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("calendar_id:%s", id)))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", errors.ErrCalendarNotFound, id)
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		var disk diskCalendar
		if _, err := readJSON(txn, string(key), &disk); err != nil {
			return err
		}
		calendar, err = toCalendar(disk)
		return err
	})
	return calendar, err
}

func (c CalendarRepository) ListCalendars(phone string) ([]domain.Calendar, error) {
	var calendars []domain.Calendar
	err := c.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, fmt.Sprintf("calendar:%s:", phone), false, func(_, val []byte) (bool, error) {
			var disk diskCalendar
			if err := unmarshal(val, &disk); err != nil {
				return false, err
			}
			calendar, err := toCalendar(disk)
			if err != nil {
				return false, err
			}
			calendars = append(calendars, calendar)
			return true, nil
		})
	})
	return calendars, err
}

func (c CalendarRepository) StoreEvent(event domain.CalendarEvent) error {
	key := fmt.Sprintf("event:%s:%019d:%s", event.CalendarID, event.Start.UnixNano(), event.ID)
	disk := diskEvent{
		ID:          event.ID.String(),
		CalendarID:  event.CalendarID.String(),
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start,
		End:         event.End,
		Location:    event.Location,
		SharedWith:  event.SharedWith,
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return writeJSON(txn, key, disk)
	})
}

func (c CalendarRepository) ListEvents(calendarID uuid.UUID) ([]domain.CalendarEvent, error) {
	var events []domain.CalendarEvent
	err := c.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, fmt.Sprintf("event:%s:", calendarID), false, func(_, val []byte) (bool, error) {
			var disk diskEvent
			if err := unmarshal(val, &disk); err != nil {
				return false, err
			}
			id, err := uuid.Parse(disk.ID)
			if err != nil {
				return false, err
			}
			events = append(events, domain.CalendarEvent{
				ID:          id,
				CalendarID:  calendarID,
				Title:       disk.Title,
				Description: disk.Description,
				Start:       disk.Start,
				End:         disk.End,
				Location:    disk.Location,
				SharedWith:  disk.SharedWith,
			})
			return true, nil
		})
	})
	return events, err
}

func toCalendar(disk diskCalendar) (domain.Calendar, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Calendar{}, err
	}
	return domain.Calendar{
		ID:                 id,
		Phone:              disk.Phone,
		Type:               disk.Type,
		Name:               disk.Name,
		SealedAccessToken:  disk.SealedAccessToken,
		SealedRefreshToken: disk.SealedRefreshToken,
		ExpiresAt:          disk.ExpiresAt,
		CreatedAt:          disk.CreatedAt,
	}, nil
}
