package domain

import (
	"time"

	"github.com/google/uuid"
)

type CalendarType string

const (
	GoogleCalendar  CalendarType = "google"
	OutlookCalendar CalendarType = "outlook"
	AppleCalendar   CalendarType = "apple"
	ICalCalendar    CalendarType = "ical"
)

// Calendar is a connected external calendar. Tokens are stored sealed.
type Calendar struct {
	ID                 uuid.UUID
	Phone              string
	Type               CalendarType
	Name               string
	SealedAccessToken  []byte
	SealedRefreshToken []byte
	ExpiresAt          *time.Time
	CreatedAt          time.Time
}

type CalendarEvent struct {
	ID          uuid.UUID
	CalendarID  uuid.UUID
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	SharedWith  []string
}

// CalendarProvider describes a provider the assistant knows how to connect.
type CalendarProvider struct {
	Type        CalendarType
	Name        string
	Icon        string
	Available   bool
	ReadOnly    bool
	Description string
}

// Analytics holds per-phone counters.
type Analytics struct {
	Phone     string
	Messages  int64
	Reminders int64
	Completed int64
	Notified  int64
	Failed    int64
}
