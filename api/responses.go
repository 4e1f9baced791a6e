package api

import (
	"remind-lab/domain"
	"remind-lab/domain/mimetypes"
	"remind-lab/messaging"
	"remind-lab/observability"
	"remind-lab/projection"
	"time"

	"github.com/samber/lo"
)

type attachmentResponse struct {
	URL  string         `json:"url"`
	MIME mimetypes.MIME `json:"mime"`
	Kind mimetypes.Kind `json:"kind"`
}

type messageResponse struct {
	ID         string              `json:"id"`
	Phone      string              `json:"phone"`
	Content    string              `json:"content"`
	ReceivedAt time.Time           `json:"received_at"`
	Attachment *attachmentResponse `json:"attachment,omitempty"`
	Processed  bool                `json:"processed"`
	Intent     domain.Intent       `json:"intent,omitempty"`
	Sentiment  domain.Sentiment    `json:"sentiment,omitempty"`
	Language   domain.Language     `json:"language,omitempty"`
	Reply      string              `json:"reply,omitempty"`
}

type messagesResponse struct {
	Messages []messageResponse `json:"messages"`
	Cursor   *string           `json:"cursor,omitempty"`
}

type reminderResponse struct {
	ID            string           `json:"id"`
	Phone         string           `json:"phone"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	DateTime      time.Time        `json:"datetime"`
	Timezone      string           `json:"timezone"`
	Recurring     bool             `json:"recurring"`
	Frequency     domain.Frequency `json:"frequency,omitempty"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
	Priority      domain.Priority  `json:"priority,omitempty"`
	Category      string           `json:"category,omitempty"`
	AttachmentURL string           `json:"attachment_url,omitempty"`
	Completed     bool             `json:"completed"`
	Active        bool             `json:"active"`
	Shared        bool             `json:"shared"`
	SharedWith    []string         `json:"shared_with"`
	CreatedAt     time.Time        `json:"created_at"`
}

type quietHoursResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type preferenceResponse struct {
	Phone           string              `json:"phone"`
	Timezone        string              `json:"timezone"`
	WeatherLocation string              `json:"weather_location"`
	WeatherAlerts   bool                `json:"weather_alerts"`
	MorningGreeting bool                `json:"morning_greeting"`
	GreetingTime    string              `json:"greeting_time"`
	Language        domain.Language     `json:"language"`
	QuietHours      *quietHoursResponse `json:"quiet_hours,omitempty"`
}

type calendarResponse struct {
	ID        string              `json:"id"`
	Phone     string              `json:"phone"`
	Type      domain.CalendarType `json:"type"`
	Name      string              `json:"name"`
	Connected bool                `json:"connected"`
	ExpiresAt *time.Time          `json:"expires_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type providerResponse struct {
	ID          domain.CalendarType `json:"id"`
	Name        string              `json:"name"`
	Icon        string              `json:"icon"`
	Available   bool                `json:"available"`
	ReadOnly    bool                `json:"read_only"`
	Description string              `json:"description"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendar_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	SharedWith  []string  `json:"shared_with,omitempty"`
}

type analyticsResponse struct {
	Phone     string `json:"phone"`
	Messages  int64  `json:"messages"`
	Reminders int64  `json:"reminders"`
	Completed int64  `json:"completed"`
	Notified  int64  `json:"notified"`
	Failed    int64  `json:"failed"`
}

type healthResponse struct {
	Status   string               `json:"status"`
	Workers  int                  `json:"workers"`
	Sender   messaging.Status     `json:"sender"`
	Process  observability.Stats  `json:"process"`
	Activity []projection.Entry   `json:"activity"`
	Uptime   string               `json:"uptime"`
}

func toMessageResponse(m domain.StoredMessage) messageResponse {
	res := messageResponse{
		ID:         m.ID.String(),
		Phone:      m.Phone,
		Content:    m.Text,
		ReceivedAt: m.ReceivedAt,
		Processed:  m.Processed,
		Intent:     m.Intent,
		Sentiment:  m.Sentiment,
		Language:   m.Language,
		Reply:      m.Reply,
	}
	if a := m.Attachment; a != nil {
		res.Attachment = &attachmentResponse{URL: a.URL, MIME: a.MIME, Kind: a.Kind}
	}
	return res
}

func toReminderResponse(r domain.Reminder) reminderResponse {
	res := reminderResponse{
		ID:            r.ID.String(),
		Phone:         r.Phone,
		Title:         r.Title,
		Description:   r.Description,
		DateTime:      r.Occurrence,
		Timezone:      r.Timezone,
		Recurring:     r.IsRecurring(),
		Priority:      r.Priority,
		Category:      r.Category,
		AttachmentURL: r.AttachmentURL,
		Completed:     r.Completed,
		Active:        r.Active(),
		Shared:        r.IsShared(),
		SharedWith:    lo.Ternary(r.SharedWith == nil, []string{}, r.SharedWith),
		CreatedAt:     r.CreatedAt,
	}
	if r.Recurrence != nil {
		res.Frequency = r.Recurrence.Frequency
		res.EndDate = r.Recurrence.EndDate
	}
	return res
}

func toPreferenceResponse(p domain.UserPreference) preferenceResponse {
	res := preferenceResponse{
		Phone:           p.Phone,
		Timezone:        p.Timezone,
		WeatherLocation: p.WeatherLocation,
		WeatherAlerts:   p.WeatherAlerts,
		MorningGreeting: p.MorningGreeting,
		GreetingTime:    p.GreetingTime,
		Language:        p.Language,
	}
	if q := p.QuietHours; q != nil {
		res.QuietHours = &quietHoursResponse{Start: q.Start, End: q.End}
	}
	return res
}

// Tokens never leave the server, only whether some are stored.
func toCalendarResponse(c domain.Calendar) calendarResponse {
	return calendarResponse{
		ID:        c.ID.String(),
		Phone:     c.Phone,
		Type:      c.Type,
		Name:      c.Name,
		Connected: len(c.SealedAccessToken) > 0 || c.Type == domain.ICalCalendar,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
	}
}

func toProviderResponse(p domain.CalendarProvider) providerResponse {
	return providerResponse{
		ID:          p.Type,
		Name:        p.Name,
		Icon:        p.Icon,
		Available:   p.Available,
		ReadOnly:    p.ReadOnly,
		Description: p.Description,
	}
}

func toEventResponse(e domain.CalendarEvent) eventResponse {
	return eventResponse{
		ID:          e.ID.String(),
		CalendarID:  e.CalendarID.String(),
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Location:    e.Location,
		SharedWith:  e.SharedWith,
	}
}

func toAnalyticsResponse(a domain.Analytics) analyticsResponse {
	return analyticsResponse{
		Phone:     a.Phone,
		Messages:  a.Messages,
		Reminders: a.Reminders,
		Completed: a.Completed,
		Notified:  a.Notified,
		Failed:    a.Failed,
	}
}
