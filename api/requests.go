package api

import (
	"reflect"
	"remind-lab/domain"
	"remind-lab/services"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ingestRequest struct {
	Phone          string `json:"phone" validate:"required"`
	Content        string `json:"content" validate:"required"`
	AttachmentURL  string `json:"attachment_url" validate:"omitempty,url"`
	AttachmentType string `json:"attachment_type"`
}

type createReminderRequest struct {
	Phone         string           `json:"phone" validate:"required"`
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description" validate:"max=1000"`
	DateTime      *time.Time       `json:"datetime" validate:"required"`
	Timezone      string           `json:"timezone" validate:"omitempty,timezone"`
	Recurring     bool             `json:"recurring"`
	Frequency     domain.Frequency `json:"frequency" validate:"required_if=Recurring true,omitempty,oneof=daily weekly monthly yearly"`
	EndDate       *time.Time       `json:"end_date"`
	Priority      domain.Priority  `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category      string           `json:"category" validate:"max=50"`
	AttachmentURL string           `json:"attachment_url" validate:"omitempty,url"`
	SharedWith    []string         `json:"shared_with" validate:"max=20"`
}

type shareRequest struct {
	Phones []string `json:"phones" validate:"required,min=1,max=20"`
}

type quietHoursRequest struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

type preferenceRequest struct {
	Timezone        string             `json:"timezone" validate:"omitempty,timezone"`
	WeatherLocation string             `json:"weather_location" validate:"max=100"`
	WeatherAlerts   bool               `json:"weather_alerts"`
	MorningGreeting bool               `json:"morning_greeting"`
	GreetingTime    string             `json:"greeting_time" validate:"omitempty,clock"`
	Language        domain.Language    `json:"language" validate:"omitempty,oneof=es en"`
	QuietHours      *quietHoursRequest `json:"quiet_hours"`
}

type connectCalendarRequest struct {
	Phone string              `json:"phone" validate:"required"`
	Type  domain.CalendarType `json:"type" validate:"required"`
	Name  string              `json:"name" validate:"max=100"`
}

// newValidator reports fields by their JSON name and knows the "clock"
// (HH:MM) rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, err := domain.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

func (r preferenceRequest) toPreference(phone string) domain.UserPreference {
	pref := domain.UserPreference{
		Phone:           phone,
		Timezone:        r.Timezone,
		WeatherLocation: strings.TrimSpace(r.WeatherLocation),
		WeatherAlerts:   r.WeatherAlerts,
		MorningGreeting: r.MorningGreeting,
		GreetingTime:    r.GreetingTime,
		Language:        r.Language,
	}
	if r.QuietHours != nil {
		pref.QuietHours = &domain.QuietHours{Start: r.QuietHours.Start, End: r.QuietHours.End}
	}
	return pref
}

func (r ingestRequest) toIngest() services.IngestRequest {
	return services.IngestRequest{
		Phone:          r.Phone,
		Content:        r.Content,
		AttachmentURL:  r.AttachmentURL,
		AttachmentType: r.AttachmentType,
	}
}

// A frequency without the recurring flag is ignored.
func (r createReminderRequest) toReminderRequest() services.ReminderRequest {
	req := services.ReminderRequest{
		Phone:         r.Phone,
		Title:         r.Title,
		Description:   r.Description,
		DateTime:      r.DateTime,
		Timezone:      r.Timezone,
		Priority:      r.Priority,
		Category:      r.Category,
		AttachmentURL: r.AttachmentURL,
		SharedWith:    r.SharedWith,
	}
	if r.Recurring {
		req.Frequency = r.Frequency
		req.EndDate = r.EndDate
	}
	return req
}
