package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimezone     = "UTC"
	DefaultGreetingTime = "08:00"
	DefaultLanguage     = Spanish
)

// QuietHours is a local "HH:MM" window during which pre-notices are held back.
// Start after End means the window wraps past midnight.
type QuietHours struct {
	Start string
	End   string
}

// UserPreference is the per-phone configuration read by the scheduler.
type UserPreference struct {
	Phone           string
	Timezone        string
	WeatherLocation string
	WeatherAlerts   bool
	MorningGreeting bool
	GreetingTime    string
	Language        Language
	QuietHours      *QuietHours
}

// DefaultPreference is used for phones without a stored preference.
func DefaultPreference(phone string) UserPreference {
	return UserPreference{
		Phone:        phone,
		Timezone:     DefaultTimezone,
		GreetingTime: DefaultGreetingTime,
		Language:     DefaultLanguage,
	}
}

// Location resolves the configured timezone, UTC when unset or unknown.
func (p UserPreference) Location() *time.Location {
	return LoadLocation(p.Timezone)
}

func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WantsGreeting reports whether the morning greeting can be composed.
func (p UserPreference) WantsGreeting() bool {
	return p.MorningGreeting && p.Timezone != "" && p.WeatherLocation != "" && p.GreetingTime != ""
}

func (p UserPreference) WantsWeather() bool {
	return p.WeatherAlerts && p.WeatherLocation != ""
}

// InQuietHours reports whether t (already in the user's zone) is inside the window.
func (p UserPreference) InQuietHours(t time.Time) bool {
	if p.QuietHours == nil {
		return false
	}
	return p.QuietHours.Contains(t)
}

func (q QuietHours) Contains(t time.Time) bool {
	startH, startM, err := ParseClock(q.Start)
	if err != nil {
		return false
	}
	endH, endM, err := ParseClock(q.End)
	if err != nil {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	start := startH*60 + startM
	end := endH*60 + endM
	if start <= end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

// ParseClock parses a "HH:MM" wall clock.
func ParseClock(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("clock out of range %q", s)
	}
	return h, m, nil
}

// DigestKind names a once-a-day message tracked by the daily ledger.
type DigestKind string

const (
	GreetingDigest DigestKind = "greeting"
	WeatherDigest  DigestKind = "weather"
)
