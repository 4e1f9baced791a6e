package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuietHours_Contains(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 5, 5, h, m, 0, 0, time.UTC) }
	tests := []struct {
		name     string
		quiet    QuietHours
		now      time.Time
		expected bool
	}{
		{"Same day inside", QuietHours{"09:00", "17:00"}, at(12, 0), true},
		{"Same day end is exclusive", QuietHours{"09:00", "17:00"}, at(17, 0), false},
		{"Overnight before midnight", QuietHours{"23:00", "07:00"}, at(23, 30), true},
		{"Overnight after midnight", QuietHours{"23:00", "07:00"}, at(6, 59), true},
		{"Overnight outside", QuietHours{"23:00", "07:00"}, at(12, 0), false},
		{"Malformed window", QuietHours{"nope", "07:00"}, at(3, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.quiet.Contains(tt.now))
		})
	}
}

func TestUserPreference_Location(t *testing.T) {
	req := require.New(t)
	req.Equal(time.UTC, UserPreference{}.Location())
	req.Equal(time.UTC, UserPreference{Timezone: "Mars/Olympus"}.Location())
	req.Equal("America/Mexico_City", UserPreference{Timezone: "America/Mexico_City"}.Location().String())
}

func TestParseClock(t *testing.T) {
	req := require.New(t)
	h, m, err := ParseClock("08:05")
	req.NoError(err)
	req.Equal(8, h)
	req.Equal(5, m)

	_, _, err = ParseClock("24:00")
	req.Error(err)
	_, _, err = ParseClock("8")
	req.Error(err)
}

func TestUserPreference_Wants(t *testing.T) {
	req := require.New(t)
	p := DefaultPreference("+1")
	req.False(p.WantsGreeting())
	req.False(p.WantsWeather())

	p.MorningGreeting = true
	p.WeatherAlerts = true
	p.WeatherLocation = "Madrid"
	req.True(p.WantsGreeting())
	req.True(p.WantsWeather())
}
