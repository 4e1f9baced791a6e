package repositories

import (
	"remind-lab/domain"
	"remind-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreferenceRepository_UpsertFillsDefaults(t *testing.T) {
	req := require.New(t)
	repository := NewPreferenceRepository(openDB(t), discard())

	_, err := repository.Get("+34600000001")
	req.ErrorIs(err, errors.ErrPreferenceNotFound)

	req.NoError(repository.Upsert(domain.UserPreference{
		Phone:           "+34600000001",
		WeatherLocation: "Madrid",
		QuietHours:      &domain.QuietHours{Start: "22:00", End: "07:00"},
	}))

	got, err := repository.Get("+34600000001")
	req.NoError(err)
	req.Equal(domain.DefaultTimezone, got.Timezone)
	req.Equal(domain.DefaultGreetingTime, got.GreetingTime)
	req.Equal(domain.Spanish, got.Language)
	req.Equal("Madrid", got.WeatherLocation)
	req.Equal(&domain.QuietHours{Start: "22:00", End: "07:00"}, got.QuietHours)

	req.NoError(repository.Upsert(domain.UserPreference{Phone: "+34600000002", Timezone: "America/Bogota", Language: domain.English}))
	all, err := repository.List()
	req.NoError(err)
	req.Len(all, 2)
}

func TestPreferenceRepository_MarkDailySentOncePerDate(t *testing.T) {
	req := require.New(t)
	repository := NewPreferenceRepository(openDB(t), discard())

	tests := []struct {
		name     string
		kind     domain.DigestKind
		date     string
		expected bool
	}{
		{"first greeting", domain.GreetingDigest, "2025-06-04", true},
		{"same greeting again", domain.GreetingDigest, "2025-06-04", false},
		{"weather same day", domain.WeatherDigest, "2025-06-04", true},
		{"greeting next day", domain.GreetingDigest, "2025-06-05", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marked, err := repository.MarkDailySent("+34600000001", tt.kind, tt.date)
			require.NoError(t, err)
			require.Equal(t, tt.expected, marked)
		})
	}

	// Another phone keeps its own ledger
	marked, err := repository.MarkDailySent("+34600000002", domain.GreetingDigest, "2025-06-04")
	req.NoError(err)
	req.True(marked)
}
