package analyzer

import (
	"log/slog"
	"remind-lab/domain"
	"remind-lab/lexicon"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	set, err := lexicon.Default(domain.Spanish)
	require.NoError(t, err)
	return New(set, slog.New(slog.DiscardHandler))
}

func TestDetectLanguage(t *testing.T) {
	a := newAnalyzer(t)
	tests := []struct {
		name      string
		text      string
		preferred domain.Language
		expected  domain.Language
	}{
		{
			name:      "Long Spanish sentence",
			text:      "Por favor, recuérdame llamar a mi hermana el próximo martes porque es su cumpleaños y siempre se me olvida",
			preferred: domain.English,
			expected:  domain.Spanish,
		},
		{
			name:      "Long English sentence",
			text:      "Please remind me to call my sister next Tuesday because it is her birthday and I always forget about it",
			preferred: domain.Spanish,
			expected:  domain.English,
		},
		{
			name:      "No letters falls back to preference",
			text:      "👍 10:30",
			preferred: domain.English,
			expected:  domain.English,
		},
		{
			name:      "Unsupported preference falls back to default",
			text:      "",
			preferred: domain.Language("fr"),
			expected:  domain.Spanish,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, a.DetectLanguage(tt.text, tt.preferred))
		})
	}
}

func TestAnalyze_Reminder(t *testing.T) {
	req := require.New(t)
	a := newAnalyzer(t)
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

	cmd := a.Analyze("recuérdame llamar al dentista mañana a las 3pm", domain.Spanish, now)
	req.Equal(domain.IntentReminder, cmd.Intent)
	req.Equal(domain.Spanish, cmd.Language)
	req.Equal(domain.Neutral, cmd.Sentiment)
	req.Equal("llamar al dentista", cmd.Entities.Task)
	req.Equal(time.Date(2025, time.June, 4, 15, 0, 0, 0, time.UTC), *cmd.Entities.DateTime)
}

func TestAnalyze_GreetingCarriesNoEntities(t *testing.T) {
	req := require.New(t)
	a := newAnalyzer(t)
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

	cmd := a.Analyze("hola, ¡qué bien! nos vemos mañana", domain.Spanish, now)
	req.Equal(domain.Greeting, cmd.Intent)
	req.Equal(domain.Positive, cmd.Sentiment)
	req.Equal(domain.Entities{}, cmd.Entities)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	req := require.New(t)
	a := newAnalyzer(t)
	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	text := "recuérdame cada semana sacar la basura hasta el 30/06"

	first := a.Analyze(text, domain.Spanish, now)
	for i := 0; i < 5; i++ {
		req.Equal(first, a.Analyze(text, domain.Spanish, now))
	}
	req.Equal(domain.RecurringReminder, first.Intent)
}
