package lexicon

import (
	"remind-lab/domain"
	"remind-lab/errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsShippedTables(t *testing.T) {
	req := require.New(t)
	set, err := Default(domain.Spanish)
	req.NoError(err)
	req.Equal([]domain.Language{domain.English, domain.Spanish}, set.Languages())
	req.True(set.Has(domain.English))
	req.Equal(domain.Spanish, set.Fallback())

	es := set.Get(domain.Spanish)
	req.Len(es.Intents, len(domain.IntentPrecedence))
	for i, im := range es.Intents {
		req.Equal(domain.IntentPrecedence[i], im.Intent)
	}
	req.Len(es.Recurrences, 4)
	req.Equal("day_after_tomorrow", es.Relatives[0].Name)
	req.Equal("tomorrow", es.Relatives[1].Name)

	// Unknown languages resolve to the fallback table.
	req.Same(es, set.Get("fr"))
}

func TestLoadAll_RejectsReorderedIntents(t *testing.T) {
	req := require.New(t)
	data, err := tablesFolder.ReadFile("tables/es.yaml")
	req.NoError(err)

	// Swap reminder and calendar: "agenda" would then resolve to calendar.
	swapped := strings.Replace(string(data), "  - name: reminder", "  - name: tmp", 1)
	swapped = strings.Replace(swapped, "  - name: calendar", "  - name: reminder", 1)
	swapped = strings.Replace(swapped, "  - name: tmp", "  - name: calendar", 1)

	fsys := fstest.MapFS{"tables/es.yaml": &fstest.MapFile{Data: []byte(swapped)}}
	_, err = NewLoader(fsys).LoadAll("tables", domain.Spanish)
	req.ErrorIs(err, errors.ErrIntentOrder)
}

func TestLoadAll_Errors(t *testing.T) {
	data, err := tablesFolder.ReadFile("tables/es.yaml")
	require.NoError(t, err)

	tests := []struct {
		name     string
		fsys     fstest.MapFS
		fallback domain.Language
		expected error
	}{
		{
			name:     "No table at all",
			fsys:     fstest.MapFS{"tables/readme.txt": &fstest.MapFile{Data: []byte("nothing")}},
			fallback: domain.Spanish,
			expected: errors.ErrEmptyLexicon,
		},
		{
			name:     "File name and language disagree",
			fsys:     fstest.MapFS{"tables/en.yaml": &fstest.MapFile{Data: data}},
			fallback: domain.English,
			expected: errors.ErrLanguageMismatch,
		},
		{
			name:     "Fallback not loaded",
			fsys:     fstest.MapFS{"tables/es.yaml": &fstest.MapFile{Data: data}},
			fallback: domain.English,
			expected: errors.ErrUnsupportedLanguage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.fsys).LoadAll("tables", tt.fallback)
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestLoadAll_RejectsUnknownFields(t *testing.T) {
	req := require.New(t)
	data, err := tablesFolder.ReadFile("tables/es.yaml")
	req.NoError(err)
	broken := append([]byte("colour: blue\n"), data...)

	fsys := fstest.MapFS{"tables/es.yaml": &fstest.MapFile{Data: broken}}
	_, err = NewLoader(fsys).LoadAll("tables", domain.Spanish)
	req.Error(err)
}

func TestRender_And_Dates(t *testing.T) {
	req := require.New(t)
	set, err := Default(domain.Spanish)
	req.NoError(err)
	es := set.Get(domain.Spanish)
	en := set.Get(domain.English)

	req.Equal("a-b {c}", Render("{x}-{y} {c}", "x", "a", "y", "b"))

	at := time.Date(2025, time.June, 3, 15, 0, 0, 0, time.UTC)
	req.Equal("martes, 3 de junio de 2025 15:00", es.LongDate(at))
	req.Equal("3 de junio de 2025", es.ShortDate(at))
	req.Equal("martes 3", es.ForecastDay(at))
	req.Equal("Tuesday, June 3, 2025 15:00", en.LongDate(at))

	req.Equal("semanalmente", es.FrequencyName(domain.Weekly))
	req.Equal("Niebla", es.Weather.Describe(45))
	req.Equal("No disponible", es.Weather.Describe(1234))
	req.Equal("¡Hola! ", es.Responses.Intents[domain.Greeting].Base)
	req.Equal("¿Cómo estás? 🌟 ", es.Responses.Intents[domain.Greeting].Modifier(domain.Neutral))
	req.Equal(
		es.Responses.Intents[domain.Farewell].Neutral,
		ResponseSet{Neutral: es.Responses.Intents[domain.Farewell].Neutral}.Modifier(domain.Positive),
	)
}
