package intent

import (
	"remind-lab/domain"
	"remind-lab/lexicon"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadTable(t *testing.T, lang domain.Language) *lexicon.Table {
	t.Helper()
	set, err := lexicon.Default(domain.Spanish)
	require.NoError(t, err)
	return set.Get(lang)
}

func TestClassify_Spanish(t *testing.T) {
	classifier := NewClassifier(loadTable(t, domain.Spanish))
	tests := []struct {
		name     string
		text     string
		expected domain.Intent
	}{
		{"Greeting", "Hola, ¿todo bien?", domain.Greeting},
		{"Farewell", "adiós!", domain.Farewell},
		{"Gratitude", "Muchas gracias", domain.Gratitude},
		{"Weather beats help", "¿cómo estará el clima?", domain.Weather},
		{"Plain reminder", "recuérdame llamar al dentista mañana a las 3pm", domain.IntentReminder},
		{"Recurring reminder", "recuérdame regar las plantas todos los días", domain.RecurringReminder},
		{"Agenda resolves to reminder before calendar", "agenda una reunión", domain.IntentReminder},
		{"Calendar", "tengo una reunión en el calendario", domain.IntentCalendar},
		{"Query", "muéstrame la lista", domain.Query},
		{"Help", "necesito ayuda", domain.Help},
		{"Greeting wins over reminder", "buenos días, recuérdame tomar agua", domain.Greeting},
		{"Conversation", "me gusta la pizza", domain.Conversation},
		{"Upper case", "RECORDATORIO: pagar la luz", domain.IntentReminder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, classifier.Classify(tt.text))
		})
	}
}

func TestClassify_English(t *testing.T) {
	classifier := NewClassifier(loadTable(t, domain.English))
	req := require.New(t)
	req.Equal(domain.IntentReminder, classifier.Classify("remind me to call mom tomorrow at 5pm"))
	req.Equal(domain.RecurringReminder, classifier.Classify("remind me every monday to water the plants"))
	req.Equal(domain.IntentCalendar, classifier.Classify("add a meeting to my calendar"))
	req.Equal(domain.Conversation, classifier.Classify("I like pizza"))
}

func TestClassify_ReminderWithRecurrenceIsAlwaysRecurring(t *testing.T) {
	table := loadTable(t, domain.Spanish)
	classifier := NewClassifier(table)
	phrases := []string{
		"todos los días", "diariamente", "cada día",
		"cada semana", "semanalmente", "todos los viernes",
		"cada mes", "mensualmente", "el 15 de cada mes",
		"cada año", "anualmente", "todos los años",
	}
	for _, keyword := range table.KeywordsOf(domain.IntentReminder).Words() {
		for _, phrase := range phrases {
			text := keyword + " pagar el alquiler " + phrase
			require.Equal(t, domain.RecurringReminder, classifier.Classify(text), text)
		}
	}
}

func TestClassify_IsPure(t *testing.T) {
	classifier := NewClassifier(loadTable(t, domain.Spanish))
	text := "recuérdame cada semana sacar la basura"
	first := classifier.Classify(text)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, classifier.Classify(text))
	}
}

func TestRecurrence_FirstPatternWins(t *testing.T) {
	req := require.New(t)
	classifier := NewClassifier(loadTable(t, domain.Spanish))

	f, ok := classifier.Recurrence("diariamente y cada semana")
	req.True(ok)
	req.Equal(domain.Daily, f)

	_, ok = classifier.Recurrence("solo una vez")
	req.False(ok)
}

func TestSentimentScorer(t *testing.T) {
	scorer := NewSentimentScorer(loadTable(t, domain.Spanish))
	tests := []struct {
		name     string
		text     string
		expected domain.Sentiment
	}{
		{"Positive", "estoy muy feliz, gracias", domain.Positive},
		{"Negative", "me siento mal y estresado", domain.Negative},
		{"Inner word is not a cue", "todo normal", domain.Neutral},
		{"Tie is neutral", "bien pero cansado", domain.Neutral},
		{"No cue", "pásame la sal", domain.Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, scorer.Score(tt.text))
		})
	}
}
