// Package domain contains core concepts of the assistant.
// This file defines intents, sentiments and the pinned intent precedence.
// No runtime, network, or storage logic should be added here.
package domain

type Intent string

const (
	Greeting          Intent = "greeting"
	Farewell          Intent = "farewell"
	Gratitude         Intent = "gratitude"
	Weather           Intent = "weather"
	IntentReminder    Intent = "reminder"
	RecurringReminder Intent = "recurring_reminder"
	IntentCalendar    Intent = "calendar"
	Query             Intent = "query"
	Help              Intent = "help"
	Conversation      Intent = "conversation"
)

// IntentPrecedence is the order in which keyword categories are evaluated.
// Keyword sets overlap ("agenda" is both a reminder and a calendar word),
// so this order is a compatibility contract and must not be reshuffled.
var IntentPrecedence = []Intent{
	Greeting,
	Farewell,
	Gratitude,
	Weather,
	IntentReminder,
	IntentCalendar,
	Query,
	Help,
}

// IsReminder reports whether a command with this intent maps onto a reminder.
func (i Intent) IsReminder() bool {
	return i == IntentReminder || i == RecurringReminder
}

// WantsEntities reports whether extraction output is meaningful for the intent.
func (i Intent) WantsEntities() bool {
	switch i {
	case IntentReminder, RecurringReminder, IntentCalendar, Query:
		return true
	default:
		return false
	}
}

type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

type Language string

const (
	Spanish Language = "es"
	English Language = "en"
)
