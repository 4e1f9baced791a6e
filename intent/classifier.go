// Package intent resolves the coarse intent and the sentiment of a message
// from a compiled language table. Both are pure functions of the text.
package intent

import (
	"remind-lab/domain"
	"remind-lab/lexicon"
)

type Classifier struct {
	table *lexicon.Table
}

func NewClassifier(table *lexicon.Table) *Classifier {
	return &Classifier{table: table}
}

// Classify walks the categories in table order and returns the first one with
// a keyword contained in text. A reminder is upgraded to a recurring reminder
// when a recurrence phrase is present as well. Unmatched text is conversation.
func (c *Classifier) Classify(text string) domain.Intent {
	for _, im := range c.table.Intents {
		if !im.Keywords.Contains(text) {
			continue
		}
		if im.Intent == domain.IntentReminder {
			if _, ok := c.Recurrence(text); ok {
				return domain.RecurringReminder
			}
		}
		return im.Intent
	}
	return domain.Conversation
}

// Recurrence returns the first recurrence frequency whose phrase occurs in text.
func (c *Classifier) Recurrence(text string) (domain.Frequency, bool) {
	for _, rp := range c.table.Recurrences {
		if rp.Pattern.MatchString(text) {
			return rp.Frequency, true
		}
	}
	return "", false
}
