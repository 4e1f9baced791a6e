package lexicon

import (
	"fmt"
	"regexp"
	"remind-lab/domain"
	"remind-lab/errors"
)

// IntentMatcher pairs an intent with the keywords that select it.
type IntentMatcher struct {
	Intent   domain.Intent
	Keywords *Matcher
}

type RecurrencePattern struct {
	Frequency domain.Frequency
	Pattern   *regexp.Regexp
}

type RelativePattern struct {
	Name    string
	Pattern *regexp.Regexp
	Days    int
	Months  int
}

type PriorityMatcher struct {
	Priority domain.Priority
	Keywords *Matcher
}

// Table is a compiled Lexicon, safe for concurrent use once built.
type Table struct {
	Lexicon
	Intents       []IntentMatcher
	Recurrences   []RecurrencePattern
	Relatives     []RelativePattern
	ClockPattern  *regexp.Regexp
	EndDate       *regexp.Regexp
	Priorities    []PriorityMatcher
	Categories    *Matcher
	CalendarTypes *Matcher
	QueryTypes    *Matcher
	Positive      *Matcher
	Negative      *Matcher
}

// Compile validates a Lexicon and builds its matchers.
// The intent list must follow domain.IntentPrecedence exactly.
func Compile(l Lexicon) (*Table, error) {
	if err := validateOrder(l); err != nil {
		return nil, err
	}
	t := &Table{Lexicon: l}

	for _, rule := range l.Intents {
		m, err := NewMatcher(rule.Keywords)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", rule.Name, err)
		}
		t.Intents = append(t.Intents, IntentMatcher{Intent: rule.Name, Keywords: m})
	}

	for _, rule := range l.Recurrence {
		if !rule.Frequency.Valid() {
			return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrequency, rule.Frequency)
		}
		re, err := compileInsensitive(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("recurrence %s: %w", rule.Frequency, err)
		}
		t.Recurrences = append(t.Recurrences, RecurrencePattern{Frequency: rule.Frequency, Pattern: re})
	}

	for _, rule := range l.Relative {
		re, err := compileInsensitive(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("relative %s: %w", rule.Name, err)
		}
		t.Relatives = append(t.Relatives, RelativePattern{Name: rule.Name, Pattern: re, Days: rule.Days, Months: rule.Months})
	}

	clock, err := regexp.Compile(clockExpression(l.Clock.Lead))
	if err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	t.ClockPattern = clock

	if t.EndDate, err = compileInsensitive(l.EndDate); err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}
	if t.EndDate.NumSubexp() < 1 {
		return nil, fmt.Errorf("end date %q: %w", l.EndDate, errors.ErrMissingCaptureGroup)
	}

	buckets := []struct {
		p     domain.Priority
		words []string
	}{
		{domain.High, l.Priority.High},
		{domain.Medium, l.Priority.Medium},
		{domain.Low, l.Priority.Low},
	}
	for _, b := range buckets {
		m, err := NewMatcher(b.words)
		if err != nil {
			return nil, fmt.Errorf("priority %s: %w", b.p, err)
		}
		t.Priorities = append(t.Priorities, PriorityMatcher{Priority: b.p, Keywords: m})
	}

	vocabularies := []struct {
		dst   **Matcher
		words []string
	}{
		{&t.Categories, l.Categories},
		{&t.CalendarTypes, l.CalendarTypes},
		{&t.QueryTypes, l.QueryTypes},
		{&t.Positive, l.Sentiment.Positive},
		{&t.Negative, l.Sentiment.Negative},
	}
	for _, v := range vocabularies {
		m, err := NewMatcher(v.words)
		if err != nil {
			return nil, err
		}
		*v.dst = m
	}

	if len(l.Dates.Weekdays) != 7 || len(l.Dates.Months) != 12 {
		return nil, fmt.Errorf("%w: %s", errors.ErrIncompleteDateNames, l.Language)
	}
	return t, nil
}

// KeywordsOf returns the matcher of an intent category. Recurring reminders
// share the reminder keywords.
func (t *Table) KeywordsOf(i domain.Intent) *Matcher {
	if i == domain.RecurringReminder {
		i = domain.IntentReminder
	}
	for _, im := range t.Intents {
		if im.Intent == i {
			return im.Keywords
		}
	}
	return nil
}

func validateOrder(l Lexicon) error {
	if len(l.Intents) != len(domain.IntentPrecedence) {
		return fmt.Errorf("%w: %s has %d categories, want %d",
			errors.ErrIntentOrder, l.Language, len(l.Intents), len(domain.IntentPrecedence))
	}
	for i, rule := range l.Intents {
		if rule.Name != domain.IntentPrecedence[i] {
			return fmt.Errorf("%w: %s position %d is %q, want %q",
				errors.ErrIntentOrder, l.Language, i, rule.Name, domain.IntentPrecedence[i])
		}
	}
	return nil
}

func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.ErrEmptyPattern
	}
	return regexp.Compile("(?i)" + pattern)
}

// clockExpression captures an optional lead-in, the hour, optional minutes
// and an optional am/pm/h suffix. Groups: 1 lead, 2 hour, 3 minutes, 4 suffix.
func clockExpression(lead string) string {
	leadGroup := ""
	if lead != "" {
		leadGroup = `(?:\b(` + lead + `)\s+)?`
	} else {
		leadGroup = `()`
	}
	return `(?i)` + leadGroup + `\b(\d{1,2})(?::(\d{2}))?(?:\s*(am|pm|hrs|h)\b)?`
}
