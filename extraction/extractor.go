// Package extraction pulls temporal and semantic entities out of a message.
// Every sub-pattern is optional: a miss leaves the field unset and never fails.
package extraction

import (
	"remind-lab/domain"
	"remind-lab/lexicon"
	"strings"
	"time"
	"unicode"
)

type Extractor struct {
	table *lexicon.Table
}

func NewExtractor(table *lexicon.Table) *Extractor {
	return &Extractor{table: table}
}

// Extract reads entities from text. now must already be expressed in the
// user's timezone: relative days and clock times are resolved against it.
func (e *Extractor) Extract(text string, intent domain.Intent, now time.Time) domain.Entities {
	var entities domain.Entities
	mask := newMask(text)

	frequency, found := e.recurrence(text, mask)
	endDate := e.endDate(text, mask, now)
	if found {
		entities.Recurrence = &domain.Recurrence{Frequency: frequency, EndDate: endDate}
	}

	relative := e.relative(text, mask)
	clock := e.clock(mask)
	entities.DateTime = resolveDateTime(now, relative, clock)

	entities.Priority = e.priority(text, mask)
	entities.Category = firstInVocabulary(e.table.Lexicon.Categories, e.table.Categories, text)
	mask.blankWords(e.table.Categories, text)

	switch intent {
	case domain.IntentCalendar:
		entities.Calendar = firstInVocabulary(e.table.Lexicon.CalendarTypes, e.table.CalendarTypes, text)
	case domain.Query:
		entities.QueryType = firstInVocabulary(e.table.Lexicon.QueryTypes, e.table.QueryTypes, text)
	}

	if keywords := e.table.KeywordsOf(intent); keywords != nil {
		mask.blankWords(keywords, text)
	}
	entities.Task = residual(mask.String())
	return entities
}

func (e *Extractor) recurrence(text string, mask *mask) (domain.Frequency, bool) {
	var (
		frequency domain.Frequency
		found     bool
	)
	for _, rp := range e.table.Recurrences {
		locs := rp.Pattern.FindAllStringIndex(text, -1)
		if len(locs) > 0 && !found {
			frequency, found = rp.Frequency, true
		}
		mask.blankAll(locs)
	}
	return frequency, found
}

// endDate parses "until DD/MM[/YYYY]" day first. A missing year is the year
// of now; an impossible date is ignored.
func (e *Extractor) endDate(text string, mask *mask, now time.Time) *time.Time {
	loc := e.table.EndDate.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	mask.blank(loc[0], loc[1])
	literal := text[loc[2]:loc[3]]
	date, ok := parseDayFirst(literal, now)
	if !ok {
		return nil
	}
	return &date
}

func (e *Extractor) relative(text string, mask *mask) *lexicon.RelativePattern {
	var first *lexicon.RelativePattern
	for i := range e.table.Relatives {
		rp := &e.table.Relatives[i]
		locs := rp.Pattern.FindAllStringIndex(text, -1)
		if len(locs) > 0 && first == nil {
			first = rp
		}
		mask.blankAll(locs)
	}
	return first
}

// clock runs on the masked text so numbers inside recurrence, end date or
// relative phrases are never read as a time of day.
func (e *Extractor) clock(mask *mask) *clockTime {
	blanked := mask.Blanked()
	for _, m := range e.table.ClockPattern.FindAllStringSubmatchIndex(blanked, -1) {
		c, ok := parseClock(blanked, m)
		if !ok {
			continue
		}
		mask.blank(m[0], m[1])
		return &c
	}
	return nil
}

func (e *Extractor) priority(text string, mask *mask) domain.Priority {
	var found domain.Priority
	for _, pm := range e.table.Priorities {
		if found == "" && pm.Keywords.Contains(text) {
			found = pm.Priority
		}
		mask.blankWords(pm.Keywords, text)
	}
	return found
}

// firstInVocabulary returns the earliest vocabulary entry, in declaration
// order, that occurs in text.
func firstInVocabulary(vocabulary []string, m *lexicon.Matcher, text string) string {
	spans := m.Find(text)
	if len(spans) == 0 {
		return ""
	}
	present := make(map[string]struct{}, len(spans))
	for _, s := range spans {
		present[s.Word] = struct{}{}
	}
	for _, v := range vocabulary {
		if _, ok := present[strings.ToLower(v)]; ok {
			return strings.ToLower(v)
		}
	}
	return ""
}

func resolveDateTime(now time.Time, relative *lexicon.RelativePattern, clock *clockTime) *time.Time {
	if relative == nil && clock == nil {
		return nil
	}
	base := now.Truncate(time.Minute)
	if relative != nil {
		if relative.Months != 0 {
			base = domain.AddFrequency(base, domain.Monthly, relative.Months)
		}
		base = base.AddDate(0, 0, relative.Days)
	}
	if clock != nil {
		y, m, d := base.Date()
		base = time.Date(y, m, d, clock.hour, clock.minute, 0, 0, base.Location())
	}
	return &base
}

// residual collapses whitespace, drops tokens made only of punctuation and
// trims punctuation around the remaining text.
func residual(s string) string {
	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if strings.TrimFunc(tok, isTrimmable) == "" {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.TrimFunc(strings.Join(kept, " "), isTrimmable)
}

func isTrimmable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}
