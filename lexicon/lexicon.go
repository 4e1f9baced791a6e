// Package lexicon holds the per-language rule tables the assistant reads text with.
// Tables are plain data (keywords, patterns, templates) decoded from embedded YAML
// and compiled once into matchers and regular expressions.
package lexicon

import (
	"remind-lab/domain"
)

// Lexicon is the raw, decoded form of one language table.
type Lexicon struct {
	Language         domain.Language             `yaml:"language"`
	Intents          []IntentRule                `yaml:"intents"`
	Recurrence       []RecurrenceRule            `yaml:"recurrence"`
	Relative         []RelativeRule              `yaml:"relative"`
	Clock            ClockRule                   `yaml:"clock"`
	EndDate          string                      `yaml:"end_date"`
	Priority         PriorityBuckets             `yaml:"priority"`
	Categories       []string                    `yaml:"categories"`
	CalendarTypes    []string                    `yaml:"calendar_types"`
	QueryTypes       []string                    `yaml:"query_types"`
	Sentiment        SentimentWords              `yaml:"sentiment"`
	Responses        Responses                   `yaml:"responses"`
	Suggestions      Suggestions                 `yaml:"suggestions"`
	Fragments        Fragments                   `yaml:"fragments"`
	Frequencies      map[domain.Frequency]string `yaml:"frequencies"`
	Dates            DateNames                   `yaml:"dates"`
	MorningGreetings []string                    `yaml:"morning_greetings"`
	Notifications    NotificationTemplates       `yaml:"notifications"`
	Weather          WeatherTemplates            `yaml:"weather"`
}

type IntentRule struct {
	Name     domain.Intent `yaml:"name"`
	Keywords []string      `yaml:"keywords"`
}

type RecurrenceRule struct {
	Frequency domain.Frequency `yaml:"frequency"`
	Pattern   string           `yaml:"pattern"`
}

// RelativeRule shifts "now" by Days and Months when Pattern matches.
type RelativeRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Days    int    `yaml:"days"`
	Months  int    `yaml:"months"`
}

// ClockRule carries the language specific lead-in ("a las", "at") of a clock time.
type ClockRule struct {
	Lead string `yaml:"lead"`
}

type PriorityBuckets struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

type SentimentWords struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// ResponseSet holds the phrases of one intent. When Variants is set the base
// phrase is picked among them.
type ResponseSet struct {
	Base     string   `yaml:"base"`
	Variants []string `yaml:"variants"`
	Positive string   `yaml:"positive"`
	Neutral  string   `yaml:"neutral"`
	Negative string   `yaml:"negative"`
}

// Modifier returns the phrase for a sentiment, the neutral one when missing.
func (r ResponseSet) Modifier(s domain.Sentiment) string {
	switch s {
	case domain.Positive:
		if r.Positive != "" {
			return r.Positive
		}
	case domain.Negative:
		if r.Negative != "" {
			return r.Negative
		}
	}
	return r.Neutral
}

type Responses struct {
	DefaultBase string                        `yaml:"default_base"`
	Intents     map[domain.Intent]ResponseSet `yaml:"intents"`
}

type Suggestions struct {
	Default string                   `yaml:"default"`
	Intents map[domain.Intent]string `yaml:"intents"`
}

type Fragments struct {
	DateTime      string `yaml:"datetime"`
	TaskFallback  string `yaml:"task_fallback"`
	Recurrence    string `yaml:"recurrence"`
	Until         string `yaml:"until"`
	RecurrenceEnd string `yaml:"recurrence_end"`
	Continuity    string `yaml:"continuity"`
}

// DateNames lists weekdays starting on Sunday (time.Weekday order) and months from January.
type DateNames struct {
	Weekdays    []string `yaml:"weekdays"`
	Months      []string `yaml:"months"`
	Long        string   `yaml:"long"`
	Short       string   `yaml:"short"`
	ForecastDay string   `yaml:"forecast_day"`
}

type NotificationTemplates struct {
	PreNotice        string `yaml:"pre_notice"`
	Due              string `yaml:"due"`
	Recurrence       string `yaml:"recurrence"`
	Shared           string `yaml:"shared"`
	AgendaHeader     string `yaml:"agenda_header"`
	AgendaLine       string `yaml:"agenda_line"`
	AgendaShared     string `yaml:"agenda_shared"`
	AgendaRecurrence string `yaml:"agenda_recurrence"`
	AgendaEmpty      string `yaml:"agenda_empty"`
	Closing          string `yaml:"closing"`
}

type WeatherTemplates struct {
	Current        string         `yaml:"current"`
	ForecastHeader string         `yaml:"forecast_header"`
	ForecastLine   string         `yaml:"forecast_line"`
	Unknown        string         `yaml:"unknown"`
	Codes          map[int]string `yaml:"codes"`
}

// Describe returns the localized label of a WMO weather code.
func (w WeatherTemplates) Describe(code int) string {
	if d, ok := w.Codes[code]; ok {
		return d
	}
	return w.Unknown
}

// FrequencyName returns the localized name of a frequency, the raw value as fallback.
func (l Lexicon) FrequencyName(f domain.Frequency) string {
	if n, ok := l.Frequencies[f]; ok {
		return n
	}
	return string(f)
}
