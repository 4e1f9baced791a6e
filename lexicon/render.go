package lexicon

import (
	"strconv"
	"strings"
	"time"
)

// Render substitutes "{key}" placeholders with the given key/value pairs.
// Unknown placeholders are left untouched.
func Render(template string, pairs ...string) string {
	if len(pairs) == 0 {
		return template
	}
	args := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(args...).Replace(template)
}

// LongDate formats t the way the reply generator announces a reminder time.
func (l Lexicon) LongDate(t time.Time) string {
	return Render(l.Dates.Long,
		"weekday", l.Dates.Weekdays[t.Weekday()],
		"day", strconv.Itoa(t.Day()),
		"month", l.Dates.Months[t.Month()-1],
		"year", strconv.Itoa(t.Year()),
		"time", t.Format("15:04"),
	)
}

func (l Lexicon) ShortDate(t time.Time) string {
	return Render(l.Dates.Short,
		"day", strconv.Itoa(t.Day()),
		"month", l.Dates.Months[t.Month()-1],
		"year", strconv.Itoa(t.Year()),
	)
}

func (l Lexicon) ForecastDay(t time.Time) string {
	return Render(l.Dates.ForecastDay,
		"weekday", l.Dates.Weekdays[t.Weekday()],
		"day", strconv.Itoa(t.Day()),
	)
}
