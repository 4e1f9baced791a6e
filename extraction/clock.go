package extraction

import (
	"strconv"
	"strings"
	"time"
)

type clockTime struct {
	hour   int
	minute int
}

// parseClock validates one clock match. Groups: 1 lead, 2 hour, 3 minutes, 4 suffix.
// A bare number is only a time when minutes, a suffix or a lead-in come with it.
func parseClock(text string, m []int) (clockTime, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}
	lead, hourStr, minuteStr, suffix := group(1), group(2), group(3), strings.ToLower(group(4))

	// Reject digits glued to a longer number such as "1234" or "3/4".
	if end := m[5]; end < len(text) && (isDigit(text[end]) || text[end] == '/') && minuteStr == "" {
		return clockTime{}, false
	}
	if start := m[4]; start > 0 && (text[start-1] == '/' || text[start-1] == ':') {
		return clockTime{}, false
	}
	if lead == "" && minuteStr == "" && suffix == "" {
		return clockTime{}, false
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return clockTime{}, false
	}
	minute := 0
	if minuteStr != "" {
		if minute, err = strconv.Atoi(minuteStr); err != nil {
			return clockTime{}, false
		}
	}

	switch suffix {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return clockTime{}, false
	}
	return clockTime{hour: hour, minute: minute}, true
}

// parseDayFirst reads "DD/MM" or "DD/MM/YYYY". The year defaults to now's year.
// The date is returned at midnight in now's location.
func parseDayFirst(literal string, now time.Time) (time.Time, bool) {
	parts := strings.Split(literal, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	year := now.Year()
	if len(parts) == 3 {
		if year, err = strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}
	return date, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
