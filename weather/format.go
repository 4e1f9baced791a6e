package weather

import (
	"remind-lab/lexicon"
	"strconv"
	"strings"
)

var icons = map[int]string{
	0: "☀️", 1: "🌤️", 2: "⛅", 3: "☁️",
	45: "🌫️", 48: "🌫️",
	51: "🌦️", 53: "🌧️", 55: "🌧️",
	61: "🌦️", 63: "🌧️", 65: "🌧️",
	71: "🌨️", 73: "🌨️", 75: "🌨️", 77: "🌨️",
	80: "🌦️", 81: "🌧️", 82: "🌧️",
	85: "🌨️", 86: "🌨️",
	95: "⛈️", 96: "⛈️", 99: "⛈️",
}

// Icon returns the emoji of a WMO weather code.
func Icon(code int) string {
	if icon, ok := icons[code]; ok {
		return icon
	}
	return "❓"
}

// FormatCurrent renders the current conditions block.
func FormatCurrent(lex lexicon.Lexicon, c Conditions) string {
	return lexicon.Render(lex.Weather.Current,
		"icon", Icon(c.Code),
		"temperature", strconv.Itoa(c.Temperature),
		"wind", number(c.WindSpeed),
		"humidity", number(c.Humidity),
		"precipitation", number(c.Precipitation),
		"description", lex.Weather.Describe(c.Code),
	)
}

// FormatForecast renders the header followed by one block per day.
func FormatForecast(lex lexicon.Lexicon, days []DailyForecast) string {
	lines := make([]string, 0, len(days))
	for _, d := range days {
		lines = append(lines, lexicon.Render(lex.Weather.ForecastLine,
			"date", lex.ForecastDay(d.Date),
			"icon", Icon(d.Code),
			"temperature", strconv.Itoa(d.Temperature),
			"description", lex.Weather.Describe(d.Code),
		))
	}
	return lex.Weather.ForecastHeader + strings.Join(lines, "\n\n")
}

// Digest is the daily weather message: current conditions then the forecast.
func Digest(lex lexicon.Lexicon, r Report) string {
	if len(r.Forecast) == 0 {
		return FormatCurrent(lex, r.Current)
	}
	return FormatCurrent(lex, r.Current) + "\n\n" + FormatForecast(lex, r.Forecast)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
