//go:generate go run go.uber.org/mock/mockgen -source=provider.go -destination=../mocks/mock_weather_provider.go -package=mocks
package weather

import (
	"context"
	"time"
)

// Conditions are the values of one observation or one forecast day.
// Temperatures are rounded to whole degrees Celsius.
type Conditions struct {
	Temperature   int
	Humidity      float64
	Precipitation float64
	WindSpeed     float64
	Code          int
}

type DailyForecast struct {
	Date time.Time
	Conditions
}

// Report is the current weather of a place plus its next days.
type Report struct {
	Location string
	Current  Conditions
	Forecast []DailyForecast
}

// Provider resolves a free-text location into a weather report.
type Provider interface {
	Report(ctx context.Context, location string, days int) (Report, error)
}
