package internal

import (
	"fmt"
	"remind-lab/domain"
	"time"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath    string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string `env:"BLUGE_FILEPATH,required=true"`
	AnalyticsFilepath string `env:"ANALYTICS_FILEPATH,required=true"`
	LimitMessages     *int   `env:"LIMIT_MESSAGES"`

	Host       string `env:"HOST,default=0.0.0.0"`
	Port       int    `env:"PORT,default=5000"`
	GrpcPort   int    `env:"GRPC_PORT,default=5001"`
	DebugPort  int    `env:"DEBUG_PORT,default=8081"`
	EnableCORS bool   `env:"ENABLE_CORS,default=true"`

	NumberOfWorkers int           `env:"NUMBER_OF_WORKERS,required=true"`
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`
	TimelineSize    int           `env:"TIMELINE_SIZE,default=100"`

	ContextSenders int `env:"CONTEXT_SENDERS,default=1000"`
	ContextBudget  int `env:"CONTEXT_BUDGET,default=280"`

	TickInterval          time.Duration `env:"TICK_INTERVAL,default=1m"`
	MaxInflightDispatches int64         `env:"MAX_INFLIGHT_DISPATCHES,default=8"`
	MaxPendingDispatches  int           `env:"MAX_PENDING_DISPATCHES,default=256"`
	SendTimeout           time.Duration `env:"SEND_TIMEOUT,default=10s"`
	DrainTimeout          time.Duration `env:"DRAIN_TIMEOUT,default=15s"`
	WeatherDigestTime     string        `env:"WEATHER_DIGEST_TIME,default=08:00"`
	ForecastDays          int           `env:"FORECAST_DAYS,default=3"`
	SentKeep              int           `env:"SENT_KEEP,default=100"`

	WeatherGeocodingURL string        `env:"WEATHER_GEOCODING_URL"`
	WeatherForecastURL  string        `env:"WEATHER_FORECAST_URL"`
	WeatherTimeout      time.Duration `env:"WEATHER_TIMEOUT,default=5s"`
	WeatherCacheSize    int           `env:"WEATHER_CACHE_SIZE,default=128"`
	WeatherCacheTTL     time.Duration `env:"WEATHER_CACHE_TTL,default=30m"`

	CalendarSecret string `env:"CALENDAR_SECRET,required=true"`
	FallbackLang   string `env:"FALLBACK_LANGUAGE,default=es"`
}

// Validate checks what the environment parser cannot express.
func (c Config) Validate() error {
	if c.NumberOfWorkers <= 0 {
		return fmt.Errorf("NUMBER_OF_WORKERS must be positive, got %d", c.NumberOfWorkers)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d", c.BufferSize)
	}
	if _, _, err := domain.ParseClock(c.WeatherDigestTime); err != nil {
		return fmt.Errorf("WEATHER_DIGEST_TIME: %w", err)
	}
	if c.TickInterval <= 0 || c.TickInterval > time.Minute {
		return fmt.Errorf("TICK_INTERVAL must be within (0, 1m], got %s", c.TickInterval)
	}
	if c.ContextBudget <= 0 {
		return fmt.Errorf("CONTEXT_BUDGET must be positive, got %d", c.ContextBudget)
	}
	if len(c.CalendarSecret) < 16 {
		return fmt.Errorf("CALENDAR_SECRET must hold at least 16 characters")
	}
	return nil
}

func (c Config) FallbackLanguage() (domain.Language, error) {
	switch lang := domain.Language(c.FallbackLang); lang {
	case domain.Spanish, domain.English:
		return lang, nil
	default:
		return "", fmt.Errorf("FALLBACK_LANGUAGE %q is not supported", c.FallbackLang)
	}
}
