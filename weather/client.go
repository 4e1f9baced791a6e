package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"remind-lab/errors"
	"remind-lab/observability"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

type Config struct {
	GeocodingURL string
	ForecastURL  string
	Timeout      time.Duration
	CacheSize    int
	CacheTTL     time.Duration
}

// Client talks to Open-Meteo. Reports are cached per location and day count
// for CacheTTL, the same digest being composed for many users of one city.
type Client struct {
	http    *http.Client
	cfg     Config
	cache   *expirable.LRU[string, Report]
	log     *slog.Logger
	metrics *observability.Metrics
}

var _ Provider = (*Client)(nil)

func NewClient(cfg Config, log *slog.Logger, metrics *observability.Metrics) *Client {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		cache:   expirable.NewLRU[string, Report](cfg.CacheSize, nil, cfg.CacheTTL),
		log:     log,
		metrics: metrics,
	}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		Precipitation float64 `json:"precipitation"`
		WeatherCode   int     `json:"weather_code"`
		WindSpeed     float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time             []string  `json:"time"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

func (c *Client) Report(ctx context.Context, location string, days int) (Report, error) {
	key := strings.ToLower(strings.TrimSpace(location)) + "|" + strconv.Itoa(days)
	if report, ok := c.cache.Get(key); ok {
		c.metrics.WeatherRequest("hit")
		return report, nil
	}

	report, err := c.fetch(ctx, location, days)
	if err != nil {
		c.metrics.WeatherRequest("error")
		return Report{}, err
	}
	c.metrics.WeatherRequest("miss")
	c.cache.Add(key, report)
	return report, nil
}

func (c *Client) fetch(ctx context.Context, location string, days int) (Report, error) {
	var geo geocodingResponse
	query := url.Values{"name": {location}, "count": {"1"}}
	if err := c.getJSON(ctx, c.cfg.GeocodingURL, query, &geo); err != nil {
		return Report{}, err
	}
	if len(geo.Results) == 0 {
		return Report{}, fmt.Errorf("%w: %s", errors.ErrLocationNotFound, location)
	}
	place := geo.Results[0]

	var data forecastResponse
	query = url.Values{
		"latitude":      {strconv.FormatFloat(place.Latitude, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(place.Longitude, 'f', -1, 64)},
		"current":       {"temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m"},
		"daily":         {"temperature_2m_max,precipitation_sum,weather_code"},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(max(days, 1))},
	}
	if err := c.getJSON(ctx, c.cfg.ForecastURL, query, &data); err != nil {
		return Report{}, err
	}

	report := Report{
		Location: place.Name,
		Current: Conditions{
			Temperature:   round(data.Current.Temperature),
			Humidity:      data.Current.Humidity,
			Precipitation: data.Current.Precipitation,
			WindSpeed:     data.Current.WindSpeed,
			Code:          data.Current.WeatherCode,
		},
	}
	daily := data.Daily
	n := min(days, len(daily.Time), len(daily.TemperatureMax), len(daily.PrecipitationSum), len(daily.WeatherCode))
	for i := 0; i < n; i++ {
		date, err := time.Parse(time.DateOnly, daily.Time[i])
		if err != nil {
			c.log.Debug("Skipping forecast day", "date", daily.Time[i], "error", err)
			continue
		}
		report.Forecast = append(report.Forecast, DailyForecast{
			Date: date,
			Conditions: Conditions{
				Temperature:   round(daily.TemperatureMax[i]),
				Precipitation: daily.PrecipitationSum[i],
				Code:          daily.WeatherCode[i],
			},
		})
	}
	return report, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrWeatherUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", errors.ErrWeatherUnavailable, endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", errors.ErrWeatherUnavailable, endpoint, err)
	}
	return nil
}

func round(v float64) int {
	return int(math.Round(v))
}
