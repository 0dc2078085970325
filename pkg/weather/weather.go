// Package weather fetches current conditions from OpenWeather and caches
// them per coordinate pair. The cache exists because the solar status
// endpoint is polled by dashboards far more often than conditions change.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattbill/wattbill/pkg/common"
	"github.com/wattbill/wattbill/pkg/log"
	"github.com/wattbill/wattbill/pkg/types"
)

// Source supplies a weather snapshot for a coordinate pair. The server
// depends on this interface so tests can substitute a mock.
type Source interface {
	Current(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error)
}

// Service implements Source against the OpenWeather current-conditions API.
type Service struct {
	apiURL    string
	apiKey    string
	freshness time.Duration
	client    *http.Client

	mu    sync.Mutex
	cache map[coord]types.WeatherSnapshot

	// now is swappable for tests
	now func() time.Time
}

type coord struct {
	lat, lon float64
}

// Configured sets up the weather service and registers its flags.
func Configured() *Service {
	s := &Service{
		client: common.HTTPClient(10 * time.Second),
		cache:  make(map[coord]types.WeatherSnapshot),
		now:    time.Now,
	}
	apiURL := lflag.String("openweather-api-url", "https://api.openweathermap.org/data/2.5/weather", "URL for the OpenWeather current conditions API")
	apiKey := lflag.String("openweather-api-key", "", "API key for OpenWeather")
	freshness := lflag.Duration("weather-freshness", 30*time.Minute, "How long a fetched weather snapshot stays valid for reuse")

	lflag.Do(func() {
		s.apiURL = *apiURL
		s.apiKey = *apiKey
		s.freshness = *freshness
		if err := s.Validate(); err != nil {
			panic(fmt.Sprintf("weather validation failed: %v", err))
		}
	})

	return s
}

// Validate ensures the configuration is usable. A missing API key is not an
// error here: deployments without solar never fetch, and fetch reports it.
func (s *Service) Validate() error {
	if s.apiURL == "" {
		return fmt.Errorf("openweather-api-url is required")
	}
	if _, err := url.Parse(s.apiURL); err != nil {
		return fmt.Errorf("failed to parse openweather url (%s): %w", s.apiURL, err)
	}
	if s.freshness <= 0 {
		return fmt.Errorf("weather-freshness must be positive")
	}
	return nil
}

// owResponse is the subset of the OpenWeather payload we read.
type owResponse struct {
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// Current returns a snapshot for the coordinates, reusing a cached one while
// it is fresh. A provider failure on cache miss propagates to the caller;
// there is no retry here.
func (s *Service) Current(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error) {
	key := coord{lat: lat, lon: lon}

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok && s.now().Sub(cached.FetchedAt) < s.freshness {
		return cached, nil
	}

	snap, err := s.fetch(ctx, lat, lon)
	if err != nil {
		return types.WeatherSnapshot{}, err
	}

	// a concurrent fetch for the same coordinates may race us here; last
	// writer wins and both snapshots are equally valid
	s.mu.Lock()
	s.cache[key] = snap
	s.mu.Unlock()

	return snap, nil
}

func (s *Service) fetch(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error) {
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetching weather",
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
	)

	if s.apiKey == "" {
		return types.WeatherSnapshot{}, fmt.Errorf("openweather-api-key is not configured")
	}

	u, err := url.Parse(s.apiURL)
	if err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("failed to parse openweather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("weather fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.WeatherSnapshot{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var body owResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.WeatherSnapshot{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return types.WeatherSnapshot{
		Latitude:      lat,
		Longitude:     lon,
		CloudCoverPct: body.Clouds.All,
		Sunrise:       time.Unix(body.Sys.Sunrise, 0).UTC(),
		Sunset:        time.Unix(body.Sys.Sunset, 0).UTC(),
		FetchedAt:     s.now(),
	}, nil
}
