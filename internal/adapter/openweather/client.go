// Package openweather fetches current conditions and short-range forecasts
// from the OpenWeatherMap API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Client queries OpenWeatherMap. Without an API key, or when the upstream
// call fails, it serves a fixed monsoon-conditions snapshot marked with
// Source "simulated" so the risk models stay exercisable.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *cache.Cache[Observation]
}

// Observation bundles the two upstream calls made per location.
type Observation struct {
	Snapshot domain.WeatherSnapshot `json:"snapshot"`
	Outlook  domain.WeatherOutlook  `json:"outlook"`
}

// NewClient creates an OpenWeatherMap client. An empty apiKey puts the
// client in simulation-only mode.
func NewClient(apiKey string, timeout time.Duration, c *cache.Cache[Observation], logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.openweathermap.org/data/2.5",
		logger:     logger,
		metrics:    metrics,
		cache:      c,
	}
}

// Observe returns current conditions and the 24-hour outlook for a point.
func (c *Client) Observe(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, domain.WeatherOutlook) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)
	if c.cache != nil {
		if obs, ok := c.cache.Get(key); ok {
			return obs.Snapshot, obs.Outlook
		}
	}

	if c.apiKey == "" {
		return simulatedObservation()
	}

	snap, err := c.current(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("openweather request failed, serving simulated conditions", "error", err)
		c.metrics.UpstreamRequests.WithLabelValues("openweather", "fallback").Inc()
		return simulatedObservation()
	}

	outlook, err := c.outlook(ctx, lat, lon)
	if err != nil {
		// The forecast call is best-effort; current conditions still stand.
		c.logger.Warn("openweather forecast failed", "error", err)
		outlook = domain.WeatherOutlook{}
	}

	c.metrics.UpstreamRequests.WithLabelValues("openweather", "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, Observation{Snapshot: snap, Outlook: outlook})
	}
	return snap, outlook
}

func (c *Client) current(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	var resp currentResponse
	if err := c.get(ctx, "/weather", lat, lon, &resp); err != nil {
		return domain.WeatherSnapshot{}, err
	}

	snap := domain.WeatherSnapshot{
		Rainfall1h:  resp.Rain.OneH,
		Rainfall3h:  resp.Rain.ThreeH,
		Humidity:    resp.Main.Humidity,
		Temperature: resp.Main.Temp,
		Pressure:    resp.Main.Pressure,
		WindSpeed:   resp.Wind.Speed,
		CloudCover:  resp.Clouds.All,
		ObservedAt:  domain.Now().UTC(),
		Source:      "openweathermap",
	}
	if resp.Name != "" {
		snap.LocationName = resp.Name
	}
	if len(resp.Weather) > 0 {
		snap.Condition = strings.ToLower(resp.Weather[0].Main)
		snap.ConditionDetail = resp.Weather[0].Description
	}
	return snap, nil
}

// outlook sums rainfall over the first eight 3-hour forecast slots and
// tracks the heaviest slot converted to a per-hour rate.
func (c *Client) outlook(ctx context.Context, lat, lon float64) (domain.WeatherOutlook, error) {
	var resp forecastResponse
	if err := c.get(ctx, "/forecast", lat, lon, &resp); err != nil {
		return domain.WeatherOutlook{}, err
	}

	var out domain.WeatherOutlook
	slots := resp.List
	if len(slots) > 8 {
		slots = slots[:8]
	}
	for _, s := range slots {
		out.Rainfall24h += s.Rain.ThreeH
		if rate := s.Rain.ThreeH / 3; rate > out.MaxIntensity {
			out.MaxIntensity = rate
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lon float64, out any) error {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("openweather", "error").Inc()
		return fmt.Errorf("openweather request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues("openweather").Observe(time.Since(began).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues("openweather", "error").Inc()
		return fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// simulatedObservation reproduces heavy monsoon conditions so the flood
// models produce meaningful scores without upstream access.
func simulatedObservation() (domain.WeatherSnapshot, domain.WeatherOutlook) {
	snap := domain.WeatherSnapshot{
		Rainfall1h:      5.2,
		Rainfall3h:      12.8,
		Humidity:        85,
		Temperature:     28,
		Pressure:        1008,
		WindSpeed:       12,
		CloudCover:      78,
		Condition:       "rain",
		ConditionDetail: "moderate rain",
		ObservedAt:      domain.Now().UTC(),
		Source:          "simulated",
	}
	return snap, domain.WeatherOutlook{Rainfall24h: 45, MaxIntensity: 8.5}
}

// OpenWeatherMap response types.

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List []struct {
		Rain struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}
