// Package usgs fetches earthquake catalogs from the USGS FDSN event service.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Client queries the USGS earthquake catalog. When the upstream request
// fails it returns a simulated catalog so downstream dashboards keep
// rendering; results are marked with Source "simulated".
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *cache.Cache[[]domain.Earthquake]
	rng        *rand.Rand
}

// NewClient creates a USGS catalog client.
func NewClient(timeout time.Duration, c *cache.Cache[[]domain.Earthquake], logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://earthquake.usgs.gov/fdsnws/event/1/query",
		logger:     logger,
		metrics:    metrics,
		cache:      c,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns earthquakes matching the query, newest first. A failed
// upstream call degrades to a simulated catalog rather than an error.
func (c *Client) Fetch(ctx context.Context, q domain.EarthquakeQuery) []domain.Earthquake {
	key := cacheKey(q)
	if c.cache != nil {
		if quakes, ok := c.cache.Get(key); ok {
			return quakes
		}
	}

	quakes, err := c.doRequest(ctx, q)
	if err != nil {
		c.logger.Warn("usgs request failed, serving simulated catalog", "error", err)
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "fallback").Inc()
		return domain.SimulateEarthquakes(c.rng, q)
	}

	c.metrics.UpstreamRequests.WithLabelValues("usgs", "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, quakes)
	}
	return quakes
}

func (c *Client) doRequest(ctx context.Context, q domain.EarthquakeQuery) ([]domain.Earthquake, error) {
	days := q.Days
	if days <= 0 {
		days = 7
	}
	start := domain.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format("2006-01-02")},
		"minmagnitude": {strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
		"limit":        {"100"},
	}
	if q.Lat != nil && q.Lon != nil {
		params.Set("latitude", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
		params.Set("longitude", strconv.FormatFloat(*q.Lon, 'f', -1, 64))
		radius := 500.0
		if q.RadiusKm != nil {
			radius = *q.RadiusKm
		}
		params.Set("maxradiuskm", strconv.FormatFloat(radius, 'f', -1, 64))
	}

	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "error").Inc()
		return nil, fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues("usgs").Observe(time.Since(began).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues("usgs", "error").Inc()
		return nil, fmt.Errorf("usgs API error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	quakes := make([]domain.Earthquake, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 3 {
			continue
		}
		eq := domain.Earthquake{
			ID:        f.ID,
			Magnitude: f.Properties.Mag,
			Geo: domain.Geo{
				Lat: f.Geometry.Coordinates[1],
				Lon: f.Geometry.Coordinates[0],
			},
			DepthKm:       f.Geometry.Coordinates[2],
			Place:         f.Properties.Place,
			Time:          time.UnixMilli(f.Properties.Time).UTC(),
			Updated:       time.UnixMilli(f.Properties.Updated).UTC(),
			URL:           f.Properties.URL,
			DetailURL:     f.Properties.Detail,
			Type:          f.Properties.Type,
			Significance:  f.Properties.Sig,
			AlertLevel:    f.Properties.Alert,
			Tsunami:       f.Properties.Tsunami == 1,
			FeltReports:   f.Properties.Felt,
			Intensity:     f.Properties.CDI,
			MMI:           f.Properties.MMI,
			MagnitudeType: f.Properties.MagType,
			Source:        "usgs",
		}
		if eq.Type == "" {
			eq.Type = "earthquake"
		}
		quakes = append(quakes, eq)
	}
	return quakes, nil
}

func cacheKey(q domain.EarthquakeQuery) string {
	key := fmt.Sprintf("mag=%.1f:days=%d", q.MinMagnitude, q.Days)
	if q.Lat != nil && q.Lon != nil {
		radius := 500.0
		if q.RadiusKm != nil {
			radius = *q.RadiusKm
		}
		key += fmt.Sprintf(":at=%.2f,%.2f:r=%.0f", *q.Lat, *q.Lon, radius)
	}
	return key
}

// USGS GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag     float64 `json:"mag"`
		Place   string  `json:"place"`
		Time    int64   `json:"time"`
		Updated int64   `json:"updated"`
		URL     string  `json:"url"`
		Detail  string  `json:"detail"`
		Type    string  `json:"type"`
		Sig     int     `json:"sig"`
		Alert   string  `json:"alert"`
		Tsunami int     `json:"tsunami"`
		Felt    int     `json:"felt"`
		CDI     float64 `json:"cdi"`
		MMI     float64 `json:"mmi"`
		MagType string  `json:"magType"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
	} `json:"geometry"`
}
