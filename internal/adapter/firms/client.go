// Package firms fetches VIIRS active-fire detections from NASA FIRMS.
package firms

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Client queries the FIRMS area API (CSV). Without a map key, or when the
// upstream call fails, it serves a simulated hotspot cluster marked with
// Source "simulated".
type Client struct {
	mapKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *cache.Cache[[]domain.FireHotspot]
	rng        *rand.Rand
}

// NewClient creates a FIRMS client. An empty mapKey puts the client in
// simulation-only mode.
func NewClient(mapKey string, timeout time.Duration, c *cache.Cache[[]domain.FireHotspot], logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		mapKey:     mapKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://firms.modaps.eosdis.nasa.gov/api/area/csv",
		logger:     logger,
		metrics:    metrics,
		cache:      c,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns active-fire detections from the last dayRange days. When
// lat/lon are set the search area is a 10-degree box around the point and
// results are sorted nearest first; otherwise the area is worldwide.
func (c *Client) Fetch(ctx context.Context, lat, lon *float64, dayRange int) []domain.FireHotspot {
	if dayRange <= 0 {
		dayRange = 1
	}
	key := fmt.Sprintf("world:%d", dayRange)
	if lat != nil && lon != nil {
		key = fmt.Sprintf("%.2f,%.2f:%d", *lat, *lon, dayRange)
	}
	if c.cache != nil {
		if fires, ok := c.cache.Get(key); ok {
			return fires
		}
	}

	if c.mapKey == "" {
		return domain.SimulateFires(c.rng, lat, lon)
	}

	fires, err := c.doRequest(ctx, lat, lon, dayRange)
	if err != nil {
		c.logger.Warn("firms request failed, serving simulated hotspots", "error", err)
		c.metrics.UpstreamRequests.WithLabelValues("firms", "fallback").Inc()
		return domain.SimulateFires(c.rng, lat, lon)
	}

	c.metrics.UpstreamRequests.WithLabelValues("firms", "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, fires)
	}
	return fires
}

func (c *Client) doRequest(ctx context.Context, lat, lon *float64, dayRange int) ([]domain.FireHotspot, error) {
	area := "world"
	if lat != nil && lon != nil {
		// FIRMS bbox order is west,south,east,north.
		area = fmt.Sprintf("%.1f,%.1f,%.1f,%.1f", *lon-5, *lat-5, *lon+5, *lat+5)
	}
	u := fmt.Sprintf("%s/%s/VIIRS_SNPP_NRT/%s/%d", c.baseURL, c.mapKey, area, dayRange)

	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("firms", "error").Inc()
		return nil, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues("firms").Observe(time.Since(began).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues("firms", "error").Inc()
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, body)
	}

	fires, err := parseCSV(resp.Body, lat, lon)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		domain.SortFiresByDistance(fires)
	}
	if len(fires) > 100 {
		fires = fires[:100]
	}
	return fires, nil
}

// parseCSV reads the FIRMS CSV by header name so column reordering between
// product versions does not break the parse.
func parseCSV(r io.Reader, lat, lon *float64) ([]domain.FireHotspot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"latitude", "longitude"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing %s column", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	num := func(rec []string, name string) float64 {
		v, _ := strconv.ParseFloat(field(rec, name), 64)
		return v
	}

	var fires []domain.FireHotspot
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		fireLat, err := strconv.ParseFloat(field(rec, "latitude"), 64)
		if err != nil {
			continue
		}
		fireLon, err := strconv.ParseFloat(field(rec, "longitude"), 64)
		if err != nil {
			continue
		}

		brightness := num(rec, "bright_ti4")
		frp := num(rec, "frp")
		f := domain.FireHotspot{
			Geo:        domain.Geo{Lat: fireLat, Lon: fireLon},
			Brightness: brightness,
			FRP:        frp,
			Confidence: confidenceLabel(field(rec, "confidence")),
			Intensity:  intensityLabel(brightness, frp),
			AcqDate:    field(rec, "acq_date"),
			AcqTime:    field(rec, "acq_time"),
			Source:     "nasa_firms",
		}
		if lat != nil && lon != nil {
			d := domain.Haversine(*lat, *lon, fireLat, fireLon)
			f.DistanceKm = &d
		}
		fires = append(fires, f)
	}
	return fires, nil
}

// confidenceLabel expands the VIIRS single-letter confidence codes.
func confidenceLabel(v string) string {
	switch v {
	case "l":
		return "low"
	case "n":
		return "nominal"
	case "h":
		return "high"
	default:
		return v
	}
}

// intensityLabel classifies a detection by brightness temperature (Kelvin)
// and fire radiative power (MW).
func intensityLabel(brightness, frp float64) string {
	switch {
	case brightness > 400 || frp > 100:
		return "extreme"
	case brightness > 350 || frp > 50:
		return "high"
	case brightness > 320 || frp > 20:
		return "moderate"
	default:
		return "low"
	}
}
