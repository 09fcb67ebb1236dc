// Package overpass finds emergency facilities near a point via the
// OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// defaultRadiusMeters bounds the facility search when no radius is given.
const defaultRadiusMeters = 5000

// Client queries the Overpass API for hospitals, shelters, police stations,
// and fire stations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *cache.Cache[[]domain.Facility]
}

// NewClient creates an Overpass client.
func NewClient(timeout time.Duration, c *cache.Cache[[]domain.Facility], logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://overpass-api.de/api/interpreter",
		logger:     logger,
		metrics:    metrics,
		cache:      c,
	}
}

// Facilities returns emergency facilities within radiusM meters of the
// point, nearest first. A non-positive radius falls back to 5 km.
func (c *Client) Facilities(ctx context.Context, lat, lon float64, radiusM int) ([]domain.Facility, error) {
	if radiusM <= 0 {
		radiusM = defaultRadiusMeters
	}
	key := fmt.Sprintf("%.3f,%.3f,%d", lat, lon, radiusM)
	if c.cache != nil {
		if fs, ok := c.cache.Get(key); ok {
			return fs, nil
		}
	}

	fs, err := c.doRequest(ctx, lat, lon, radiusM)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("overpass", "error").Inc()
		return nil, err
	}

	c.metrics.UpstreamRequests.WithLabelValues("overpass", "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, fs)
	}
	return fs, nil
}

func (c *Client) doRequest(ctx context.Context, lat, lon float64, radiusM int) ([]domain.Facility, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"="hospital"](around:%[1]d,%[2]f,%[3]f);
  way["amenity"="hospital"](around:%[1]d,%[2]f,%[3]f);
  node["amenity"="police"](around:%[1]d,%[2]f,%[3]f);
  node["amenity"="fire_station"](around:%[1]d,%[2]f,%[3]f);
  node["emergency"="assembly_point"](around:%[1]d,%[2]f,%[3]f);
  node["amenity"="shelter"](around:%[1]d,%[2]f,%[3]f);
);
out center;`, radiusM, lat, lon)

	began := time.Now()
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues("overpass").Observe(time.Since(began).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var or overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	facilities := make([]domain.Facility, 0, len(or.Elements))
	for _, el := range or.Elements {
		elLat, elLon := el.Lat, el.Lon
		if elLat == 0 && elLon == 0 && el.Center != nil {
			elLat, elLon = el.Center.Lat, el.Center.Lon
		}
		if elLat == 0 && elLon == 0 {
			continue
		}

		kind := facilityKind(el.Tags)
		if kind == "" {
			continue
		}

		name := el.Tags["name"]
		if name == "" {
			name = "Unnamed " + strings.ReplaceAll(kind, "_", " ")
		}

		facilities = append(facilities, domain.Facility{
			Name:       name,
			Kind:       kind,
			Geo:        domain.Geo{Lat: elLat, Lon: elLon},
			DistanceKm: domain.Haversine(lat, lon, elLat, elLon),
		})
	}

	sort.SliceStable(facilities, func(i, j int) bool {
		return facilities[i].DistanceKm < facilities[j].DistanceKm
	})
	return facilities, nil
}

func facilityKind(tags map[string]string) string {
	switch tags["amenity"] {
	case "hospital":
		return "hospital"
	case "police":
		return "police"
	case "fire_station":
		return "fire_station"
	case "shelter":
		return "shelter"
	}
	if tags["emergency"] == "assembly_point" {
		return "shelter"
	}
	return ""
}

type overpassResponse struct {
	Elements []struct {
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}
