// Package gdacs fetches the GDACS global disaster alert feed.
package gdacs

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Client reads the GDACS RSS feed. The feed needs no credentials; on
// upstream failure the client returns an empty list rather than an error
// since GDACS entries are supplementary to the primary hazard sources.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
	cache      *cache.Cache[[]domain.GDACSAlert]
}

// NewClient creates a GDACS feed client.
func NewClient(timeout time.Duration, c *cache.Cache[[]domain.GDACSAlert], logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://www.gdacs.org/xml/rss.xml",
		logger:     logger,
		metrics:    metrics,
		cache:      c,
	}
}

// Fetch returns up to 30 current GDACS alerts.
func (c *Client) Fetch(ctx context.Context) []domain.GDACSAlert {
	const key = "feed"
	if c.cache != nil {
		if alerts, ok := c.cache.Get(key); ok {
			return alerts
		}
	}

	alerts, err := c.doRequest(ctx)
	if err != nil {
		c.logger.Warn("gdacs feed fetch failed", "error", err)
		c.metrics.UpstreamRequests.WithLabelValues("gdacs", "error").Inc()
		return nil
	}

	c.metrics.UpstreamRequests.WithLabelValues("gdacs", "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, alerts)
	}
	return alerts
}

func (c *Client) doRequest(ctx context.Context) ([]domain.GDACSAlert, error) {
	began := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdacs request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues("gdacs").Observe(time.Since(began).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gdacs feed error: status %d: %s", resp.StatusCode, body)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	items := feed.Channel.Items
	if len(items) > 30 {
		items = items[:30]
	}

	alerts := make([]domain.GDACSAlert, 0, len(items))
	for _, it := range items {
		a := domain.GDACSAlert{
			EventID:     it.EventID,
			EventType:   eventTypeName(it.EventType),
			AlertLevel:  it.AlertLevel,
			Title:       it.Title,
			Description: it.Description,
			PubDate:     it.PubDate,
			Link:        it.Link,
		}
		if lat, lon, ok := parsePoint(it.Point); ok {
			a.Geo = domain.Geo{Lat: lat, Lon: lon}
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// parsePoint splits a georss:point value ("lat lon").
func parsePoint(s string) (lat, lon float64, ok bool) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lon, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// eventTypeName expands the GDACS two-letter event codes.
func eventTypeName(code string) string {
	switch code {
	case "EQ":
		return "Earthquake"
	case "FL":
		return "Flood"
	case "TC":
		return "Cyclone"
	case "DR":
		return "Drought"
	case "WF":
		return "Wildfire"
	case "VO":
		return "Volcano"
	case "TS":
		return "Tsunami"
	default:
		return code
	}
}

// GDACS RSS feed types. The feed uses the gdacs: and georss: namespaces.

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	EventID     string `xml:"eventid"`
	EventType   string `xml:"eventtype"`
	AlertLevel  string `xml:"alertlevel"`
	Point       string `xml:"point"`
}
