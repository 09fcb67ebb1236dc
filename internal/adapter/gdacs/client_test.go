package gdacs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivanshCoding36/alert-aid/internal/cache"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:gdacs="http://www.gdacs.org" xmlns:georss="http://www.georss.org/georss">
  <channel>
    <title>GDACS RSS information</title>
    <item>
      <title>Green earthquake alert (Magnitude 5.4M) in Indonesia</title>
      <description>On 2026-08-28 there was an earthquake of 5.4M.</description>
      <link>https://www.gdacs.org/report.aspx?eventid=1470000</link>
      <pubDate>Fri, 28 Aug 2026 04:12:00 GMT</pubDate>
      <gdacs:eventid>1470000</gdacs:eventid>
      <gdacs:eventtype>EQ</gdacs:eventtype>
      <gdacs:alertlevel>Green</gdacs:alertlevel>
      <georss:point>-7.1 107.5</georss:point>
    </item>
    <item>
      <title>Orange tropical cyclone alert</title>
      <description>Tropical cyclone over the Bay of Bengal.</description>
      <link>https://www.gdacs.org/report.aspx?eventid=1470001</link>
      <pubDate>Fri, 28 Aug 2026 01:00:00 GMT</pubDate>
      <gdacs:eventid>1470001</gdacs:eventid>
      <gdacs:eventtype>TC</gdacs:eventtype>
      <gdacs:alertlevel>Orange</gdacs:alertlevel>
      <georss:point>15.2 88.9</georss:point>
    </item>
  </channel>
</rss>`

func testClient(baseURL string, c *cache.Cache[[]domain.GDACSAlert]) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
		cache:      c,
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	alerts := c.Fetch(context.Background())
	require.Len(t, alerts, 2)

	a := alerts[0]
	assert.Equal(t, "1470000", a.EventID)
	assert.Equal(t, "Earthquake", a.EventType)
	assert.Equal(t, "Green", a.AlertLevel)
	assert.Equal(t, -7.1, a.Geo.Lat)
	assert.Equal(t, 107.5, a.Geo.Lon)

	assert.Equal(t, "Cyclone", alerts[1].EventType)
	assert.Equal(t, "Orange", alerts[1].AlertLevel)
}

func TestClient_Fetch_EmptyOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	assert.Empty(t, c.Fetch(context.Background()))
}

func TestClient_Fetch_Cached(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL, cache.New[[]domain.GDACSAlert]("gdacs", 2, time.Minute, nil))
	c.Fetch(context.Background())
	c.Fetch(context.Background())
	assert.Equal(t, 1, calls)
}

func TestParsePoint(t *testing.T) {
	lat, lon, ok := parsePoint("12.5 -88.25")
	require.True(t, ok)
	assert.Equal(t, 12.5, lat)
	assert.Equal(t, -88.25, lon)

	_, _, ok = parsePoint("not a point")
	assert.False(t, ok)
}
