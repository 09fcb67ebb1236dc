package firms

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

const sampleCSV = `latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,confidence,version,bright_ti5,frp,daynight
37.05,-120.10,412.3,0.5,0.5,2026-07-14,0612,N,h,2.0NRT,290.1,120.4,N
37.90,-120.90,341.7,0.5,0.5,2026-07-14,0612,N,n,2.0NRT,288.3,24.0,N
38.40,-121.40,305.2,0.5,0.5,2026-07-14,0612,N,l,2.0NRT,285.0,4.1,N
`

func testClient(baseURL, mapKey string) *Client {
	return &Client{
		mapKey:     mapKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
		rng:        rand.New(rand.NewSource(1)),
	}
}

func TestParseCSV(t *testing.T) {
	lat, lon := 37.0, -120.0
	fires, err := parseCSV(strings.NewReader(sampleCSV), &lat, &lon)
	require.NoError(t, err)
	require.Len(t, fires, 3)

	assert.Equal(t, "extreme", fires[0].Intensity)
	assert.Equal(t, "high", fires[0].Confidence)
	assert.Equal(t, 412.3, fires[0].Brightness)
	assert.Equal(t, 120.4, fires[0].FRP)
	assert.Equal(t, "2026-07-14", fires[0].AcqDate)
	assert.Equal(t, "nasa_firms", fires[0].Source)
	require.NotNil(t, fires[0].DistanceKm)
	assert.InDelta(t, 10.4, *fires[0].DistanceKm, 1.0)

	assert.Equal(t, "moderate", fires[1].Intensity)
	assert.Equal(t, "nominal", fires[1].Confidence)
	assert.Equal(t, "low", fires[2].Intensity)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	_, err := parseCSV(strings.NewReader("bright_ti4,frp\n400,10\n"), nil, nil)
	assert.ErrorContains(t, err, "latitude")
}

func TestIntensityLabel(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		frp        float64
		want       string
	}{
		{"extreme by brightness", 405, 5, "extreme"},
		{"extreme by frp", 330, 150, "extreme"},
		{"high by brightness", 360, 10, "high"},
		{"high by frp", 300, 60, "high"},
		{"moderate", 325, 5, "moderate"},
		{"low", 310, 10, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intensityLabel(tt.brightness, tt.frp))
		})
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/test-key/VIIRS_SNPP_NRT/")
		assert.Contains(t, r.URL.Path, "-125.0,32.0,-115.0,42.0")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	lat, lon := 37.0, -120.0
	c := testClient(srv.URL, "test-key")
	fires := c.Fetch(context.Background(), &lat, &lon, 1)
	require.Len(t, fires, 3)

	// Nearest first.
	for i := 1; i < len(fires); i++ {
		assert.LessOrEqual(t, *fires[i-1].DistanceKm, *fires[i].DistanceKm)
	}
}

func TestClient_Fetch_NoMapKey(t *testing.T) {
	c := testClient("http://unused", "")
	fires := c.Fetch(context.Background(), nil, nil, 1)
	require.NotEmpty(t, fires)
	for _, f := range fires {
		assert.Equal(t, "simulated", f.Source)
	}
}

func TestClient_Fetch_FallbackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid map key", http.StatusForbidden)
	}))
	defer srv.Close()

	lat, lon := 37.0, -120.0
	c := testClient(srv.URL, "bad-key")
	fires := c.Fetch(context.Background(), &lat, &lon, 1)
	require.NotEmpty(t, fires)
	assert.Equal(t, "simulated", fires[0].Source)
}
