package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivanshCoding36/alert-aid/internal/aggregate"
	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/flood"
	"github.com/ShivanshCoding36/alert-aid/internal/hazard"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

type stubWeather struct {
	wx      domain.WeatherSnapshot
	outlook domain.WeatherOutlook
}

func (s *stubWeather) Observe(_ context.Context, _, _ float64) (domain.WeatherSnapshot, domain.WeatherOutlook) {
	return s.wx, s.outlook
}

type stubQuakes struct {
	lastQuery domain.EarthquakeQuery
	quakes    []domain.Earthquake
}

func (s *stubQuakes) Fetch(_ context.Context, q domain.EarthquakeQuery) []domain.Earthquake {
	s.lastQuery = q
	return s.quakes
}

type stubGDACS struct{ feed []domain.GDACSAlert }

func (s *stubGDACS) Fetch(_ context.Context) []domain.GDACSAlert { return s.feed }

type stubFires struct{ fires []domain.FireHotspot }

func (s *stubFires) Fetch(_ context.Context, _, _ *float64, _ int) []domain.FireHotspot {
	return s.fires
}

type stubDischarge struct {
	value float64
	ok    bool
}

func (s *stubDischarge) Discharge(_ context.Context, _, _ float64) (float64, bool) {
	return s.value, s.ok
}

type stubFacilities struct {
	facilities  []domain.Facility
	err         error
	lastRadiusM int
}

func (s *stubFacilities) Facilities(_ context.Context, _, _ float64, radiusM int) ([]domain.Facility, error) {
	s.lastRadiusM = radiusM
	return s.facilities, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	logger := testLogger()
	metrics := observability.NewMetricsForTesting()

	if deps.Weather == nil {
		deps.Weather = &stubWeather{}
	}
	if deps.Quakes == nil {
		deps.Quakes = &stubQuakes{}
	}
	if deps.GDACS == nil {
		deps.GDACS = &stubGDACS{}
	}
	if deps.Fires == nil {
		deps.Fires = &stubFires{}
	}
	if deps.Discharge == nil {
		deps.Discharge = &stubDischarge{}
	}
	if deps.Facilities == nil {
		deps.Facilities = &stubFacilities{}
	}
	if deps.Predictor == nil {
		deps.Predictor = flood.NewPredictor(logger, metrics)
	}
	if deps.Detector == nil {
		deps.Detector = flood.NewDetector()
	}
	if deps.Engine == nil {
		deps.Engine = alerts.NewEngine(logger, metrics, nil, nil)
	}
	if deps.Hazards == nil {
		svc, err := hazard.NewService(logger)
		require.NoError(t, err)
		deps.Hazards = svc
	}
	if deps.Aggregate == nil {
		deps.Aggregate = aggregate.NewService(deps.Quakes, deps.GDACS, deps.Fires, deps.Weather, logger)
	}

	return NewServer(":0", deps, logger, metrics)
}

func doRequest(t *testing.T, s *Server, method, target string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), "body: %s", rec.Body.String())
	return rec, doc
}

func TestHealthAndReadiness(t *testing.T) {
	s := testServer(t, Deps{})

	rec, doc := doRequest(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", doc["status"])

	rec, doc = doRequest(t, s, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", doc["status"])
}

func TestReadinessWithoutModels(t *testing.T) {
	logger := testLogger()
	metrics := observability.NewMetricsForTesting()
	s := NewServer(":0", Deps{}, logger, metrics)

	rec, doc := doRequest(t, s, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", doc["status"])
}

func TestEarthquakesEndpoint(t *testing.T) {
	quakes := &stubQuakes{quakes: []domain.Earthquake{
		{ID: "us7000abcd", Magnitude: 6.1, Place: "Kermadec Islands"},
		{ID: "us7000abce", Magnitude: 5.2, Place: "Mindanao"},
	}}
	s := testServer(t, Deps{Quakes: quakes})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/external/earthquakes?min_magnitude=5&days=3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, float64(2), doc["count"])
	assert.Equal(t, 5.0, quakes.lastQuery.MinMagnitude)
	assert.Equal(t, 3, quakes.lastQuery.Days)
}

func TestEarthquakesEndpointRejectsBadParams(t *testing.T) {
	s := testServer(t, Deps{})

	for _, target := range []string{
		"/api/external/earthquakes?min_magnitude=eleven",
		"/api/external/earthquakes?min_magnitude=42",
		"/api/external/earthquakes?days=0",
	} {
		rec, doc := doRequest(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, false, doc["success"], target)
	}
}

func TestRecentEarthquakesWindow(t *testing.T) {
	quakes := &stubQuakes{}
	s := testServer(t, Deps{Quakes: quakes})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/external/earthquakes/recent?time_window_hours=72", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(72), doc["time_window_hours"])
	assert.Equal(t, 3, quakes.lastQuery.Days)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/external/earthquakes/recent?time_window_hours=200", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEarthquakesNearEndpoint(t *testing.T) {
	quakes := &stubQuakes{}
	s := testServer(t, Deps{Quakes: quakes})

	rec, _ := doRequest(t, s, http.MethodGet, "/api/external/earthquakes/location/26.2/92.9?radius_km=250", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, quakes.lastQuery.Lat)
	require.NotNil(t, quakes.lastQuery.RadiusKm)
	assert.Equal(t, 26.2, *quakes.lastQuery.Lat)
	assert.Equal(t, 92.9, *quakes.lastQuery.Lon)
	assert.Equal(t, 250.0, *quakes.lastQuery.RadiusKm)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/external/earthquakes/location/91.0/92.9", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIMDWarningsEndpoint(t *testing.T) {
	weather := &stubWeather{wx: domain.WeatherSnapshot{
		Rainfall1h: 35,
		WindSpeed:  20,
		Condition:  "rain",
		Source:     "openweathermap",
	}}
	s := testServer(t, Deps{Weather: weather})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/external/imd-warnings?lat=19.07&lon=72.87", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, doc["success"])
	warnings, ok := doc["warnings"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, warnings)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/external/imd-warnings", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictEndpointGet(t *testing.T) {
	weather := &stubWeather{
		wx:      domain.WeatherSnapshot{Rainfall1h: 12, Humidity: 90, Source: "openweathermap"},
		outlook: domain.WeatherOutlook{Rainfall24h: 80, MaxIntensity: 15},
	}
	s := testServer(t, Deps{Weather: weather, Discharge: &stubDischarge{value: 900, ok: true}})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/flood/predict?lat=26.14&lon=91.73", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, doc["success"])

	pred, ok := doc["prediction"].(map[string]any)
	require.True(t, ok)
	prob, ok := pred["flood_probability"].(float64)
	require.True(t, ok)
	assert.Greater(t, prob, 0.0)
	assert.LessOrEqual(t, prob, 1.0)
	assert.Contains(t, []string{"low", "medium", "high", "severe"}, pred["risk_level"])
}

func TestPredictEndpointPost(t *testing.T) {
	s := testServer(t, Deps{})

	body := strings.NewReader(`{
		"rainfall_history": [2, 4, 8, 14, 22, 30],
		"rainfall_24h": 90,
		"rainfall_intensity": 25,
		"soil_moisture": 85,
		"distance_to_river_m": 300,
		"elevation_m": 40
	}`)
	rec, doc := doRequest(t, s, http.MethodPost, "/api/flood/predict", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, doc["success"])

	rec, _ = doRequest(t, s, http.MethodPost, "/api/flood/predict", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnomalyEndpointPost(t *testing.T) {
	s := testServer(t, Deps{})

	body := strings.NewReader(`{
		"rainfall": [2, 2, 3, 28, 34, 41],
		"humidity": [70, 75, 82, 90, 93, 95]
	}`)
	rec, doc := doRequest(t, s, http.MethodPost, "/api/flood/anomaly", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	report, ok := doc["report"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, []string{"normal", "watch", "warning", "critical"}, report["alert_level"])
}

func TestSmartAlertPost(t *testing.T) {
	s := testServer(t, Deps{})

	body := strings.NewReader(`{
		"lat": 26.14,
		"lon": 91.73,
		"district": "Kamrup",
		"region_type": "riverine",
		"conditions": {"rainfall_24h": 120, "rainfall_intensity": 30, "distance_to_river_m": 200},
		"readings": {"rainfall": [2, 2, 2, 30, 35, 40]}
	}`)
	rec, doc := doRequest(t, s, http.MethodPost, "/api/flood/alerts/smart", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, doc["success"])
	require.Equal(t, true, doc["alert_generated"])

	alert, ok := doc["alert"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, []string{"watch", "warning", "severe", "critical"}, alert["severity"])
	assert.Equal(t, "Kamrup", alert["district"])
}

func TestSmartAlertCalmConditions(t *testing.T) {
	s := testServer(t, Deps{})

	body := strings.NewReader(`{"lat": 26.14, "lon": 91.73, "district": "Kamrup"}`)
	rec, doc := doRequest(t, s, http.MethodPost, "/api/flood/alerts/smart", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, doc["alert_generated"])
	assert.NotContains(t, doc, "alert")
}

func TestAlertLifecycleEndpoints(t *testing.T) {
	s := testServer(t, Deps{})

	body := strings.NewReader(`{
		"lat": 26.14,
		"lon": 91.73,
		"district": "Kamrup",
		"conditions": {"rainfall_24h": 120, "rainfall_intensity": 30},
		"readings": {"rainfall": [2, 2, 2, 30, 35, 40]}
	}`)
	_, doc := doRequest(t, s, http.MethodPost, "/api/flood/alerts/smart", body)
	require.Equal(t, true, doc["alert_generated"])
	alert := doc["alert"].(map[string]any)
	id := alert["alert_id"].(string)

	rec, doc := doRequest(t, s, http.MethodGet, "/api/flood/alerts/active", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), doc["count"])

	rec, _ = doRequest(t, s, http.MethodPost, "/api/flood/alerts/"+id+"/acknowledge", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodDelete, "/api/flood/alerts/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/flood/alerts/ALERT-0-XYZ/acknowledge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHazardAssessEndpoint(t *testing.T) {
	weather := &stubWeather{wx: domain.WeatherSnapshot{Rainfall1h: 8, Humidity: 88}}
	s := testServer(t, Deps{Weather: weather})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/hazards/assess?lat=26.14&lon=91.73", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assessment, ok := doc["assessment"].(map[string]any)
	require.True(t, ok)
	hazards, ok := assessment["hazards"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, hazards, "earthquake")
	assert.Contains(t, hazards, "flood")
}

func TestFacilitiesEndpoint(t *testing.T) {
	facilities := &stubFacilities{facilities: []domain.Facility{
		{Name: "District Hospital", Kind: "hospital", DistanceKm: 1.2},
	}}
	s := testServer(t, Deps{Facilities: facilities})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/sos/facilities?lat=26.14&lon=91.73", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), doc["count"])
	assert.Equal(t, 5000, facilities.lastRadiusM)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/sos/facilities?lat=26.14&lon=91.73&radius_km=10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10000, facilities.lastRadiusM)
}

func TestFacilitiesEndpointUpstreamError(t *testing.T) {
	s := testServer(t, Deps{Facilities: &stubFacilities{err: errors.New("overpass: status 429")}})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/sos/facilities?lat=26.14&lon=91.73", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, false, doc["success"])
}

type stubHistory struct{ history []alerts.Alert }

func (s *stubHistory) History(_ context.Context, limit int) ([]alerts.Alert, error) {
	if limit < len(s.history) {
		return s.history[:limit], nil
	}
	return s.history, nil
}

func TestAlertHistoryEndpoint(t *testing.T) {
	history := &stubHistory{history: []alerts.Alert{
		{ID: "ALERT-1700000000-KAM", Severity: "severe"},
		{ID: "ALERT-1690000000-KAM", Severity: "warning"},
	}}
	s := testServer(t, Deps{History: history})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/flood/alerts/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), doc["count"])

	rec, doc = doRequest(t, s, http.MethodGet, "/api/flood/alerts/history?limit=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), doc["count"])
}

func TestAlertHistoryEndpointWithoutStore(t *testing.T) {
	s := testServer(t, Deps{})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/flood/alerts/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), doc["count"])
}

func TestNaturalDisastersEndpoint(t *testing.T) {
	quakes := &stubQuakes{quakes: []domain.Earthquake{{ID: "q1", Magnitude: 6.4, Tsunami: true}}}
	fires := &stubFires{fires: []domain.FireHotspot{{Intensity: "high"}}}
	s := testServer(t, Deps{Quakes: quakes, Fires: fires})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/external/natural-disasters", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	eq, ok := doc["earthquakes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), eq["count"])
	assert.NotEmpty(t, doc["generated_at"])
}

func TestModelStatusEndpoint(t *testing.T) {
	s := testServer(t, Deps{})

	rec, doc := doRequest(t, s, http.MethodGet, "/api/flood/models/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	models, ok := doc["models"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, models, "trend")
	assert.Contains(t, models, "features")
	assert.Contains(t, models, "propagation")
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	logger := testLogger()
	metrics := observability.NewMetricsForTesting()
	s := NewServer(":0", Deps{Engine: alerts.NewEngine(logger, metrics, nil, nil)}, logger, metrics)

	// Distinct alert IDs must collapse into one route label.
	for _, id := range []string{"ALERT-1-AAA", "ALERT-2-BBB"} {
		req := httptest.NewRequest(http.MethodPost, "/api/flood/alerts/"+id+"/acknowledge", nil)
		s.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST /api/flood/alerts/{id}/acknowledge", "404"))
	assert.Equal(t, 2.0, got)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := testLogger()
	metrics := observability.NewMetricsForTesting()
	s := NewServer(":0", Deps{}, logger, metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	handler := s.withLogging(s.withRecovery(mux))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestShutdownIdle(t *testing.T) {
	s := testServer(t, Deps{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
