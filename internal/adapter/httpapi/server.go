// Package httpapi exposes the dashboard REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShivanshCoding36/alert-aid/internal/aggregate"
	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/flood"
	"github.com/ShivanshCoding36/alert-aid/internal/hazard"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// DischargeSource looks up river discharge for a point.
type DischargeSource interface {
	Discharge(ctx context.Context, lat, lon float64) (float64, bool)
}

// FacilitySource finds emergency facilities near a point.
type FacilitySource interface {
	Facilities(ctx context.Context, lat, lon float64, radiusM int) ([]domain.Facility, error)
}

// HistorySource reads persisted alert history, newest first.
type HistorySource interface {
	History(ctx context.Context, limit int) ([]alerts.Alert, error)
}

// Deps bundles the services the API serves.
type Deps struct {
	Weather    aggregate.WeatherSource
	Quakes     aggregate.EarthquakeSource
	GDACS      aggregate.GDACSSource
	Fires      aggregate.FireSource
	Discharge  DischargeSource
	Facilities FacilitySource
	History    HistorySource

	Predictor *flood.Predictor
	Detector  *flood.Detector
	Engine    *alerts.Engine
	Hazards   *hazard.Service
	Aggregate *aggregate.Service
}

// Server is the dashboard HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the API server with all routes registered.
func NewServer(addr string, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/external/earthquakes", s.handleEarthquakes)
	mux.HandleFunc("GET /api/external/earthquakes/recent", s.handleRecentEarthquakes)
	mux.HandleFunc("GET /api/external/earthquakes/location/{lat}/{lon}", s.handleEarthquakesNear)
	mux.HandleFunc("GET /api/external/gdacs", s.handleGDACS)
	mux.HandleFunc("GET /api/external/firms", s.handleFires)
	mux.HandleFunc("GET /api/external/imd-warnings", s.handleIMDWarnings)
	mux.HandleFunc("GET /api/external/natural-disasters", s.handleNaturalDisasters)
	mux.HandleFunc("GET /api/external/status", s.handleStatus)

	mux.HandleFunc("GET /api/flood/predict", s.handlePredictGet)
	mux.HandleFunc("POST /api/flood/predict", s.handlePredictPost)
	mux.HandleFunc("GET /api/flood/anomaly", s.handleAnomalyGet)
	mux.HandleFunc("POST /api/flood/anomaly", s.handleAnomalyPost)
	mux.HandleFunc("GET /api/flood/alerts/smart", s.handleSmartAlert)
	mux.HandleFunc("POST /api/flood/alerts/smart", s.handleSmartAlert)
	mux.HandleFunc("GET /api/flood/alerts/active", s.handleActiveAlerts)
	mux.HandleFunc("GET /api/flood/alerts/history", s.handleAlertHistory)
	mux.HandleFunc("POST /api/flood/alerts/{id}/acknowledge", s.handleAcknowledge)
	mux.HandleFunc("DELETE /api/flood/alerts/{id}", s.handleClearAlert)
	mux.HandleFunc("GET /api/flood/models/status", s.handleModelStatus)

	mux.HandleFunc("GET /api/hazards/assess", s.handleHazardAssess)
	mux.HandleFunc("GET /api/sos/facilities", s.handleFacilities)

	s.httpServer.Handler = s.withLogging(s.withRecovery(mux))
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Predictor == nil || s.deps.Hazards == nil || s.deps.Engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Middleware.

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		// The mux fills in r.Pattern on match. Labeling with the pattern
		// rather than the raw path keeps metric cardinality bounded.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond).String())
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// Query parameter helpers.

func parseLat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -90 || v > 90 {
		return 0, fmt.Errorf("invalid latitude %q", s)
	}
	return v, nil
}

func parseLon(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -180 || v > 180 {
		return 0, fmt.Errorf("invalid longitude %q", s)
	}
	return v, nil
}

// requireCoords parses mandatory lat/lon query parameters.
func requireCoords(r *http.Request) (lat, lon float64, err error) {
	lat, err = parseLat(r.URL.Query().Get("lat"))
	if err != nil {
		return 0, 0, err
	}
	lon, err = parseLon(r.URL.Query().Get("lon"))
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// optionalCoords returns nil pointers when lat/lon are absent, an error
// when present but malformed.
func optionalCoords(r *http.Request) (lat, lon *float64, err error) {
	latStr, lonStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil, nil
	}
	la, err := parseLat(latStr)
	if err != nil {
		return nil, nil, err
	}
	lo, err := parseLon(lonStr)
	if err != nil {
		return nil, nil, err
	}
	return &la, &lo, nil
}

// boundedInt parses an integer query parameter clamped to [min, max],
// falling back to def when absent.
func boundedInt(r *http.Request, name string, def, min, max int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("invalid %s %q (allowed %d-%d)", name, s, min, max)
	}
	return v, nil
}

func boundedFloat(r *http.Request, name string, def, min, max float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}
