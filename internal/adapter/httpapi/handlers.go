package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/flood"
)

// External data endpoints.

func (s *Server) handleEarthquakes(w http.ResponseWriter, r *http.Request) {
	minMag, err := boundedFloat(r, "min_magnitude", 4.5, 0, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := boundedInt(r, "days", 7, 1, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quakes := s.deps.Quakes.Fetch(r.Context(), domain.EarthquakeQuery{
		MinMagnitude: minMag,
		Days:         days,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(quakes),
		"earthquakes": quakes,
	})
}

func (s *Server) handleRecentEarthquakes(w http.ResponseWriter, r *http.Request) {
	hours, err := boundedInt(r, "time_window_hours", 24, 1, 168)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quakes := s.deps.Quakes.Fetch(r.Context(), domain.EarthquakeQuery{
		MinMagnitude: 2.5,
		Days:         (hours + 23) / 24,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"count":             len(quakes),
		"time_window_hours": hours,
		"earthquakes":       quakes,
	})
}

func (s *Server) handleEarthquakesNear(w http.ResponseWriter, r *http.Request) {
	lat, err := parseLat(r.PathValue("lat"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseLon(r.PathValue("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := boundedFloat(r, "radius_km", 500, 1, 5000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	minMag, err := boundedFloat(r, "min_magnitude", 2.5, 0, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := boundedInt(r, "days", 30, 1, 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quakes := s.deps.Quakes.Fetch(r.Context(), domain.EarthquakeQuery{
		MinMagnitude: minMag,
		Days:         days,
		Lat:          &lat,
		Lon:          &lon,
		RadiusKm:     &radius,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(quakes),
		"earthquakes": quakes,
		"center":      domain.Geo{Lat: lat, Lon: lon},
		"radius_km":   radius,
	})
}

func (s *Server) handleGDACS(w http.ResponseWriter, r *http.Request) {
	feed := s.deps.GDACS.Fetch(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": len(feed) > 0,
		"count":   len(feed),
		"alerts":  feed,
	})
}

func (s *Server) handleFires(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := optionalCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dayRange, err := boundedInt(r, "day_range", 1, 1, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fires := s.deps.Fires.Fetch(r.Context(), lat, lon, dayRange)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(fires),
		"fires":   fires,
	})
}

func (s *Server) handleIMDWarnings(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wx, _ := s.deps.Weather.Observe(r.Context(), lat, lon)
	warnings := domain.DeriveWarnings(wx, lat, lon)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(warnings),
		"warnings": warnings,
		"weather":  wx,
	})
}

func (s *Server) handleNaturalDisasters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Aggregate.Summary(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.deps.Aggregate.Status(r.Context()),
	})
}

// Flood model endpoints.

func (s *Server) handlePredictGet(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cond := s.deriveConditions(r, lat, lon)
	pred := s.deps.Predictor.Predict(cond)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"location":   domain.Geo{Lat: lat, Lon: lon},
		"conditions": cond,
		"prediction": pred,
	})
}

func (s *Server) handlePredictPost(w http.ResponseWriter, r *http.Request) {
	var cond flood.Conditions
	if err := json.NewDecoder(r.Body).Decode(&cond); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"prediction": s.deps.Predictor.Predict(cond),
	})
}

func (s *Server) handleAnomalyGet(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wx, outlook := s.deps.Weather.Observe(r.Context(), lat, lon)
	cond := flood.DeriveConditions(wx, outlook, lat, lon, s.dischargeFor(r, lat, lon))

	readings := flood.SensorReadings{
		Rainfall:   []float64{wx.Rainfall1h},
		Discharge:  cond.DischargeHistory,
		WaterLevel: []float64{cond.WaterLevel},
		Humidity:   []float64{wx.Humidity},
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"location": domain.Geo{Lat: lat, Lon: lon},
		"report":   s.deps.Detector.Detect(readings),
	})
}

func (s *Server) handleAnomalyPost(w http.ResponseWriter, r *http.Request) {
	var readings flood.SensorReadings
	if err := json.NewDecoder(r.Body).Decode(&readings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"report":  s.deps.Detector.Detect(readings),
	})
}

// smartAlertRequest is the POST body for alert evaluation with explicit
// model inputs.
type smartAlertRequest struct {
	Lat        float64               `json:"lat"`
	Lon        float64               `json:"lon"`
	District   string                `json:"district"`
	RegionType string                `json:"region_type"`
	Conditions *flood.Conditions     `json:"conditions,omitempty"`
	Readings   *flood.SensorReadings `json:"readings,omitempty"`
}

func (s *Server) handleSmartAlert(w http.ResponseWriter, r *http.Request) {
	var in alerts.Input

	if r.Method == http.MethodPost {
		var req smartAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
			writeError(w, http.StatusBadRequest, "invalid coordinates")
			return
		}

		cond := flood.Conditions{}
		if req.Conditions != nil {
			cond = *req.Conditions
		}
		readings := flood.SensorReadings{}
		if req.Readings != nil {
			readings = *req.Readings
		}
		in = alerts.Input{
			Lat:         req.Lat,
			Lon:         req.Lon,
			District:    req.District,
			RegionType:  req.RegionType,
			NearRiver:   cond.DistanceToRiverM > 0 && cond.DistanceToRiverM < 500,
			Rainfall24h: cond.Rainfall24h,
			Prediction:  s.deps.Predictor.Predict(cond),
			Anomaly:     s.deps.Detector.Detect(readings),
		}
	} else {
		lat, lon, err := requireCoords(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		wx, outlook := s.deps.Weather.Observe(r.Context(), lat, lon)
		cond := flood.DeriveConditions(wx, outlook, lat, lon, s.dischargeFor(r, lat, lon))
		readings := flood.SensorReadings{
			Rainfall:   []float64{wx.Rainfall1h},
			Discharge:  cond.DischargeHistory,
			WaterLevel: []float64{cond.WaterLevel},
			Humidity:   []float64{wx.Humidity},
		}
		in = alerts.Input{
			Lat:         lat,
			Lon:         lon,
			District:    r.URL.Query().Get("district"),
			RegionType:  r.URL.Query().Get("region_type"),
			NearRiver:   cond.DistanceToRiverM < 500,
			Rainfall24h: cond.Rainfall24h,
			Prediction:  s.deps.Predictor.Predict(cond),
			Anomaly:     s.deps.Detector.Detect(readings),
		}
	}

	alert := s.deps.Engine.Evaluate(r.Context(), in)
	resp := map[string]any{
		"success":         true,
		"alert_generated": alert != nil,
	}
	if alert != nil {
		resp["alert"] = alert
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := optionalCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := s.deps.Engine.Active(lat, lon)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(active),
		"alerts":  active,
	})
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := boundedInt(r, "limit", 50, 1, 500)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.deps.History == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   0,
			"alerts":  []alerts.Alert{},
		})
		return
	}

	history, err := s.deps.History.History(r.Context(), limit)
	if err != nil {
		s.logger.Warn("alert history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "alert history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(history),
		"alerts":  history,
	})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Engine.Acknowledge(id) {
		writeError(w, http.StatusNotFound, "alert not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "alert_id": id})
}

func (s *Server) handleClearAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Engine.Clear(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "alert_id": id})
}

func (s *Server) handleModelStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models": map[string]any{
			"trend": map[string]any{
				"status": "operational",
				"kind":   "rainfall trend extrapolation",
				"weight": 0.40,
			},
			"features": map[string]any{
				"status": "operational",
				"kind":   "weighted terrain and rainfall features",
				"weight": 0.45,
			},
			"propagation": map[string]any{
				"status": "operational",
				"kind":   "upstream station risk propagation",
				"weight": 0.15,
			},
			"anomaly": map[string]any{
				"status":    "operational",
				"detectors": []string{"baseline_zscore", "pattern_similarity"},
			},
		},
	})
}

// Hazard and SOS endpoints.

func (s *Server) handleHazardAssess(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wx, _ := s.deps.Weather.Observe(r.Context(), lat, lon)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"location":   domain.Geo{Lat: lat, Lon: lon},
		"assessment": s.deps.Hazards.Assess(lat, lon, wx),
		"weather":    wx,
	})
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	radiusKm, err := boundedFloat(r, "radius_km", 5, 0.5, 25)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := s.deps.Facilities.Facilities(r.Context(), lat, lon, int(radiusKm*1000))
	if err != nil {
		s.logger.Warn("facility lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, "facility lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"count":      len(facilities),
		"facilities": facilities,
	})
}

// deriveConditions builds model inputs from live weather for a coordinate.
func (s *Server) deriveConditions(r *http.Request, lat, lon float64) flood.Conditions {
	wx, outlook := s.deps.Weather.Observe(r.Context(), lat, lon)
	return flood.DeriveConditions(wx, outlook, lat, lon, s.dischargeFor(r, lat, lon))
}

// dischargeFor resolves the optional real discharge reading.
func (s *Server) dischargeFor(r *http.Request, lat, lon float64) *float64 {
	if s.deps.Discharge == nil {
		return nil
	}
	if v, ok := s.deps.Discharge.Discharge(r.Context(), lat, lon); ok {
		return &v
	}
	return nil
}
