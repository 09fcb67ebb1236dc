// Package alerts generates, escalates, and tracks multi-condition flood
// alerts.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/flood"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Condition trigger thresholds.
const (
	probHighThreshold   = 0.72
	probMediumThreshold = 0.45
	anomalyThreshold    = 0.6
	rainfall90thPct     = 50.0 // mm/24h
	confidenceMin       = 0.6
	alertValidity       = 24 * time.Hour
)

// regionFactors calibrate the high-probability threshold per terrain type.
var regionFactors = map[string]float64{
	"default":  1.0,
	"coastal":  1.2,
	"riverine": 1.15,
	"urban":    1.1,
	"hilly":    0.95,
}

// Input carries everything the engine needs to evaluate one location.
type Input struct {
	Lat, Lon    float64
	District    string
	RegionType  string // default, coastal, riverine, urban, hilly
	NearRiver   bool
	Rainfall24h float64

	Prediction flood.Prediction
	Anomaly    flood.AnomalyReport
}

// Shelter is a suggested evacuation point.
type Shelter struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

// Alert is the full alert document served to clients.
type Alert struct {
	ID           string            `json:"alert_id"`
	Type         string            `json:"alert_type"` // flash_flood, river_overflow, heavy_rainfall, flood
	Severity     string            `json:"severity"`   // critical, severe, warning, watch, info
	Score        float64           `json:"score"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Lat          float64           `json:"lat"`
	Lon          float64           `json:"lon"`
	District     string            `json:"district,omitempty"`
	Conditions   []string          `json:"triggered_conditions"`
	Instructions []string          `json:"instructions"`
	Areas        []string          `json:"affected_areas,omitempty"`
	Shelters     []Shelter         `json:"nearest_shelters"`
	Contacts     map[string]string `json:"emergency_contacts"`
	SMS          string            `json:"sms_payload"`
	Escalation   string            `json:"escalation"` // new, escalated, de-escalated, maintained
	IssuedAt     time.Time         `json:"issued_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Acknowledged bool              `json:"acknowledged"`
}

// Store persists alert history. Writes are best-effort.
type Store interface {
	SaveAlert(ctx context.Context, a Alert) error
}

// Publisher pushes generated alerts to an external sink.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// Engine evaluates conditions and maintains the active alert registry and
// per-location escalation state.
type Engine struct {
	logger    *slog.Logger
	metrics   *observability.Metrics
	store     Store     // nil disables history
	publisher Publisher // nil disables publishing

	mu         sync.Mutex
	active     map[string]*Alert
	severities map[string]string // last severity per rounded location
}

// NewEngine creates the alert engine. store and publisher may be nil.
func NewEngine(logger *slog.Logger, metrics *observability.Metrics, store Store, publisher Publisher) *Engine {
	return &Engine{
		logger:     logger,
		metrics:    metrics,
		store:      store,
		publisher:  publisher,
		active:     make(map[string]*Alert),
		severities: make(map[string]string),
	}
}

// Evaluate runs the multi-condition check. It returns nil when no alert is
// warranted (severity info).
func (e *Engine) Evaluate(ctx context.Context, in Input) *Alert {
	score, conditions := e.scoreConditions(in)
	severity := severityFor(score, len(conditions))
	if severity == "info" {
		e.resolveLocation(in.Lat, in.Lon)
		return nil
	}

	now := domain.Now().UTC()
	alertType := alertTypeFor(in)
	a := &Alert{
		ID:           alertID(now, in.District),
		Type:         alertType,
		Severity:     severity,
		Score:        round3(score),
		Title:        alertTitle(alertType, severity, in.District),
		Description:  alertDescription(in, conditions),
		Lat:          in.Lat,
		Lon:          in.Lon,
		District:     in.District,
		Conditions:   conditions,
		Instructions: instructionsFor(severity),
		Areas:        affectedAreas(in.District),
		Shelters:     nearestShelters(in.Lat, in.Lon),
		Contacts:     emergencyContacts(),
		Escalation:   e.escalation(in.Lat, in.Lon, severity),
		IssuedAt:     now,
		ExpiresAt:    now.Add(alertValidity),
	}
	a.SMS = smsPayload(a)

	e.register(a)
	e.metrics.AlertsGenerated.WithLabelValues(severity).Inc()

	if e.store != nil {
		if err := e.store.SaveAlert(ctx, *a); err != nil {
			e.logger.Warn("alert history write failed", "alert_id", a.ID, "error", err)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, *a); err != nil {
			e.logger.Warn("alert publish failed", "alert_id", a.ID, "error", err)
		} else {
			e.metrics.AlertsPublished.Inc()
		}
	}

	e.logger.Info("alert generated",
		"alert_id", a.ID,
		"severity", severity,
		"type", alertType,
		"score", a.Score,
		"escalation", a.Escalation)
	return a
}

// scoreConditions computes the weighted condition score and the list of
// triggered condition names.
func (e *Engine) scoreConditions(in Input) (float64, []string) {
	factor, ok := regionFactors[in.RegionType]
	if !ok {
		factor = regionFactors["default"]
	}

	var score float64
	var conditions []string

	switch p := in.Prediction.Probability; {
	case p >= probHighThreshold/factor:
		score += 0.35
		conditions = append(conditions, "high_flood_probability")
	case p >= probMediumThreshold:
		score += 0.35 / 2
		conditions = append(conditions, "elevated_flood_probability")
	}

	switch s := in.Anomaly.OverallScore; {
	case s >= anomalyThreshold:
		score += 0.25
		conditions = append(conditions, "sensor_anomaly")
	case s >= anomalyThreshold-0.2:
		score += 0.25 / 2
		conditions = append(conditions, "sensor_deviation")
	}

	switch {
	case in.Rainfall24h >= rainfall90thPct:
		score += 0.25
		conditions = append(conditions, "extreme_rainfall")
	case in.Rainfall24h >= rainfall90thPct*0.6:
		score += 0.25 / 2
		conditions = append(conditions, "heavy_rainfall")
	}

	if len(in.Anomaly.EarlyWarnings) > 0 {
		score += 0.15
		conditions = append(conditions, "early_warning_signals")
	}

	if in.Prediction.Confidence > 0 && in.Prediction.Confidence < confidenceMin {
		score *= 0.7
	}
	return score, conditions
}

func severityFor(score float64, conditionCount int) string {
	switch {
	case score >= 0.75 && conditionCount >= 3:
		return "critical"
	case score >= 0.6 || (score >= 0.5 && conditionCount >= 3):
		return "severe"
	case score >= 0.4 || conditionCount >= 2:
		return "warning"
	case score >= 0.2 || conditionCount >= 1:
		return "watch"
	default:
		return "info"
	}
}

func alertTypeFor(in Input) string {
	for _, w := range in.Anomaly.EarlyWarnings {
		if w == "rainfall_surge" {
			return "flash_flood"
		}
	}
	if in.NearRiver && in.Prediction.Probability > 0.6 {
		return "river_overflow"
	}
	if in.Rainfall24h > 80 && in.Prediction.Probability < 0.5 {
		return "heavy_rainfall"
	}
	return "flood"
}

// escalation compares the new severity against the last one issued for the
// rounded location.
func (e *Engine) escalation(lat, lon float64, severity string) string {
	key := locationKey(lat, lon)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev, seen := e.severities[key]
	e.severities[key] = severity
	if !seen {
		return "new"
	}
	switch {
	case severityRank(severity) > severityRank(prev):
		return "escalated"
	case severityRank(severity) < severityRank(prev):
		return "de-escalated"
	default:
		return "maintained"
	}
}

// resolveLocation clears escalation state once conditions drop below alert
// thresholds.
func (e *Engine) resolveLocation(lat, lon float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.severities, locationKey(lat, lon))
}

func (e *Engine) register(a *Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[a.ID] = a
	e.metrics.AlertsActive.Set(float64(e.countActiveLocked()))
}

// Active returns unexpired alerts, optionally filtered to roughly 50 km
// around a point. Results are not ordered.
func (e *Engine) Active(lat, lon *float64) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := domain.Now()
	var out []Alert
	for id, a := range e.active {
		if now.After(a.ExpiresAt) {
			delete(e.active, id)
			continue
		}
		if lat != nil && lon != nil && domain.Haversine(*lat, *lon, a.Lat, a.Lon) > 50 {
			continue
		}
		out = append(out, *a)
	}
	e.metrics.AlertsActive.Set(float64(e.countActiveLocked()))
	return out
}

// Acknowledge marks an active alert as seen. Returns false for unknown or
// expired IDs.
func (e *Engine) Acknowledge(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.active[id]
	if !ok || domain.Now().After(a.ExpiresAt) {
		return false
	}
	a.Acknowledged = true
	return true
}

// Clear removes an active alert. Returns false for unknown IDs.
func (e *Engine) Clear(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[id]; !ok {
		return false
	}
	delete(e.active, id)
	e.metrics.AlertsActive.Set(float64(e.countActiveLocked()))
	return true
}

func (e *Engine) countActiveLocked() int {
	now := domain.Now()
	n := 0
	for _, a := range e.active {
		if !now.After(a.ExpiresAt) {
			n++
		}
	}
	return n
}

func locationKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f_%.2f", lat, lon)
}

func severityRank(s string) int {
	switch s {
	case "critical":
		return 4
	case "severe":
		return 3
	case "warning":
		return 2
	case "watch":
		return 1
	default:
		return 0
	}
}

func alertID(now time.Time, district string) string {
	prefix := "LOC"
	if d := strings.ToUpper(strings.TrimSpace(district)); d != "" {
		// Slice runes, not bytes, so non-ASCII district names stay
		// valid UTF-8.
		if r := []rune(d); len(r) > 3 {
			d = string(r[:3])
		}
		prefix = d
	}
	return fmt.Sprintf("ALERT-%d-%s", now.Unix(), prefix)
}

func alertTitle(alertType, severity, district string) string {
	name := strings.ReplaceAll(alertType, "_", " ")
	title := fmt.Sprintf("%s %s alert", strings.ToUpper(severity), name)
	if district != "" {
		title += " for " + district
	}
	return title
}

func alertDescription(in Input, conditions []string) string {
	parts := []string{
		fmt.Sprintf("Flood probability %.0f%%", in.Prediction.Probability*100),
	}
	if in.Rainfall24h > 0 {
		parts = append(parts, fmt.Sprintf("24h rainfall %.0fmm", in.Rainfall24h))
	}
	if in.Anomaly.OverallScore > 0 {
		parts = append(parts, fmt.Sprintf("sensor anomaly score %.2f", in.Anomaly.OverallScore))
	}
	return fmt.Sprintf("%s. Triggered conditions: %s.",
		strings.Join(parts, ", "), strings.Join(conditions, ", "))
}

func instructionsFor(severity string) []string {
	switch severity {
	case "critical":
		return []string{
			"Evacuate immediately to higher ground",
			"Follow instructions from local authorities",
			"Do not walk or drive through flood water",
			"Carry essential medicines and documents",
		}
	case "severe":
		return []string{
			"Prepare to evacuate at short notice",
			"Move vehicles and valuables to higher ground",
			"Charge phones and keep a torch ready",
		}
	case "warning":
		return []string{
			"Avoid low-lying roads and underpasses",
			"Stock drinking water and dry food",
			"Track official flood bulletins",
		}
	default:
		return []string{
			"Stay informed about local weather updates",
		}
	}
}

func affectedAreas(district string) []string {
	if district == "" {
		return nil
	}
	return []string{
		district + " low-lying areas",
		district + " riverbank settlements",
	}
}

// nearestShelters suggests evacuation points at fixed offsets from the
// alert location; there is no live shelter registry.
func nearestShelters(lat, lon float64) []Shelter {
	offsets := []struct {
		name       string
		dLat, dLon float64
	}{
		{"Community Hall", 0.009, 0.004},
		{"Government School", -0.006, 0.011},
		{"District Relief Camp", 0.014, -0.008},
	}
	shelters := make([]Shelter, 0, len(offsets))
	for _, o := range offsets {
		sLat, sLon := lat+o.dLat, lon+o.dLon
		shelters = append(shelters, Shelter{
			Name:       o.name,
			Lat:        round4(sLat),
			Lon:        round4(sLon),
			DistanceKm: math.Round(domain.Haversine(lat, lon, sLat, sLon)*10) / 10,
		})
	}
	return shelters
}

func emergencyContacts() map[string]string {
	return map[string]string{
		"disaster_helpline": "1078",
		"police":            "100",
		"ambulance":         "108",
		"fire":              "101",
	}
}

// smsPayload renders the alert as a message that fits one 160-char SMS.
func smsPayload(a *Alert) string {
	msg := fmt.Sprintf("%s: %s. %s", strings.ToUpper(a.Severity), a.Title, a.Instructions[0])
	if len(msg) > 160 {
		msg = msg[:157] + "..."
	}
	return msg
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
