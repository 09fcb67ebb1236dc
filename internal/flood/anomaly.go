package flood

import (
	"math"
	"sort"
	"sync"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
)

// SensorReadings is the anomaly detector input. Series are oldest first;
// scalar fields are used when the matching series is absent.
type SensorReadings struct {
	Rainfall       []float64 `json:"rainfall,omitempty"`        // mm/h
	Discharge      []float64 `json:"discharge,omitempty"`       // m³/s
	WaterLevel     []float64 `json:"water_level,omitempty"`     // m
	Humidity       []float64 `json:"humidity,omitempty"`        // percent
	PressureChange []float64 `json:"pressure_change,omitempty"` // hPa/3h
}

// FeatureAnomaly is the per-feature detector output.
type FeatureAnomaly struct {
	Score     float64 `json:"score"`
	Anomalous bool    `json:"anomalous"`
	Severity  string  `json:"severity,omitempty"` // medium or high when anomalous
}

// AnomalyReport is the combined detector output.
type AnomalyReport struct {
	OverallScore  float64                   `json:"overall_score"`
	AlertLevel    string                    `json:"alert_level"` // normal/watch/warning/critical
	Confidence    float64                   `json:"confidence"`
	Features      map[string]FeatureAnomaly `json:"features"`
	Pattern       PatternMatch              `json:"pattern"`
	EarlyWarnings []string                  `json:"early_warnings,omitempty"`
	Trend         string                    `json:"trend"` // increasing/decreasing/stable
	Action        string                    `json:"recommended_action"`
	GeneratedAt   string                    `json:"generated_at"`
}

// PatternMatch is the pattern detector output.
type PatternMatch struct {
	BestPattern         string             `json:"best_pattern"`
	Similarity          float64            `json:"similarity"`
	ReconstructionError float64            `json:"reconstruction_error"`
	Anomalous           bool               `json:"anomalous"`
	FeatureErrors       map[string]float64 `json:"feature_errors,omitempty"`
}

// baseline holds the expected distribution of one sensor feature.
type baseline struct {
	mean, stddev, max float64
}

var baselines = map[string]baseline{
	"rainfall":        {mean: 2.5, stddev: 5, max: 25},
	"discharge":       {mean: 150, stddev: 80, max: 500},
	"water_level":     {mean: 2, stddev: 0.8, max: 5},
	"humidity":        {mean: 65, stddev: 15, max: 95},
	"pressure_change": {mean: 0, stddev: 3, max: 10},
}

// Reference shapes for the pattern detector, 8 points each, normalized to
// the feature maximum before comparison.
var normalPatterns = map[string]map[string][8]float64{
	"dry_season": {
		"rainfall": {0, 0, 0.1, 0, 0, 0.05, 0, 0},
		"humidity": {0.45, 0.44, 0.46, 0.45, 0.43, 0.44, 0.45, 0.46},
		"pressure": {0.1, -0.05, 0.05, 0, -0.05, 0.1, 0, -0.05},
	},
	"monsoon": {
		"rainfall": {0.3, 0.5, 0.4, 0.6, 0.5, 0.4, 0.5, 0.6},
		"humidity": {0.8, 0.82, 0.85, 0.83, 0.84, 0.86, 0.85, 0.87},
		"pressure": {-0.2, -0.25, -0.2, -0.3, -0.25, -0.2, -0.25, -0.3},
	},
	"pre_flood": {
		"rainfall": {0.4, 0.55, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		"humidity": {0.85, 0.87, 0.9, 0.92, 0.93, 0.95, 0.96, 0.97},
		"pressure": {-0.4, -0.45, -0.55, -0.6, -0.7, -0.75, -0.85, -0.95},
	},
}

// Detector combines a baseline z-score detector with a shape-similarity
// pattern detector, and keeps a rolling score history for trend estimation.
type Detector struct {
	mu      sync.Mutex
	history []float64
}

// NewDetector creates the combined anomaly detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect scores the given readings against baselines and known patterns.
func (d *Detector) Detect(r SensorReadings) AnomalyReport {
	features := map[string]FeatureAnomaly{
		"rainfall":        baselineScore("rainfall", r.Rainfall),
		"discharge":       baselineScore("discharge", r.Discharge),
		"water_level":     baselineScore("water_level", r.WaterLevel),
		"humidity":        baselineScore("humidity", r.Humidity),
		"pressure_change": baselineScore("pressure_change", r.PressureChange),
	}

	var sum float64
	for _, f := range features {
		sum += f.Score
	}
	baselineOverall := sum / float64(len(features))

	pattern := matchPattern(r)

	overall := baselineOverall
	if len(r.Rainfall) > 0 {
		overall = 0.5*baselineOverall + 0.5*pattern.ReconstructionError
	}
	overall = clamp01(overall)

	report := AnomalyReport{
		OverallScore: round3(overall),
		AlertLevel:   anomalyAlertLevel(overall),
		Confidence:   round3(0.8 - 0.2*overall),
		Features:     features,
		Pattern:      pattern,
		Trend:        d.recordAndTrend(overall),
		Action:       anomalyAction(anomalyAlertLevel(overall)),
		GeneratedAt:  domain.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	report.EarlyWarnings = earlyWarnings(r, pattern)
	return report
}

// baselineScore computes a z-score based anomaly score for one feature.
// Series use a blend of the worst and average deviation; an empty series
// scores zero.
func baselineScore(name string, series []float64) FeatureAnomaly {
	b := baselines[name]
	if len(series) == 0 {
		return FeatureAnomaly{}
	}

	var zMax, zSum float64
	for _, v := range series {
		z := math.Abs(v-b.mean) / b.stddev
		if z > zMax {
			zMax = z
		}
		zSum += z
	}
	zMean := zSum / float64(len(series))

	score := clamp01((zMax*0.6 + zMean*0.4) / 4)

	fa := FeatureAnomaly{Score: round3(score)}
	if score > 0.6 {
		fa.Anomalous = true
		fa.Severity = "medium"
		if score > 0.8 {
			fa.Severity = "high"
		}
	}
	return fa
}

// matchPattern compares the last 8 rainfall/humidity/pressure points
// against the known seasonal shapes using cosine similarity.
func matchPattern(r SensorReadings) PatternMatch {
	observed := map[string][8]float64{
		"rainfall": normalizeTail(r.Rainfall),
		"humidity": normalizeTail(r.Humidity),
		"pressure": normalizeTail(r.PressureChange),
	}

	// Sorted iteration keeps the winner stable when similarities tie.
	names := make([]string, 0, len(normalPatterns))
	for name := range normalPatterns {
		names = append(names, name)
	}
	sort.Strings(names)

	best := PatternMatch{Similarity: -1}
	for _, name := range names {
		shape := normalPatterns[name]
		var simSum float64
		errs := map[string]float64{}
		for feature, expected := range shape {
			sim := cosine(observed[feature], expected)
			simSum += sim
			errs[feature] = round3(mse(observed[feature], expected))
		}
		sim := simSum / float64(len(shape))
		if sim > best.Similarity {
			best = PatternMatch{
				BestPattern:   name,
				Similarity:    round3(sim),
				FeatureErrors: errs,
			}
		}
	}

	best.ReconstructionError = round3(clamp01(1 - best.Similarity))
	best.Anomalous = best.ReconstructionError > 0.15
	return best
}

// normalizeTail takes the last 8 points and scales them by the series
// maximum. Short series are left-padded with zeros.
func normalizeTail(series []float64) [8]float64 {
	var out [8]float64
	if len(series) == 0 {
		return out
	}
	tail := series
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}

	maxV := 0.0
	for _, v := range tail {
		if a := math.Abs(v); a > maxV {
			maxV = a
		}
	}
	if maxV == 0 {
		return out
	}

	offset := 8 - len(tail)
	for i, v := range tail {
		out[offset+i] = v / maxV
	}
	return out
}

func cosine(a, b [8]float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func mse(a, b [8]float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

func anomalyAlertLevel(score float64) string {
	switch {
	case score >= 0.7:
		return "critical"
	case score >= 0.5:
		return "warning"
	case score >= 0.3:
		return "watch"
	default:
		return "normal"
	}
}

func anomalyAction(level string) string {
	switch level {
	case "critical":
		return "Activate emergency response and verify sensor readings on site"
	case "warning":
		return "Increase monitoring frequency and notify duty officers"
	case "watch":
		return "Review recent sensor trends"
	default:
		return "Continue routine monitoring"
	}
}

// earlyWarnings flags a rainfall surge (recent 3h average at least doubling
// the prior 3h and exceeding 10mm/h) and a pre-flood pattern match.
func earlyWarnings(r SensorReadings, pattern PatternMatch) []string {
	var warnings []string

	if len(r.Rainfall) >= 6 {
		recent := mean(r.Rainfall[len(r.Rainfall)-3:])
		prior := mean(r.Rainfall[len(r.Rainfall)-6 : len(r.Rainfall)-3])
		if recent > 10 && recent >= prior*2 {
			warnings = append(warnings, "rainfall_surge")
		}
	}
	if pattern.BestPattern == "pre_flood" && pattern.Similarity > 0.6 {
		warnings = append(warnings, "pre_flood_pattern")
	}
	return warnings
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// recordAndTrend appends the score to a rolling 100-entry history and
// reports the direction of the last 5 samples.
func (d *Detector) recordAndTrend(score float64) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = append(d.history, score)
	if len(d.history) > 100 {
		d.history = d.history[len(d.history)-100:]
	}

	if len(d.history) < 5 {
		return "stable"
	}
	recent := d.history[len(d.history)-5:]
	delta := recent[len(recent)-1] - recent[0]
	switch {
	case delta > 0.1:
		return "increasing"
	case delta < -0.1:
		return "decreasing"
	default:
		return "stable"
	}
}

// sortedFeatureNames is used by tests for stable iteration.
func sortedFeatureNames(m map[string]FeatureAnomaly) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
