// Package flood implements the heuristic flood risk models: a rainfall
// trend scorer, a weighted feature scorer, an upstream propagation scorer,
// and the ensemble that blends them, plus baseline and pattern anomaly
// detection over sensor series.
package flood

import "time"

// Conditions is the model input for one location.
type Conditions struct {
	// RainfallHistory holds hourly rainfall in mm, oldest first, up to 72
	// entries. The trend scorer degrades gracefully on shorter series.
	RainfallHistory []float64 `json:"rainfall_history,omitempty"`
	// DischargeHistory holds river discharge readings in m³/s, oldest first.
	DischargeHistory []float64 `json:"discharge_history,omitempty"`

	Rainfall24h float64 `json:"rainfall_24h"`
	Intensity   float64 `json:"rainfall_intensity"` // mm/h

	SoilMoisture     float64 `json:"soil_moisture"` // percent
	WaterLevel       float64 `json:"water_level"`   // normalized 0..1
	Elevation        float64 `json:"elevation_m"`
	DistanceToRiverM float64 `json:"distance_to_river_m"`
	HistoricalFloods float64 `json:"historical_flood_frequency"` // 0..1
	DrainageDensity  float64 `json:"drainage_density"`           // 0..1
	Urbanization     float64 `json:"urbanization"`               // 0..1

	// Upstream stations feed the propagation scorer.
	Upstream []UpstreamStation `json:"upstream,omitempty"`
}

// UpstreamStation is a monitoring point upstream of the target location.
type UpstreamStation struct {
	DistanceKm float64 `json:"distance_km"`
	RiskScore  float64 `json:"risk_score"` // 0..1
}

// Factor attributes part of the feature score to one input.
type Factor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// HorizonForecast is the probability for one lead time.
type HorizonForecast struct {
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
}

// RiskClassification is the feature scorer's softmax-style class output.
type RiskClassification struct {
	Class         string             `json:"risk_class"`
	Probabilities map[string]float64 `json:"class_probabilities"`
}

// Prediction is the combined ensemble output.
type Prediction struct {
	Probability        float64                    `json:"flood_probability"`
	RiskLevel          string                     `json:"risk_level"`
	Confidence         float64                    `json:"confidence"`
	Horizons           map[string]HorizonForecast `json:"horizons"`
	Classification     RiskClassification         `json:"risk_classification"`
	ModelBreakdown     map[string]float64         `json:"model_breakdown"`
	TopFactors         []Factor                   `json:"top_factors"`
	Reasoning          string                     `json:"reasoning"`
	RecommendedActions []string                   `json:"recommended_actions"`
	DataQuality        float64                    `json:"data_quality"`
	Limitations        []string                   `json:"limitations"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// Risk level cut points shared by the scorers.
func riskLevel(p float64) string {
	switch {
	case p >= 0.75:
		return "severe"
	case p >= 0.50:
		return "high"
	case p >= 0.25:
		return "medium"
	default:
		return "low"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
