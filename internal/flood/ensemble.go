package flood

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Ensemble model weights.
const (
	trendWeight       = 0.40
	featureWeight     = 0.45
	propagationWeight = 0.15
)

// Predictor blends the three scorers into a single forecast.
type Predictor struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPredictor creates the ensemble predictor.
func NewPredictor(logger *slog.Logger, metrics *observability.Metrics) *Predictor {
	return &Predictor{logger: logger, metrics: metrics}
}

type scorerResult struct {
	probability float64
	confidence  float64
}

// Predict runs all scorers and blends their probabilities.
func (p *Predictor) Predict(cond Conditions) Prediction {
	trend := trendScore(cond)
	features, class, factors := featureScore(cond)
	prop := propagationScore(cond.Upstream)

	prob := clamp01(trend.probability*trendWeight +
		features.probability*featureWeight +
		prop.probability*propagationWeight)

	confidence := trend.confidence*trendWeight +
		features.confidence*featureWeight +
		prop.confidence*propagationWeight
	confidence += agreementBonus(trend.probability, features.probability, prop.probability)

	// Short horizons blend the trend trajectory with the static feature
	// risk; the 24h figure is the ensemble probability itself.
	horizons := trendHorizons(cond)
	blended := map[string]HorizonForecast{
		"6h":  blendHorizon(horizons["6h"], features.probability, 0.9),
		"12h": blendHorizon(horizons["12h"], features.probability, 0.7),
		"24h": {Probability: round3(prob), RiskLevel: riskLevel(prob)},
	}

	pred := Prediction{
		Probability:    round3(prob),
		RiskLevel:      riskLevel(prob),
		Confidence:     round3(clamp01(confidence)),
		Horizons:       blended,
		Classification: class,
		ModelBreakdown: map[string]float64{
			"trend":       round3(trend.probability),
			"features":    round3(features.probability),
			"propagation": round3(prop.probability),
		},
		TopFactors:         factors,
		Reasoning:          reasoning(prob, cond, factors),
		RecommendedActions: recommendedActions(riskLevel(prob)),
		DataQuality:        round3(dataQuality(cond)),
		Limitations:        limitations(cond),
		GeneratedAt:        domain.Now().UTC(),
	}

	p.metrics.PredictionsTotal.Inc()
	p.logger.Debug("flood prediction",
		"probability", pred.Probability,
		"risk_level", pred.RiskLevel,
		"confidence", pred.Confidence)
	return pred
}

// trendScore extrapolates the recent rainfall trajectory.
func trendScore(cond Conditions) scorerResult {
	rain := cond.RainfallHistory
	intensity := cond.Intensity
	if intensity == 0 && len(rain) > 0 {
		intensity = rain[len(rain)-1]
	}

	cum24 := sumTail(rain, 24)
	if cum24 == 0 {
		cum24 = cond.Rainfall24h
	}
	cum72 := sumTail(rain, 72)
	if cum72 == 0 {
		cum72 = cond.Rainfall24h
	}

	trend := rainTrend(rain)

	prob := clamp01(intensity/50*0.3 + cum24/150*0.4 + (trend+1)*0.15 + cum72/400*0.15)

	if n := len(cond.DischargeHistory); n > 0 {
		recent := cond.DischargeHistory
		if n > 6 {
			recent = recent[n-6:]
		}
		maxD := 0.0
		for _, d := range recent {
			if d > maxD {
				maxD = d
			}
		}
		prob = clamp01(prob*0.7 + math.Min(1, maxD/1000)*0.3)
	}

	hours := math.Min(1, float64(len(rain))/72)
	return scorerResult{probability: prob, confidence: 0.75 + hours*0.15}
}

// trendHorizons scales the trend probability per lead time. Short horizons
// amplify the current trajectory, longer ones decay toward the mean.
func trendHorizons(cond Conditions) map[string]HorizonForecast {
	base := trendScore(cond).probability
	mk := func(scale float64) HorizonForecast {
		p := math.Min(0.95, base*scale)
		return HorizonForecast{Probability: round3(p), RiskLevel: riskLevel(p)}
	}
	return map[string]HorizonForecast{
		"6h":  mk(1.2),
		"12h": mk(1.0),
		"24h": mk(0.85),
	}
}

// rainTrend fits a least-squares slope over the last 24 points and
// normalizes it to [-1, 1].
func rainTrend(rain []float64) float64 {
	pts := rain
	if len(pts) > 24 {
		pts = pts[len(pts)-24:]
	}
	n := float64(len(pts))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range pts {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom

	t := slope / 5
	if t > 1 {
		return 1
	}
	if t < -1 {
		return -1
	}
	return t
}

// featureWeights order matters only for attribution output.
var featureWeights = []struct {
	name   string
	weight float64
}{
	{"rainfall_24h", 0.25},
	{"rainfall_intensity", 0.20},
	{"soil_moisture", 0.15},
	{"distance_to_river", 0.12},
	{"elevation", 0.10},
	{"historical_flood_frequency", 0.10},
	{"drainage_density", 0.05},
	{"urbanization", 0.03},
}

// featureScore is a weighted sum over normalized static and dynamic
// features, with class probabilities and per-feature attribution.
func featureScore(cond Conditions) (scorerResult, RiskClassification, []Factor) {
	values := map[string]float64{
		"rainfall_24h":               clamp01(cond.Rainfall24h / 100),
		"rainfall_intensity":         clamp01(cond.Intensity / 30),
		"soil_moisture":              clamp01(cond.SoilMoisture / 100),
		"distance_to_river":          clamp01(1 - cond.DistanceToRiverM/2000),
		"elevation":                  clamp01(1 - cond.Elevation/500),
		"historical_flood_frequency": clamp01(cond.HistoricalFloods),
		"drainage_density":           clamp01(cond.DrainageDensity),
		"urbanization":               clamp01(cond.Urbanization),
	}

	var prob float64
	factors := make([]Factor, 0, len(featureWeights))
	for _, fw := range featureWeights {
		contribution := values[fw.name] * fw.weight
		prob += contribution
		factors = append(factors, Factor{Name: fw.name, Contribution: round3(contribution)})
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution > factors[j].Contribution
	})

	prob = clamp01(prob)
	class, probs := classProbabilities(prob)

	classification := RiskClassification{
		Class:         class,
		Probabilities: make(map[string]float64, len(riskClasses)),
	}
	var confidence float64
	for i, name := range riskClasses {
		classification.Probabilities[name] = probs[i]
		if probs[i] > confidence {
			confidence = probs[i]
		}
	}

	return scorerResult{probability: prob, confidence: confidence}, classification, factors
}

var riskClasses = []string{"Low", "Medium", "High", "Severe"}

// classProbabilities maps the weighted risk score onto fixed softmax-style
// class vectors. The scorer's confidence is the matched class probability.
func classProbabilities(score float64) (string, [4]float64) {
	switch {
	case score < 0.25:
		return "Low", [4]float64{0.7, 0.2, 0.08, 0.02}
	case score < 0.5:
		return "Medium", [4]float64{0.2, 0.55, 0.2, 0.05}
	case score < 0.75:
		return "High", [4]float64{0.05, 0.2, 0.55, 0.2}
	default:
		return "Severe", [4]float64{0.02, 0.08, 0.25, 0.65}
	}
}

// propagationScore estimates risk arriving from upstream stations with
// exponential distance decay.
func propagationScore(upstream []UpstreamStation) scorerResult {
	if len(upstream) == 0 {
		return scorerResult{probability: 0, confidence: 0.3}
	}

	var maxRisk, sumRisk float64
	minDist := math.Inf(1)
	for _, s := range upstream {
		if s.RiskScore > maxRisk {
			maxRisk = s.RiskScore
		}
		sumRisk += s.RiskScore
		if s.DistanceKm < minDist {
			minDist = s.DistanceKm
		}
	}
	avg := sumRisk / float64(len(upstream))

	prob := clamp01((maxRisk*0.6 + avg*0.4) * math.Exp(-minDist/100))
	confidence := 0.6 + math.Min(1, float64(len(upstream))/10)*0.2
	return scorerResult{probability: prob, confidence: confidence}
}

// ArrivalHours estimates when upstream flood water reaches the location,
// assuming 5 km/h propagation. Returns false without upstream stations.
func ArrivalHours(upstream []UpstreamStation) (float64, bool) {
	if len(upstream) == 0 {
		return 0, false
	}
	minDist := math.Inf(1)
	for _, s := range upstream {
		if s.DistanceKm < minDist {
			minDist = s.DistanceKm
		}
	}
	return minDist / 5, true
}

func agreementBonus(probs ...float64) float64 {
	var sum float64
	for _, p := range probs {
		sum += p
	}
	mean := sum / float64(len(probs))

	var variance float64
	for _, p := range probs {
		variance += (p - mean) * (p - mean)
	}
	stddev := math.Sqrt(variance / float64(len(probs)))

	return math.Max(0, 0.15-stddev)
}

func blendHorizon(trendForecast HorizonForecast, featureProb, trendShare float64) HorizonForecast {
	p := clamp01(trendForecast.Probability*trendShare + featureProb*(1-trendShare))
	return HorizonForecast{Probability: round3(p), RiskLevel: riskLevel(p)}
}

func reasoning(prob float64, cond Conditions, factors []Factor) string {
	driver := "baseline conditions"
	if len(factors) > 0 && factors[0].Contribution > 0 {
		driver = factors[0].Name
	}
	return fmt.Sprintf("flood probability %.0f%% (%s risk), strongest driver: %s, 24h rainfall %.1fmm",
		prob*100, riskLevel(prob), driver, cond.Rainfall24h)
}

func recommendedActions(level string) []string {
	switch level {
	case "severe":
		return []string{
			"Evacuate low-lying areas immediately",
			"Move to designated shelters on higher ground",
			"Do not attempt to cross flooded roads",
		}
	case "high":
		return []string{
			"Prepare for possible evacuation",
			"Move valuables and documents above expected water level",
			"Keep emergency contacts and supplies ready",
		}
	case "medium":
		return []string{
			"Monitor official flood bulletins",
			"Review evacuation routes",
		}
	default:
		return []string{"No action needed, conditions are normal"}
	}
}

// dataQuality scores input completeness, not measurement accuracy.
func dataQuality(cond Conditions) float64 {
	q := 0.4
	if len(cond.RainfallHistory) >= 24 {
		q += 0.3
	} else if len(cond.RainfallHistory) > 0 {
		q += 0.15
	}
	if len(cond.DischargeHistory) > 0 {
		q += 0.2
	}
	if len(cond.Upstream) > 0 {
		q += 0.1
	}
	return math.Min(1, q)
}

func limitations(cond Conditions) []string {
	lims := []string{
		"scores are heuristic estimates, not hydrological simulations",
	}
	if len(cond.RainfallHistory) < 24 {
		lims = append(lims, "less than 24h of rainfall history available")
	}
	if len(cond.DischargeHistory) == 0 {
		lims = append(lims, "no river discharge readings, using weather-derived estimate")
	}
	if len(cond.Upstream) == 0 {
		lims = append(lims, "no upstream station data, propagation risk unknown")
	}
	return lims
}

func sumTail(vals []float64, n int) float64 {
	if len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
