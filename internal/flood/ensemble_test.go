package flood

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

func testWeather(rain1h, humidity float64) domain.WeatherSnapshot {
	return domain.WeatherSnapshot{Rainfall1h: rain1h, Humidity: humidity}
}

func testOutlook(rain24h, maxIntensity float64) domain.WeatherOutlook {
	return domain.WeatherOutlook{Rainfall24h: rain24h, MaxIntensity: maxIntensity}
}

func testPredictor() *Predictor {
	return NewPredictor(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func heavyRainConditions() Conditions {
	rain := make([]float64, 24)
	for i := range rain {
		rain[i] = float64(i) // steadily intensifying storm
	}
	return Conditions{
		RainfallHistory:  rain,
		DischargeHistory: []float64{400, 550, 700, 850, 900, 950},
		Rainfall24h:      120,
		Intensity:        23,
		SoilMoisture:     92,
		Elevation:        40,
		DistanceToRiverM: 200,
		HistoricalFloods: 0.7,
		DrainageDensity:  0.4,
		Urbanization:     0.8,
		Upstream: []UpstreamStation{
			{DistanceKm: 12, RiskScore: 0.8},
			{DistanceKm: 30, RiskScore: 0.6},
		},
	}
}

func TestPredict_HeavyRain(t *testing.T) {
	pred := testPredictor().Predict(heavyRainConditions())

	assert.Greater(t, pred.Probability, 0.5)
	assert.Contains(t, []string{"high", "severe"}, pred.RiskLevel)
	assert.Greater(t, pred.Confidence, 0.6)
	assert.LessOrEqual(t, pred.Confidence, 1.0)

	require.Len(t, pred.Horizons, 3)
	for _, h := range []string{"6h", "12h", "24h"} {
		assert.Contains(t, pred.Horizons, h)
		assert.LessOrEqual(t, pred.Horizons[h].Probability, 1.0)
	}

	assert.Len(t, pred.ModelBreakdown, 3)
	assert.NotEmpty(t, pred.Classification.Class)
	assert.NotEmpty(t, pred.TopFactors)
	assert.NotEmpty(t, pred.RecommendedActions)
	assert.NotEmpty(t, pred.Reasoning)
	assert.Greater(t, pred.DataQuality, 0.8)
}

func TestPredict_Horizon24hMatchesEnsemble(t *testing.T) {
	cond := heavyRainConditions()
	pred := testPredictor().Predict(cond)

	assert.Equal(t, pred.Probability, pred.Horizons["24h"].Probability)
	assert.Equal(t, pred.RiskLevel, pred.Horizons["24h"].RiskLevel)

	// 6h and 12h blend the trend trajectory with the feature risk.
	features, _, _ := featureScore(cond)
	horizons := trendHorizons(cond)
	want6h := round3(clamp01(horizons["6h"].Probability*0.9 + features.probability*0.1))
	want12h := round3(clamp01(horizons["12h"].Probability*0.7 + features.probability*0.3))
	assert.Equal(t, want6h, pred.Horizons["6h"].Probability)
	assert.Equal(t, want12h, pred.Horizons["12h"].Probability)
}

func TestPredict_DryConditions(t *testing.T) {
	pred := testPredictor().Predict(Conditions{
		Rainfall24h:      0,
		Intensity:        0,
		SoilMoisture:     30,
		Elevation:        450,
		DistanceToRiverM: 1900,
	})

	assert.Less(t, pred.Probability, 0.25)
	assert.Equal(t, "low", pred.RiskLevel)
	assert.Equal(t, []string{"No action needed, conditions are normal"}, pred.RecommendedActions)
	assert.Contains(t, pred.Limitations, "no upstream station data, propagation risk unknown")
}

func TestTrendScore_DischargeBlend(t *testing.T) {
	base := trendScore(Conditions{Rainfall24h: 60, Intensity: 10})
	withDischarge := trendScore(Conditions{
		Rainfall24h:      60,
		Intensity:        10,
		DischargeHistory: []float64{900, 950, 1000},
	})
	assert.Greater(t, withDischarge.probability, base.probability)
}

func TestRainTrend(t *testing.T) {
	rising := make([]float64, 24)
	for i := range rising {
		rising[i] = float64(i) * 2
	}
	assert.Greater(t, rainTrend(rising), 0.0)

	falling := make([]float64, 24)
	for i := range falling {
		falling[i] = float64(24-i) * 2
	}
	assert.Less(t, rainTrend(falling), 0.0)

	assert.Equal(t, 0.0, rainTrend(nil))
	assert.Equal(t, 0.0, rainTrend([]float64{5}))

	// Extreme slope clamps to the normalized bound.
	steep := []float64{0, 100, 200, 300}
	assert.Equal(t, 1.0, rainTrend(steep))
}

func TestFeatureScore_Attribution(t *testing.T) {
	result, _, factors := featureScore(heavyRainConditions())

	assert.Greater(t, result.probability, 0.5)
	require.Len(t, factors, 8)
	for i := 1; i < len(factors); i++ {
		assert.GreaterOrEqual(t, factors[i-1].Contribution, factors[i].Contribution)
	}
	assert.Equal(t, "rainfall_24h", factors[0].Name)
}

func TestFeatureScore_ClassConfidence(t *testing.T) {
	// Bare conditions only pick up the distance and elevation terms
	// (0.12 + 0.10 = 0.22), landing in the Low class.
	low, lowClass, _ := featureScore(Conditions{})
	assert.Equal(t, "Low", lowClass.Class)
	assert.Equal(t, 0.7, low.confidence)
	assert.Equal(t, 0.7, lowClass.Probabilities["Low"])

	severe, severeClass, _ := featureScore(heavyRainConditions())
	assert.Equal(t, "Severe", severeClass.Class)
	assert.Equal(t, 0.65, severe.confidence)

	assert.NotEqual(t, low.confidence, severe.confidence)

	var sum float64
	for _, p := range severeClass.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestClassProbabilities_CutPoints(t *testing.T) {
	cases := []struct {
		score float64
		class string
		conf  float64
	}{
		{0.1, "Low", 0.7},
		{0.3, "Medium", 0.55},
		{0.6, "High", 0.55},
		{0.9, "Severe", 0.65},
	}
	for _, tc := range cases {
		class, probs := classProbabilities(tc.score)
		assert.Equal(t, tc.class, class, "score %v", tc.score)
		maxProb := 0.0
		for _, p := range probs {
			if p > maxProb {
				maxProb = p
			}
		}
		assert.Equal(t, tc.conf, maxProb, "score %v", tc.score)
	}
}

func TestPropagationScore(t *testing.T) {
	t.Run("no upstream", func(t *testing.T) {
		r := propagationScore(nil)
		assert.Equal(t, 0.0, r.probability)
		assert.Equal(t, 0.3, r.confidence)
	})

	t.Run("near high-risk station", func(t *testing.T) {
		near := propagationScore([]UpstreamStation{{DistanceKm: 10, RiskScore: 0.9}})
		far := propagationScore([]UpstreamStation{{DistanceKm: 200, RiskScore: 0.9}})
		assert.Greater(t, near.probability, far.probability)
	})
}

func TestArrivalHours(t *testing.T) {
	h, ok := ArrivalHours([]UpstreamStation{{DistanceKm: 25}, {DistanceKm: 60}})
	require.True(t, ok)
	assert.Equal(t, 5.0, h)

	_, ok = ArrivalHours(nil)
	assert.False(t, ok)
}

func TestAgreementBonus(t *testing.T) {
	full := agreementBonus(0.5, 0.5, 0.5)
	assert.InDelta(t, 0.15, full, 1e-9)

	spread := agreementBonus(0.1, 0.5, 0.9)
	assert.Less(t, spread, full)
	assert.GreaterOrEqual(t, spread, 0.0)
}

func TestDeriveConditions(t *testing.T) {
	wx := testWeather(8, 85)
	cond := DeriveConditions(wx, testOutlook(45, 8.5), 13.08, 80.27, nil)

	// discharge = 150 + 8*15 + (85-50)*2 = 340
	require.Len(t, cond.DischargeHistory, 1)
	assert.InDelta(t, 340, cond.DischargeHistory[0], 1e-9)
	assert.InDelta(t, 0.72, cond.WaterLevel, 1e-9) // 0.3 + 0.34 + 0.08
	assert.Equal(t, 100.0, cond.SoilMoisture)      // 85 + 16 capped
	assert.Equal(t, 45.0, cond.Rainfall24h)
	assert.Equal(t, 8.5, cond.Intensity)

	// Terrain attributes are stable per location.
	again := DeriveConditions(wx, testOutlook(45, 8.5), 13.08, 80.27, nil)
	assert.Equal(t, cond.Elevation, again.Elevation)
	assert.Equal(t, cond.DistanceToRiverM, again.DistanceToRiverM)
}

func TestDeriveConditions_RealDischarge(t *testing.T) {
	d := 812.0
	cond := DeriveConditions(testWeather(2, 60), testOutlook(10, 2), 26.2, 92.9, &d)
	require.Len(t, cond.DischargeHistory, 1)
	assert.Equal(t, 812.0, cond.DischargeHistory[0])
}
