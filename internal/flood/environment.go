package flood

import (
	"math"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
)

// DeriveConditions builds model input from current weather. Discharge,
// water level, and soil moisture are estimated from rainfall and humidity
// unless a real discharge reading is supplied. Terrain attributes have no
// live source and are derived deterministically from the coordinates so
// repeated requests for a location see consistent values.
func DeriveConditions(wx domain.WeatherSnapshot, outlook domain.WeatherOutlook, lat, lon float64, realDischarge *float64) Conditions {
	rainfall := wx.Rainfall1h

	discharge := 150 + rainfall*15 + (wx.Humidity-50)*2
	if realDischarge != nil {
		discharge = *realDischarge
	}

	waterLevel := math.Min(0.95, 0.3+discharge/1000+rainfall/100)
	soilMoisture := math.Min(100, wx.Humidity+rainfall*2)

	rainfall24h := outlook.Rainfall24h
	if rainfall24h == 0 {
		rainfall24h = rainfall * 18
	}

	return Conditions{
		Rainfall24h:      rainfall24h,
		Intensity:        math.Max(rainfall, outlook.MaxIntensity),
		SoilMoisture:     soilMoisture,
		WaterLevel:       waterLevel,
		Elevation:        terrainElevation(lat, lon),
		DistanceToRiverM: terrainRiverDistance(lat, lon),
		HistoricalFloods: terrainFloodFrequency(lat, lon),
		DrainageDensity:  0.5,
		Urbanization:     0.6,
		DischargeHistory: []float64{discharge},
	}
}

// Terrain fallbacks hash the coordinate fractions into plausible ranges.

func terrainElevation(lat, lon float64) float64 {
	return 20 + coordFraction(lat*7, lon*13)*480
}

func terrainRiverDistance(lat, lon float64) float64 {
	return 100 + coordFraction(lat*11, lon*3)*1900
}

func terrainFloodFrequency(lat, lon float64) float64 {
	return 0.1 + coordFraction(lat*5, lon*17)*0.6
}

// coordFraction maps two scaled coordinates onto [0, 1).
func coordFraction(a, b float64) float64 {
	_, fa := math.Modf(math.Abs(a))
	_, fb := math.Modf(math.Abs(b))
	_, f := math.Modf(fa + fb)
	return f
}
