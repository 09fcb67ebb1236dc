// Package hazard scores a location against five hazard classes by blending
// static region tables with live weather.
package hazard

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
)

//go:embed regions.yaml
var regionsYAML []byte

// box is [min_lat, max_lat, min_lon, max_lon].
type box [4]float64

func (b box) contains(lat, lon float64) bool {
	return lat >= b[0] && lat <= b[1] && lon >= b[2] && lon <= b[3]
}

type seismicZone struct {
	Name string `yaml:"name"`
	Box  box    `yaml:"box"`
	Zone int    `yaml:"zone"`
}

type weightedRegion struct {
	Name   string  `yaml:"name"`
	Box    box     `yaml:"box"`
	Weight float64 `yaml:"weight"`
}

type namedRegion struct {
	Name string `yaml:"name"`
	Box  box    `yaml:"box"`
}

type regionTables struct {
	SeismicZones     []seismicZone    `yaml:"seismic_zones"`
	FloodRegions     []weightedRegion `yaml:"flood_regions"`
	Coastal          []namedRegion    `yaml:"coastal"`
	FireRegions      []weightedRegion `yaml:"fire_regions"`
	LandslideRegions []weightedRegion `yaml:"landslide_regions"`
}

// Score is one hazard's assessment.
type Score struct {
	Probability float64  `json:"probability"`
	Level       string   `json:"level"` // low/moderate/high/extreme
	Factors     []string `json:"factors,omitempty"`
}

// Assessment is the full multi-hazard result for a location.
type Assessment struct {
	Overall      float64          `json:"overall_score"`
	OverallLevel string           `json:"overall_level"`
	Hazards      map[string]Score `json:"hazards"`
	Dominant     string           `json:"dominant_hazard"`
}

// Service assesses locations against the embedded region tables.
type Service struct {
	tables regionTables
	logger *slog.Logger
}

// NewService parses the embedded region tables.
func NewService(logger *slog.Logger) (*Service, error) {
	var t regionTables
	if err := yaml.Unmarshal(regionsYAML, &t); err != nil {
		return nil, fmt.Errorf("parse region tables: %w", err)
	}
	return &Service{tables: t, logger: logger}, nil
}

// Assess scores all five hazards for a point under the given weather.
func (s *Service) Assess(lat, lon float64, wx domain.WeatherSnapshot) Assessment {
	coastalName, coastal := s.coastalRegion(lat, lon)

	hazards := map[string]Score{
		"earthquake": s.earthquakeScore(lat, lon),
		"flood":      s.floodScore(lat, lon, wx, coastal),
		"cyclone":    s.cycloneScore(lat, lon, wx, coastal, coastalName),
		"wildfire":   s.wildfireScore(lat, lon, wx),
		"landslide":  s.landslideScore(lat, lon, wx),
	}

	var overall float64
	dominant := "none"
	for name, h := range hazards {
		if h.Probability > overall {
			overall = h.Probability
			dominant = name
		}
	}
	// Coastal locations sit near sea level; a given score means more there.
	if coastal && overall > 0.2 {
		overall = math.Min(0.95, overall+0.1)
	}

	return Assessment{
		Overall:      round3(overall),
		OverallLevel: level(overall),
		Hazards:      hazards,
		Dominant:     dominant,
	}
}

func (s *Service) coastalRegion(lat, lon float64) (string, bool) {
	for _, r := range s.tables.Coastal {
		if r.Box.contains(lat, lon) {
			return r.Name, true
		}
	}
	return "", false
}

func (s *Service) earthquakeScore(lat, lon float64) Score {
	p := 0.05
	var factors []string
	for _, z := range s.tables.SeismicZones {
		if z.Box.contains(lat, lon) {
			zp := 0.05 + float64(z.Zone)/5*0.6
			if zp > p {
				p = zp
				factors = []string{fmt.Sprintf("seismic zone %d (%s)", z.Zone, z.Name)}
			}
		}
	}
	return newScore(p, factors)
}

func (s *Service) floodScore(lat, lon float64, wx domain.WeatherSnapshot, coastal bool) Score {
	p := 0.05
	var factors []string
	for _, r := range s.tables.FloodRegions {
		if r.Box.contains(lat, lon) && r.Weight > p {
			p = r.Weight
			factors = []string{"flood-prone region: " + r.Name}
		}
	}
	if wx.Rainfall1h > 0 {
		p += math.Min(0.3, wx.Rainfall1h/50*0.3)
		factors = append(factors, fmt.Sprintf("active rainfall %.1fmm/h", wx.Rainfall1h))
	}
	if wx.Humidity > 80 {
		p += 0.1
		factors = append(factors, "saturated air mass")
	}
	if coastal {
		p += 0.1
		factors = append(factors, "coastal storm surge exposure")
	}
	return newScore(p, factors)
}

func (s *Service) cycloneScore(lat, lon float64, wx domain.WeatherSnapshot, coastal bool, coastalName string) Score {
	if !coastal {
		return newScore(0.05, nil)
	}

	p := 0.2
	factors := []string{"coastal region: " + coastalName}

	month := domain.Now().Month()
	if inCycloneSeason(month) {
		p += 0.2
		factors = append(factors, "cyclone season")
	}

	windKmh := wx.WindSpeed * 3.6
	if windKmh > 0 {
		p += math.Min(0.4, windKmh/100*0.4)
	}
	if windKmh > 60 {
		factors = append(factors, fmt.Sprintf("sustained wind %.0fkm/h", windKmh))
	}
	return newScore(p, factors)
}

func inCycloneSeason(m time.Month) bool {
	switch m {
	case time.May, time.June, time.October, time.November, time.December:
		return true
	}
	return false
}

func (s *Service) wildfireScore(lat, lon float64, wx domain.WeatherSnapshot) Score {
	p := 0.05
	var factors []string
	for _, r := range s.tables.FireRegions {
		if r.Box.contains(lat, lon) && r.Weight > p {
			p = r.Weight
			factors = []string{"fire-prone region: " + r.Name}
		}
	}
	if wx.Temperature > 35 {
		p += 0.2
		factors = append(factors, fmt.Sprintf("high temperature %.1f°C", wx.Temperature))
	}
	if wx.Humidity > 0 && wx.Humidity < 30 {
		p += 0.2
		factors = append(factors, "low humidity")
	}
	if wx.Rainfall1h > 1 {
		p -= 0.2
		factors = append(factors, "active rainfall suppressing fire risk")
	}
	return newScore(p, factors)
}

func (s *Service) landslideScore(lat, lon float64, wx domain.WeatherSnapshot) Score {
	p := 0.05
	var factors []string
	for _, r := range s.tables.LandslideRegions {
		if r.Box.contains(lat, lon) && r.Weight > p {
			p = r.Weight
			factors = []string{"landslide-prone terrain: " + r.Name}
		}
	}
	if wx.Rainfall1h > 5 {
		p += 0.25
		factors = append(factors, "heavy rainfall on slopes")
	} else if wx.Rainfall1h > 0 {
		p += 0.1
	}
	return newScore(p, factors)
}

func newScore(p float64, factors []string) Score {
	p = math.Min(0.95, math.Max(0, p))
	return Score{Probability: round3(p), Level: level(p), Factors: factors}
}

func level(p float64) string {
	switch {
	case p >= 0.75:
		return "extreme"
	case p >= 0.5:
		return "high"
	case p >= 0.25:
		return "moderate"
	default:
		return "low"
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
