// Package aggregate merges the independent hazard sources into combined
// dashboard responses.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
)

// Source interfaces keep the service testable without live adapters.

type EarthquakeSource interface {
	Fetch(ctx context.Context, q domain.EarthquakeQuery) []domain.Earthquake
}

type GDACSSource interface {
	Fetch(ctx context.Context) []domain.GDACSAlert
}

type FireSource interface {
	Fetch(ctx context.Context, lat, lon *float64, dayRange int) []domain.FireHotspot
}

type WeatherSource interface {
	Observe(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, domain.WeatherOutlook)
}

// EarthquakeSummary condenses recent significant seismic activity.
type EarthquakeSummary struct {
	Count        int                 `json:"count"`
	MaxMagnitude float64             `json:"max_magnitude"`
	Tsunami      bool                `json:"tsunami_warning"`
	Significant  []domain.Earthquake `json:"significant_events"`
}

// FireSummary condenses current fire activity.
type FireSummary struct {
	Count         int `json:"count"`
	HighIntensity int `json:"high_intensity_count"`
}

// Summary is the combined natural-disasters dashboard payload.
type Summary struct {
	Earthquakes    EarthquakeSummary   `json:"earthquakes"`
	WeatherSystems []domain.GDACSAlert `json:"weather_systems"`
	Fires          FireSummary         `json:"fires"`
	GDACSAlerts    []domain.GDACSAlert `json:"gdacs_alerts"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// Service fans out to all sources concurrently and merges the results.
// Individual source failures degrade to empty sections.
type Service struct {
	quakes  EarthquakeSource
	gdacs   GDACSSource
	fires   FireSource
	weather WeatherSource
	logger  *slog.Logger
}

// NewService wires the aggregation service.
func NewService(quakes EarthquakeSource, gdacs GDACSSource, fires FireSource, weather WeatherSource, logger *slog.Logger) *Service {
	return &Service{quakes: quakes, gdacs: gdacs, fires: fires, weather: weather, logger: logger}
}

// Summary fetches all sources concurrently and merges them into one
// response.
func (s *Service) Summary(ctx context.Context) Summary {
	var (
		quakes []domain.Earthquake
		alerts []domain.GDACSAlert
		fires  []domain.FireHotspot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quakes = s.quakes.Fetch(gctx, domain.EarthquakeQuery{MinMagnitude: 5, Days: 1})
		return nil
	})
	g.Go(func() error {
		alerts = s.gdacs.Fetch(gctx)
		return nil
	})
	g.Go(func() error {
		fires = s.fires.Fetch(gctx, nil, nil, 1)
		return nil
	})
	_ = g.Wait() // sources degrade internally, never error

	return Summary{
		Earthquakes:    summarizeQuakes(quakes),
		WeatherSystems: weatherSystems(alerts),
		Fires:          summarizeFires(fires),
		GDACSAlerts:    alerts,
		GeneratedAt:    domain.Now().UTC(),
	}
}

func summarizeQuakes(quakes []domain.Earthquake) EarthquakeSummary {
	sum := EarthquakeSummary{Count: len(quakes)}
	for _, q := range quakes {
		if q.Magnitude > sum.MaxMagnitude {
			sum.MaxMagnitude = q.Magnitude
		}
		if q.Tsunami {
			sum.Tsunami = true
		}
		if q.Magnitude >= 6 {
			sum.Significant = append(sum.Significant, q)
		}
	}
	return sum
}

// weatherSystems filters GDACS entries down to active storm systems.
func weatherSystems(alerts []domain.GDACSAlert) []domain.GDACSAlert {
	var systems []domain.GDACSAlert
	for _, a := range alerts {
		if a.EventType == "Cyclone" {
			systems = append(systems, a)
		}
	}
	return systems
}

func summarizeFires(fires []domain.FireHotspot) FireSummary {
	sum := FireSummary{Count: len(fires)}
	for _, f := range fires {
		if f.Intensity == "high" || f.Intensity == "extreme" {
			sum.HighIntensity++
		}
	}
	return sum
}
