package aggregate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShivanshCoding36/alert-aid/internal/domain"
)

// SourceStatus reports the health of one upstream source.
type SourceStatus struct {
	Status    string    `json:"status"` // operational, degraded, offline
	CheckedAt time.Time `json:"checked_at"`
}

// Status probes every upstream source concurrently. A source serving
// simulated fallback data reports degraded; one returning nothing reports
// offline.
func (s *Service) Status(ctx context.Context) map[string]SourceStatus {
	statuses := make(map[string]SourceStatus, 4)
	now := domain.Now().UTC()

	var quakeStatus, gdacsStatus, fireStatus, weatherStatus string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quakes := s.quakes.Fetch(gctx, domain.EarthquakeQuery{MinMagnitude: 4.5, Days: 1})
		quakeStatus = statusOf(len(quakes) > 0, allSimulatedQuakes(quakes))
		return nil
	})
	g.Go(func() error {
		alerts := s.gdacs.Fetch(gctx)
		gdacsStatus = statusOf(len(alerts) > 0, false)
		return nil
	})
	g.Go(func() error {
		fires := s.fires.Fetch(gctx, nil, nil, 1)
		fireStatus = statusOf(len(fires) > 0, allSimulatedFires(fires))
		return nil
	})
	g.Go(func() error {
		snap, _ := s.weather.Observe(gctx, 20.59, 78.96) // central India reference point
		weatherStatus = statusOf(true, snap.Source == "simulated")
		return nil
	})
	_ = g.Wait()

	statuses["usgs"] = SourceStatus{Status: quakeStatus, CheckedAt: now}
	statuses["gdacs"] = SourceStatus{Status: gdacsStatus, CheckedAt: now}
	statuses["nasa_firms"] = SourceStatus{Status: fireStatus, CheckedAt: now}
	statuses["openweathermap"] = SourceStatus{Status: weatherStatus, CheckedAt: now}
	return statuses
}

func statusOf(gotData, simulated bool) string {
	switch {
	case !gotData:
		return "offline"
	case simulated:
		return "degraded"
	default:
		return "operational"
	}
}

func allSimulatedQuakes(quakes []domain.Earthquake) bool {
	if len(quakes) == 0 {
		return false
	}
	for _, q := range quakes {
		if q.Source != "simulated" {
			return false
		}
	}
	return true
}

func allSimulatedFires(fires []domain.FireHotspot) bool {
	if len(fires) == 0 {
		return false
	}
	for _, f := range fires {
		if f.Source != "simulated" {
			return false
		}
	}
	return true
}
