package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
	return at
}

func TestSimulateEarthquakes_Global(t *testing.T) {
	now := frozenClock(t)
	r := rand.New(rand.NewSource(42))

	quakes := SimulateEarthquakes(r, EarthquakeQuery{MinMagnitude: 2.5, Days: 7})
	require.NotEmpty(t, quakes)

	for _, q := range quakes {
		assert.GreaterOrEqual(t, q.Magnitude, 2.5)
		assert.LessOrEqual(t, q.Magnitude, 9.5)
		assert.Greater(t, q.DepthKm, 0.0)
		assert.LessOrEqual(t, q.DepthKm, 300.0)
		assert.Equal(t, "simulated", q.Source)
		assert.Equal(t, "earthquake", q.Type)
		assert.False(t, q.Time.After(now))
		assert.False(t, q.Time.Before(now.Add(-7*24*time.Hour)))
	}
}

func TestSimulateEarthquakes_AroundPoint(t *testing.T) {
	frozenClock(t)
	r := rand.New(rand.NewSource(7))
	lat, lon, radius := 28.6, 77.2, 100.0

	quakes := SimulateEarthquakes(r, EarthquakeQuery{
		MinMagnitude: 2.0, Days: 30,
		Lat: &lat, Lon: &lon, RadiusKm: &radius,
	})
	require.NotEmpty(t, quakes)

	maxOffset := radius / 111
	for _, q := range quakes {
		assert.InDelta(t, lat, q.Geo.Lat, maxOffset+0.001)
		assert.InDelta(t, lon, q.Geo.Lon, maxOffset+0.001)
		assert.Contains(t, q.Place, "Region near")
	}
}

func TestSimulateEarthquakes_HighFloorYieldsFew(t *testing.T) {
	frozenClock(t)
	r := rand.New(rand.NewSource(1))

	quakes := SimulateEarthquakes(r, EarthquakeQuery{MinMagnitude: 6.0, Days: 7})
	assert.LessOrEqual(t, len(quakes), 3)
}

func TestAlertLevelForMagnitude(t *testing.T) {
	tests := []struct {
		mag  float64
		want string
	}{
		{7.5, "red"},
		{7.0, "red"},
		{6.2, "orange"},
		{5.0, "yellow"},
		{4.4, "green"},
		{3.9, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlertLevelForMagnitude(tt.mag), "magnitude %.1f", tt.mag)
	}
}

func TestSimulateFires_SortedByDistance(t *testing.T) {
	frozenClock(t)
	r := rand.New(rand.NewSource(99))
	lat, lon := 34.05, -118.24

	fires := SimulateFires(r, &lat, &lon)
	require.NotEmpty(t, fires)

	var prev float64 = -1
	for _, f := range fires {
		require.NotNil(t, f.DistanceKm)
		assert.GreaterOrEqual(t, *f.DistanceKm, prev)
		prev = *f.DistanceKm
		assert.Contains(t, []string{"low", "moderate", "high", "extreme"}, f.Intensity)
		assert.Equal(t, "simulated", f.Source)
	}
}

func TestSimulateFires_NoPoint(t *testing.T) {
	frozenClock(t)
	r := rand.New(rand.NewSource(3))

	fires := SimulateFires(r, nil, nil)
	require.NotEmpty(t, fires)
	for _, f := range fires {
		assert.Nil(t, f.DistanceKm)
		// Default basin is central California.
		assert.InDelta(t, 37.0, f.Geo.Lat, 5.001)
		assert.InDelta(t, -120.0, f.Geo.Lon, 5.001)
	}
}
