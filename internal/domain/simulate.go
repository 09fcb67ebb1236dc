package domain

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// seismicRegion is a known active zone used when synthesizing global events.
type seismicRegion struct {
	lat, lon float64
	name     string
}

var seismicRegions = []seismicRegion{
	{37.7749, -122.4194, "San Francisco Bay Area"},
	{34.0522, -118.2437, "Los Angeles Area"},
	{64.2008, -149.4937, "Alaska"},
	{19.8968, -155.5828, "Hawaii"},
	{35.6762, 139.6503, "Tokyo Region"},
	{-41.2865, 174.7762, "New Zealand"},
}

// EarthquakeQuery bounds a simulated catalog: magnitude floor, lookback
// window, and an optional centre point with radius.
type EarthquakeQuery struct {
	MinMagnitude float64
	Days         int
	Lat, Lon     *float64
	RadiusKm     *float64
}

// SimulateEarthquakes synthesizes a plausible earthquake catalog for the
// given query. Event counts shrink as the magnitude floor rises, mirroring
// real seismicity rates.
func SimulateEarthquakes(r *rand.Rand, q EarthquakeQuery) []Earthquake {
	var count int
	switch {
	case q.MinMagnitude <= 2.0:
		count = 15 + r.Intn(26)
	case q.MinMagnitude <= 3.0:
		count = 8 + r.Intn(18)
	case q.MinMagnitude <= 4.0:
		count = 3 + r.Intn(10)
	case q.MinMagnitude <= 5.0:
		count = 1 + r.Intn(6)
	default:
		count = r.Intn(4)
	}

	now := clock.Now()
	quakes := make([]Earthquake, 0, count)
	for i := 0; i < count; i++ {
		var lat, lon float64
		var place string
		if q.Lat != nil && q.Lon != nil {
			maxOffset := 2.0
			if q.RadiusKm != nil {
				maxOffset = *q.RadiusKm / 111 // rough km-to-degrees
			}
			lat = *q.Lat + (r.Float64()*2-1)*maxOffset
			lon = *q.Lon + (r.Float64()*2-1)*maxOffset
			place = fmt.Sprintf("Region near %.2f, %.2f", *q.Lat, *q.Lon)
		} else {
			region := seismicRegions[r.Intn(len(seismicRegions))]
			lat = region.lat + (r.Float64()*2-1)*3
			lon = region.lon + (r.Float64()*2-1)*3
			place = fmt.Sprintf("%dkm from %s", 5+r.Intn(146), region.name)
		}

		mag := simulateMagnitude(r, q.MinMagnitude)
		eventTime := now.Add(-time.Duration(r.Float64()*float64(q.Days)*24) * time.Hour)

		eq := Earthquake{
			ID:            fmt.Sprintf("sim_%06d", 100000+r.Intn(900000)),
			Magnitude:     round1(mag),
			Geo:           Geo{Lat: round4(lat), Lon: round4(lon)},
			DepthKm:       round1(simulateDepth(r)),
			Place:         place,
			Time:          eventTime,
			Updated:       eventTime,
			Type:          "earthquake",
			Significance:  int(mag*100) + r.Intn(101) - 50,
			AlertLevel:    AlertLevelForMagnitude(mag),
			Tsunami:       mag >= 7.0 && r.Float64() < 0.3,
			MagnitudeType: []string{"ml", "mw", "mb", "md"}[r.Intn(4)],
			Source:        "simulated",
		}
		if mag >= 3.0 {
			eq.FeltReports = r.Intn(int(mag*50) + 1)
		}
		if mag >= 2.5 {
			eq.Intensity = round1(1 + r.Float64()*(min(10, mag+2)-1))
		}
		quakes = append(quakes, eq)
	}
	return quakes
}

// simulateMagnitude draws a magnitude above the floor with a rough
// Gutenberg-Richter shape: mostly near the floor, occasionally much larger.
func simulateMagnitude(r *rand.Rand, minMag float64) float64 {
	var mag float64
	switch roll := r.Float64(); {
	case roll < 0.7:
		mag = minMag + r.ExpFloat64()*0.5
	case roll < 0.9:
		mag = minMag + 1 + r.ExpFloat64()*0.7
	default:
		mag = minMag + 2 + r.ExpFloat64()*1.0
	}
	return min(mag, 9.5)
}

// simulateDepth draws a focal depth in km: 70% shallow, 20% intermediate,
// 10% deep, matching the observed global distribution.
func simulateDepth(r *rand.Rand) float64 {
	switch roll := r.Float64(); {
	case roll < 0.7:
		return 1 + r.Float64()*19
	case roll < 0.9:
		return 20 + r.Float64()*50
	default:
		return 70 + r.Float64()*230
	}
}

// AlertLevelForMagnitude maps magnitude to a PAGER-style alert level.
// Below magnitude 4 there is no alert level.
func AlertLevelForMagnitude(mag float64) string {
	switch {
	case mag >= 7.0:
		return "red"
	case mag >= 6.0:
		return "orange"
	case mag >= 5.0:
		return "yellow"
	case mag >= 4.0:
		return "green"
	default:
		return ""
	}
}

// SimulateFires synthesizes fire hotspots around a point (or central
// California when no point is given), used when FIRMS is unreachable.
func SimulateFires(r *rand.Rand, lat, lon *float64) []FireHotspot {
	baseLat, baseLon := 37.0, -120.0
	if lat != nil {
		baseLat = *lat
	}
	if lon != nil {
		baseLon = *lon
	}

	now := clock.Now()
	count := 3 + r.Intn(10)
	fires := make([]FireHotspot, 0, count)
	for i := 0; i < count; i++ {
		fLat := baseLat + (r.Float64()*2-1)*5
		fLon := baseLon + (r.Float64()*2-1)*5

		var intensity string
		var brightness, frp float64
		switch roll := r.Float64(); {
		case roll > 0.9:
			intensity = "extreme"
			brightness = 400 + r.Float64()*100
			frp = 100 + r.Float64()*200
		case roll > 0.7:
			intensity = "high"
			brightness = 350 + r.Float64()*50
			frp = 50 + r.Float64()*50
		case roll > 0.4:
			intensity = "moderate"
			brightness = 320 + r.Float64()*30
			frp = 20 + r.Float64()*30
		default:
			intensity = "low"
			brightness = 300 + r.Float64()*20
			frp = 5 + r.Float64()*15
		}

		f := FireHotspot{
			Geo:        Geo{Lat: round4(fLat), Lon: round4(fLon)},
			Brightness: round1(brightness),
			FRP:        round1(frp),
			Confidence: []string{"low", "nominal", "high"}[r.Intn(3)],
			Intensity:  intensity,
			AcqDate:    now.Format("2006-01-02"),
			AcqTime:    fmt.Sprintf("%02d%02d", r.Intn(24), r.Intn(60)),
			Source:     "simulated",
		}
		if lat != nil && lon != nil {
			d := round1(Haversine(*lat, *lon, fLat, fLon))
			f.DistanceKm = &d
		}
		fires = append(fires, f)
	}
	SortFiresByDistance(fires)
	return fires
}

// SortFiresByDistance orders hotspots nearest-first; entries without a
// distance sort last.
func SortFiresByDistance(fires []FireHotspot) {
	const far = 99999.0
	dist := func(f FireHotspot) float64 {
		if f.DistanceKm == nil {
			return far
		}
		return *f.DistanceKm
	}
	sort.SliceStable(fires, func(i, j int) bool { return dist(fires[i]) < dist(fires[j]) })
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
