package domain

import "math"

const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometres between two
// WGS-84 coordinate pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// coastalIndiaBoxes are rough bounding boxes (minLat, maxLat, minLon, maxLon)
// for India's coastal belts, used by the cyclone-watch rule.
var coastalIndiaBoxes = [][4]float64{
	{8, 15, 74, 80},  // Kerala/Karnataka coast
	{12, 22, 80, 88}, // east coast, Tamil Nadu to Odisha
	{18, 24, 66, 74}, // Gujarat coast
	{15, 20, 72, 76}, // Maharashtra coast
}

// IsCoastalIndia reports whether a point falls inside one of the rough
// coastal-India bounding boxes.
func IsCoastalIndia(lat, lon float64) bool {
	for _, b := range coastalIndiaBoxes {
		if lat >= b[0] && lat <= b[1] && lon >= b[2] && lon <= b[3] {
			return true
		}
	}
	return false
}
