package domain

import "time"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherSnapshot holds the current-conditions fields the risk models consume.
type WeatherSnapshot struct {
	Rainfall1h  float64 `json:"rainfall_1h"`
	Rainfall3h  float64 `json:"rainfall_3h"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
	CloudCover  float64 `json:"cloud_cover"`

	// Condition is the lowercased OpenWeatherMap main group ("rain",
	// "thunderstorm", ...); ConditionDetail the longer description.
	Condition       string `json:"condition,omitempty"`
	ConditionDetail string `json:"condition_detail,omitempty"`

	LocationName string    `json:"location_name,omitempty"`
	ObservedAt   time.Time `json:"timestamp"`
	Source       string    `json:"source"` // "openweathermap" or "simulated"
}

// WeatherOutlook summarizes the next 24 hours of forecast.
type WeatherOutlook struct {
	Rainfall24h  float64 `json:"rainfall_24h_forecast"`
	MaxIntensity float64 `json:"max_rainfall_intensity"` // mm/h
}

// Earthquake is the normalized representation of a USGS event feature.
type Earthquake struct {
	ID            string    `json:"id"`
	Magnitude     float64   `json:"magnitude"`
	Geo           Geo       `json:"geo"`
	DepthKm       float64   `json:"depth_km"`
	Place         string    `json:"place"`
	Time          time.Time `json:"time"`
	Updated       time.Time `json:"updated"`
	URL           string    `json:"url,omitempty"`
	DetailURL     string    `json:"detail_url,omitempty"`
	Type          string    `json:"type"`
	Significance  int       `json:"significance"`
	AlertLevel    string    `json:"alert_level,omitempty"` // PAGER: green/yellow/orange/red
	Tsunami       bool      `json:"tsunami_warning"`
	FeltReports   int       `json:"felt_reports,omitempty"`
	Intensity     float64   `json:"intensity,omitempty"` // community-reported CDI
	MMI           float64   `json:"mmi,omitempty"`
	MagnitudeType string    `json:"magnitude_type,omitempty"`
	Source        string    `json:"source"`
}

// FireHotspot is one VIIRS active-fire detection.
type FireHotspot struct {
	Geo        Geo      `json:"geo"`
	Brightness float64  `json:"brightness"` // Kelvin
	FRP        float64  `json:"frp"`        // fire radiative power, MW
	Confidence string   `json:"confidence"` // low/nominal/high
	Intensity  string   `json:"intensity"`  // low/moderate/high/extreme
	DistanceKm *float64 `json:"distance_km,omitempty"`
	AcqDate    string   `json:"acq_date,omitempty"`
	AcqTime    string   `json:"acq_time,omitempty"`
	Source     string   `json:"source"`
}

// GDACSAlert is one entry from the GDACS global disaster RSS feed.
type GDACSAlert struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`  // Earthquake, Flood, Cyclone, ...
	AlertLevel  string `json:"alert_level"` // Green, Orange, Red
	Title       string `json:"title"`
	Description string `json:"description"`
	PubDate     string `json:"pub_date"`
	Link        string `json:"link,omitempty"`
	Geo         Geo    `json:"coordinates"`
}

// Facility is an emergency facility near a point, from OpenStreetMap.
type Facility struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"` // hospital, shelter, police, fire_station
	Geo        Geo     `json:"geo"`
	DistanceKm float64 `json:"distance_km"`
}

// Warning is a rule-derived weather warning in the IMD bulletin style.
type Warning struct {
	Type         string    `json:"type"`
	Severity     string    `json:"severity"` // Yellow, Orange, Red
	Message      string    `json:"message"`
	Instructions []string  `json:"instructions"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
}
