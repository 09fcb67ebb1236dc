// Package domain models the disaster data served by the Alert-AID API.
//
// # Data Sources
//
// Earthquakes come from the USGS FDSN event service
// (https://earthquake.usgs.gov/fdsnws/event/1/query) as GeoJSON. Active fire
// hotspots come from NASA FIRMS VIIRS near-real-time area CSVs. Global
// disaster alerts come from the GDACS RSS feed. Weather observations and
// forecasts come from OpenWeatherMap; river discharge from the Open-Meteo
// flood API. Each upstream has an adapter under internal/adapter, and each
// adapter degrades to a fallback when its upstream is unreachable, because
// the dashboard must keep rendering during outages.
//
// # Conventions
//
// Coordinates are WGS-84 decimal degrees. Distances are kilometres, computed
// with the haversine formula on a 6371 km sphere. Rainfall is millimetres,
// wind speed metres per second unless a field name says otherwise.
//
// USGS alert levels follow the PAGER scale (green, yellow, orange, red).
// Simulated earthquakes assign them by magnitude: >=7 red, >=6 orange,
// >=5 yellow, >=4 green, below that none.
//
// Fire intensity is derived from VIIRS brightness temperature (Kelvin) and
// fire radiative power (MW): brightness >400 or FRP >100 is extreme,
// >350/>50 high, >320/>20 moderate, otherwise low.
//
// # Fallback Simulation
//
// When an upstream is down the service synthesizes plausible data instead of
// failing the request. Simulated earthquake magnitudes follow a rough
// Gutenberg-Richter distribution (many small events, few large ones) and
// depths follow the observed shallow/intermediate/deep split. Simulated
// responses are always labelled with Source = "simulated" so clients can tell
// them apart from live data. Generators take an explicit *rand.Rand so tests
// can seed them.
package domain
