package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeriveWarnings applies the IMD-bulletin-style warning rules to a current
// weather snapshot. Seasonal rules (cyclone, monsoon, cold wave) key off the
// calendar month at the package clock.
func DeriveWarnings(wx WeatherSnapshot, lat, lon float64) []Warning {
	now := clock.Now()
	windKmh := wx.WindSpeed * 3.6
	condition := strings.ToLower(wx.Condition)
	var warnings []Warning

	// Heat.
	switch {
	case wx.Temperature > 40:
		severity := "Orange"
		if wx.Temperature > 45 {
			severity = "Red"
		}
		warnings = append(warnings, Warning{
			Type:     "Heat Wave",
			Severity: severity,
			Message:  fmt.Sprintf("Severe heat wave conditions. Temperature: %.1f°C", wx.Temperature),
			Instructions: []string{
				"Stay indoors during peak hours",
				"Stay hydrated",
				"Avoid outdoor work",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(24 * time.Hour),
		})
	case wx.Temperature > 35:
		warnings = append(warnings, Warning{
			Type:     "Heat Advisory",
			Severity: "Yellow",
			Message:  fmt.Sprintf("High temperature advisory. Temperature: %.1f°C", wx.Temperature),
			Instructions: []string{
				"Drink plenty of water",
				"Limit outdoor activities",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(12 * time.Hour),
		})
	}

	stormy := strings.Contains(condition, "rain") ||
		strings.Contains(condition, "thunder") ||
		strings.Contains(condition, "storm")

	if stormy {
		warnings = append(warnings, Warning{
			Type:     "Thunderstorm Warning",
			Severity: "Orange",
			Message:  fmt.Sprintf("Thunderstorm activity expected. %s", titleCase(wx.ConditionDetail)),
			Instructions: []string{
				"Avoid open areas",
				"Stay away from trees",
				"Do not use electronic devices outdoors",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(6 * time.Hour),
		})
	}

	if windKmh > 50 {
		severity := "Yellow"
		if windKmh > 70 {
			severity = "Orange"
		}
		warnings = append(warnings, Warning{
			Type:     "High Wind Warning",
			Severity: severity,
			Message:  fmt.Sprintf("Strong winds expected. Wind speed: %.0f km/h", windKmh),
			Instructions: []string{
				"Secure loose objects",
				"Avoid driving if possible",
				"Stay away from windows",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(6 * time.Hour),
		})
	}

	// Cyclone watch: May-Jun and Oct-Dec along the Indian coast.
	month := now.Month()
	cycloneSeason := month == time.May || month == time.June ||
		month == time.October || month == time.November || month == time.December
	if cycloneSeason && IsCoastalIndia(lat, lon) && (windKmh > 40 || strings.Contains(condition, "storm")) {
		warnings = append(warnings, Warning{
			Type:     "Cyclone Watch",
			Severity: "Orange",
			Message:  "Cyclone season active. Monitor IMD bulletins closely.",
			Instructions: []string{
				"Keep emergency kit ready",
				"Monitor official IMD updates",
				"Know your evacuation route",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(48 * time.Hour),
		})
	}

	// Monsoon flood watch: Jun-Sep, humid, and raining.
	monsoon := month >= time.June && month <= time.September
	if monsoon && wx.Humidity > 80 && strings.Contains(condition, "rain") {
		warnings = append(warnings, Warning{
			Type:     "Flood Watch",
			Severity: "Yellow",
			Message:  "Heavy monsoon rainfall. Potential for urban flooding.",
			Instructions: []string{
				"Avoid low-lying areas",
				"Do not cross flooded roads",
				"Keep documents safe",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(24 * time.Hour),
		})
	}

	// Cold wave: Dec-Feb.
	winter := month == time.December || month == time.January || month == time.February
	if wx.Temperature < 10 && winter {
		severity := "Yellow"
		if wx.Temperature <= 4 {
			severity = "Orange"
		}
		warnings = append(warnings, Warning{
			Type:     "Cold Wave",
			Severity: severity,
			Message:  fmt.Sprintf("Cold wave conditions. Temperature: %.1f°C", wx.Temperature),
			Instructions: []string{
				"Wear warm clothing",
				"Check on elderly neighbors",
				"Keep heating safe",
			},
			ValidFrom:  now,
			ValidUntil: now.Add(24 * time.Hour),
		})
	}

	return warnings
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
