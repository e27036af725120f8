package domain

import "time"

// DateRange bounds a report period. Zero values mean unbounded.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportMetadata identifies a generated report.
type ReportMetadata struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	GeneratedBy string    `json:"generated_by"`
	Period      DateRange `json:"period"`
	SiteName    string    `json:"site_name,omitempty"`
}

// EventStats aggregates emergency event history for a report period.
type EventStats struct {
	Total          int            `json:"total"`
	Active         int            `json:"active"`
	Cleared        int            `json:"cleared"`
	ByZone         map[string]int `json:"by_zone"`
	ByWind         map[string]int `json:"by_wind"`
	TotalMinutes   int            `json:"total_minutes"`
	LongestMinutes int            `json:"longest_minutes"`
	AverageMinutes float64        `json:"average_minutes"`
	MostActiveZone string         `json:"most_active_zone,omitempty"`
}

// EventReport is the post-incident summary handed to site safety
// officers after drills and real activations.
type EventReport struct {
	Metadata ReportMetadata       `json:"metadata"`
	Stats    EventStats           `json:"stats"`
	Events   []EmergencyEvent     `json:"events"`
	Weather  []WeatherObservation `json:"weather"`
}
