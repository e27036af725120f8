// Package reporting builds post-incident summaries from the emergency
// event history and the weather record.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// EventReportGenerator generates post-incident summary reports.
type EventReportGenerator struct {
	events  ports.EventStore
	weather ports.WeatherStore
	site    string
}

// NewEventReportGenerator creates a new event report generator.
func NewEventReportGenerator(events ports.EventStore, weather ports.WeatherStore, site string) *EventReportGenerator {
	return &EventReportGenerator{events: events, weather: weather, site: site}
}

// Generate creates an event summary report for the specified date range.
func (g *EventReportGenerator) Generate(ctx context.Context, dateRange domain.DateRange) (*domain.EventReport, error) {
	events, err := g.events.ListEvents(0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emergency events: %w", err)
	}
	events = filterByDateRange(events, dateRange)

	weather, err := g.weather.RecentObservations(0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather history: %w", err)
	}

	return &domain.EventReport{
		Metadata: domain.ReportMetadata{
			ID:          uuid.New().String(),
			Title:       "Emergency Guidance Event Summary",
			GeneratedAt: time.Now(),
			GeneratedBy: "EGS Control Plane",
			Period:      dateRange,
			SiteName:    g.site,
		},
		Stats:   calculateStats(events),
		Events:  events,
		Weather: weather,
	}, nil
}

// calculateStats computes event statistics.
func calculateStats(events []domain.EmergencyEvent) domain.EventStats {
	stats := domain.EventStats{
		Total:  len(events),
		ByZone: make(map[string]int),
		ByWind: make(map[string]int),
	}

	cleared := 0
	for _, ev := range events {
		stats.ByZone[ev.ZoneName]++
		stats.ByWind[ev.WindDirection]++

		if ev.Status == domain.EventActive {
			stats.Active++
			continue
		}
		stats.Cleared++
		if ev.DurationMinutes == nil {
			continue
		}
		cleared++
		stats.TotalMinutes += *ev.DurationMinutes
		if *ev.DurationMinutes > stats.LongestMinutes {
			stats.LongestMinutes = *ev.DurationMinutes
		}
	}
	if cleared > 0 {
		stats.AverageMinutes = float64(stats.TotalMinutes) / float64(cleared)
	}

	best := 0
	for zone, n := range stats.ByZone {
		if n > best {
			best = n
			stats.MostActiveZone = zone
		}
	}
	return stats
}

// filterByDateRange filters events by their creation time.
func filterByDateRange(events []domain.EmergencyEvent, dateRange domain.DateRange) []domain.EmergencyEvent {
	if dateRange.Start.IsZero() && dateRange.End.IsZero() {
		return events
	}
	var filtered []domain.EmergencyEvent
	for _, ev := range events {
		if !dateRange.Start.IsZero() && ev.CreatedAt.Before(dateRange.Start) {
			continue
		}
		if !dateRange.End.IsZero() && ev.CreatedAt.After(dateRange.End) {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}
