package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsimlabs/egs/internal/core/domain"
)

func sampleReport() *domain.EventReport {
	duration := 30
	cleared := "10:30:00"
	temp := 21.5
	return &domain.EventReport{
		Metadata: domain.ReportMetadata{
			ID:          "0102030405060708",
			Title:       "Emergency Guidance Event Summary",
			GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			GeneratedBy: "EGS Control Plane",
			SiteName:    "North Terminal",
		},
		Stats: domain.EventStats{
			Total:          1,
			Cleared:        1,
			TotalMinutes:   30,
			LongestMinutes: 30,
			AverageMinutes: 30,
			MostActiveZone: "Zone A",
			ByZone:         map[string]int{"Zone A": 1},
			ByWind:         map[string]int{"S-N": 1},
		},
		Events: []domain.EmergencyEvent{{
			ID:              1,
			ZoneName:        "Zone A",
			WindDirection:   "S-N",
			ActivationDate:  "2025-06-01",
			ActivationTime:  "10:00:00",
			ClearTime:       &cleared,
			DurationMinutes: &duration,
			Status:          domain.EventCleared,
		}},
		Weather: []domain.WeatherObservation{{
			RecordTime:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			TemperatureC: &temp,
		}},
	}
}

func TestExportEventReport(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.ExportEventReport(sampleReport())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// PDF magic bytes.
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportEmptyReport(t *testing.T) {
	exporter := NewPDFExporter()

	report := &domain.EventReport{
		Metadata: domain.ReportMetadata{
			ID:          "0102030405060708",
			Title:       "Emergency Guidance Event Summary",
			GeneratedAt: time.Now(),
			GeneratedBy: "EGS Control Plane",
		},
	}
	data, err := exporter.ExportEventReport(report)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
