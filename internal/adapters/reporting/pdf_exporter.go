package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/tsimlabs/egs/internal/core/domain"
)

// PDFExporter exports event reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportEventReport generates a PDF from an event summary report
func (e *PDFExporter) ExportEventReport(report *domain.EventReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addStatistics(pdf, report)
	e.addEventTable(pdf, report)
	e.addWeather(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addHeader adds the report header
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.EventReport) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 14, report.Metadata.Title, "", 1, "L", false, 0, "")
	pdf.Ln(1)

	if report.Metadata.SiteName != "" {
		pdf.SetFont("Arial", "", 13)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 8, report.Metadata.SiteName, "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s",
		report.Metadata.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")

	if !report.Metadata.Period.Start.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s",
			report.Metadata.Period.Start.Format("2006-01-02"),
			report.Metadata.Period.End.Format("2006-01-02")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

// addStatistics adds the event statistics overview
func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, report *domain.EventReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Activation Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	stats := []struct {
		label string
		value string
	}{
		{"Total Activations", fmt.Sprintf("%d", report.Stats.Total)},
		{"Still Active", fmt.Sprintf("%d", report.Stats.Active)},
		{"Cleared", fmt.Sprintf("%d", report.Stats.Cleared)},
		{"Total Duration", fmt.Sprintf("%d min", report.Stats.TotalMinutes)},
		{"Longest Activation", fmt.Sprintf("%d min", report.Stats.LongestMinutes)},
		{"Average Duration", fmt.Sprintf("%.1f min", report.Stats.AverageMinutes)},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 102, 204)
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	if report.Stats.MostActiveZone != "" {
		pdf.Ln(2)
		pdf.SetX(20)
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, fmt.Sprintf("Most activated zone: %s", report.Stats.MostActiveZone),
			"", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

// addEventTable adds the event history table
func (e *PDFExporter) addEventTable(pdf *gofpdf.Fpdf, report *domain.EventReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Event History", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.Events) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No events in the selected period", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)

	pdf.CellFormat(25, 8, "Zone", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 8, "Wind", "1", 0, "C", true, 0, "")
	pdf.CellFormat(28, 8, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Activated", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Cleared", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Duration", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Status", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, ev := range report.Events {
		if pdf.GetY() > 260 {
			pdf.AddPage()
		}

		cleared := "-"
		if ev.ClearTime != nil {
			cleared = *ev.ClearTime
		}
		duration := "-"
		if ev.DurationMinutes != nil {
			duration = fmt.Sprintf("%d min", *ev.DurationMinutes)
		}

		if ev.Status == domain.EventActive {
			pdf.SetTextColor(220, 53, 69)
		} else {
			pdf.SetTextColor(60, 60, 60)
		}
		pdf.CellFormat(25, 7, ev.ZoneName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 7, ev.WindDirection, "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 7, ev.ActivationDate, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, ev.ActivationTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, cleared, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, duration, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, string(ev.Status), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

// addWeather adds the recent weather table
func (e *PDFExporter) addWeather(pdf *gofpdf.Fpdf, report *domain.EventReport) {
	if len(report.Weather) == 0 {
		return
	}
	if pdf.GetY() > 230 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Recent Weather", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(45, 8, "Record Time", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Temp (C)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Wind (m/s)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Direction (deg)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, obs := range report.Weather {
		pdf.CellFormat(45, 7, obs.RecordTime.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmtFloat(obs.TemperatureC), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, fmtFloat(obs.WindSpeedMS), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, fmtFloat(obs.WindDirectionDeg), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// addFooter adds the report footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.EventReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footerText := fmt.Sprintf("Generated by %s | Report ID: %s",
		report.Metadata.GeneratedBy,
		report.Metadata.ID[:8])
	pdf.CellFormat(0, 5, footerText, "", 1, "C", false, 0, "")
}
