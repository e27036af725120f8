package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tsimlabs/egs/internal/adapters/reporting"
	"github.com/tsimlabs/egs/internal/core/domain"
	svcreporting "github.com/tsimlabs/egs/internal/core/services/reporting"
)

// ReportHandler handles event report generation
type ReportHandler struct {
	Generator *svcreporting.EventReportGenerator
	Exporter  *reporting.PDFExporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(generator *svcreporting.EventReportGenerator, exporter *reporting.PDFExporter) *ReportHandler {
	return &ReportHandler{Generator: generator, Exporter: exporter}
}

// HandleEventReport aggregates events and weather into a JSON report.
// Query parameters from/to take YYYY-MM-DD; the default range is the
// last 30 days.
func (h *ReportHandler) HandleEventReport(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.Generator.Generate(r.Context(), dateRange)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleEventReportPDF renders the same report as a downloadable PDF.
func (h *ReportHandler) HandleEventReportPDF(w http.ResponseWriter, r *http.Request) {
	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.Generator.Generate(r.Context(), dateRange)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pdf, err := h.Exporter.ExportEventReport(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("egs-events-%s.pdf", dateRange.End.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func parseDateRange(r *http.Request) (domain.DateRange, error) {
	now := time.Now()
	dr := domain.DateRange{Start: now.AddDate(0, 0, -30), End: now}

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid from date: %s", s)
		}
		dr.Start = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid to date: %s", s)
		}
		dr.End = t.Add(24*time.Hour - time.Second)
	}
	if dr.End.Before(dr.Start) {
		return domain.DateRange{}, fmt.Errorf("date range end precedes start")
	}
	return dr, nil
}
