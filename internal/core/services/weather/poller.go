// Package weather pulls samples from the datalogger on a fixed
// interval, persists them and keeps an in-memory cache so the UI
// survives a dead serial link with the last good reading.
package weather

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/telemetry"
)

// Field names vary with the logger program revision, so each reading
// is picked from a list of known aliases.
var (
	temperatureKeys = []string{"Temp_C", "AirTC_Avg", "Temp_C_Avg", "temperature_c"}
	windSpeedKeys   = []string{"WS_ms_Avg", "WS_ms", "wind_speed_ms"}
	windDirKeys     = []string{"WindDir", "WindDir_Avg", "wind_direction_deg"}
	timestampKeys   = []string{"Datetime", "TIMESTAMP", "record_time"}
)

// Poller is the background ingest loop.
type Poller struct {
	logger   ports.DataLogger
	store    ports.WeatherStore
	table    string
	interval time.Duration
	clock    ports.Clock

	mu          sync.Mutex
	lastGood    *domain.WeatherObservation
	lastSuccess time.Time
	lastError   string
}

func NewPoller(logger ports.DataLogger, store ports.WeatherStore, table string, interval time.Duration, clock ports.Clock) *Poller {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Poller{logger: logger, store: store, table: table, interval: interval, clock: clock}
}

// Run polls until ctx is cancelled. The first poll happens
// immediately so the UI has data right after startup.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("[weather] poller started (table=%s interval=%s)", p.table, p.interval)
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[weather] poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// PollNow runs one poll on demand and returns the resulting
// observation.
func (p *Poller) PollNow(ctx context.Context) (*domain.WeatherObservation, error) {
	return p.poll(ctx)
}

func (p *Poller) poll(ctx context.Context) (*domain.WeatherObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	raw, err := p.logger.Latest(ctx, p.table)
	if err != nil {
		telemetry.WeatherPolls.WithLabelValues("error").Inc()
		p.mu.Lock()
		p.lastError = err.Error()
		p.mu.Unlock()
		log.Printf("[weather] poll failed: %v", err)
		return nil, err
	}

	obs := parseObservation(raw, p.clock.Now())
	if err := p.store.InsertObservation(obs); err != nil {
		log.Printf("[weather] could not persist observation: %v", err)
	}

	telemetry.WeatherPolls.WithLabelValues("ok").Inc()
	p.mu.Lock()
	p.lastGood = &obs
	p.lastSuccess = p.clock.Now()
	p.lastError = ""
	p.mu.Unlock()
	return &obs, nil
}

// Status describes the ingest health for the weather endpoint.
type Status struct {
	Healthy     bool                       `json:"healthy"`
	LastSuccess *time.Time                 `json:"last_success,omitempty"`
	LastError   string                     `json:"last_error,omitempty"`
	Cached      *domain.WeatherObservation `json:"cached,omitempty"`
}

// Snapshot returns the cached reading and ingest health. The cache is
// served even when the link is down; it is clearly stamped with its
// record time.
func (p *Poller) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Healthy:   p.lastError == "" && p.lastGood != nil,
		LastError: p.lastError,
		Cached:    p.lastGood,
	}
	if !p.lastSuccess.IsZero() {
		ts := p.lastSuccess
		st.LastSuccess = &ts
	}
	return st
}

// parseObservation maps a raw logger record onto an observation,
// tolerating missing columns.
func parseObservation(raw map[string]any, now time.Time) domain.WeatherObservation {
	obs := domain.WeatherObservation{RecordTime: now, IngestedAt: now}

	if s, ok := pickString(raw, timestampKeys); ok {
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, now.Location()); err == nil {
			obs.RecordTime = ts
		}
	}
	if v, ok := pickFloat(raw, temperatureKeys); ok {
		obs.TemperatureC = &v
	}
	if v, ok := pickFloat(raw, windSpeedKeys); ok {
		obs.WindSpeedMS = &v
	}
	if v, ok := pickFloat(raw, windDirKeys); ok {
		obs.WindDirectionDeg = &v
	}
	return obs
}

func pickFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func pickString(raw map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}
