package ports

import (
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
)

// LampStateStore persists the last commanded state of every lamp. It
// is a shadow of what the field should look like, kept for UI display
// only; the control path never reads it back to decide what to send.
type LampStateStore interface {
	SetLamp(id int, on bool) error
	GetLamp(id int) (bool, error)
	AllLamps() (map[int]bool, error)
}

// EventStore records emergency event lifecycles.
type EventStore interface {
	// OpenEvent closes any event still marked active for the zone
	// and inserts a fresh active record.
	OpenEvent(zone string, wind domain.WindDirection, at time.Time) (*domain.EmergencyEvent, error)

	// CloseAllActive stamps every active event cleared at the given
	// time, computing its duration, and returns the closed records.
	CloseAllActive(at time.Time) ([]domain.EmergencyEvent, error)

	// ClearEvent stamps one active event cleared. Returns
	// domain.ErrEventNotFound if no active event has that id.
	ClearEvent(id uint, at time.Time) (*domain.EmergencyEvent, error)

	ActiveEvents() ([]domain.EmergencyEvent, error)
	ListEvents(limit int) ([]domain.EmergencyEvent, error)
}

// WeatherStore persists datalogger samples, retaining only a short
// recent window.
type WeatherStore interface {
	InsertObservation(obs domain.WeatherObservation) error
	LatestObservation() (*domain.WeatherObservation, error)
	RecentObservations(limit int) ([]domain.WeatherObservation, error)
}

// Storage is the composite persistence surface the application wires.
type Storage interface {
	LampStateStore
	EventStore
	WeatherStore

	Close() error
}
