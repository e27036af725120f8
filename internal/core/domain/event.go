package domain

import (
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("active emergency event not found")

// EventStatus tracks the lifecycle of an emergency event record.
type EventStatus string

const (
	EventActive  EventStatus = "active"
	EventCleared EventStatus = "cleared"
)

// EmergencyEvent is the persisted record of one zone activation, from
// the moment the zone is lit until it is cleared. Date and time are
// stored as the operator-facing strings the activation was logged
// with; DurationMinutes is filled in on clear.
type EmergencyEvent struct {
	ID              uint        `json:"id"`
	ZoneName        string      `json:"zone_name"`
	WindDirection   string      `json:"wind_direction"`
	ActivationDate  string      `json:"activation_date"`
	ActivationTime  string      `json:"activation_time"`
	ClearTime       *string     `json:"clear_time,omitempty"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
