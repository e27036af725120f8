package domain

import "time"

// WeatherObservation is one sample pulled from the on-site datalogger.
// Fields are pointers because the logger table does not always carry
// every sensor column.
type WeatherObservation struct {
	ID               uint      `json:"id"`
	RecordTime       time.Time `json:"record_time"`
	TemperatureC     *float64  `json:"temperature_c"`
	WindSpeedMS      *float64  `json:"wind_speed_ms"`
	WindDirectionDeg *float64  `json:"wind_direction_deg"`
	IngestedAt       time.Time `json:"ingested_at"`
}
