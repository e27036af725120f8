package ports

import "time"

// Clock abstracts wall time for the zone services so that interval
// logic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
