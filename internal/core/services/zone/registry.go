// Package zone holds the evacuation zone services: the single-slot
// active zone registry, the background assertion loop that keeps the
// field lit, and the orchestrator that runs the activation and
// deactivation protocols.
package zone

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// Registry tracks the single zone currently asserted on the field.
// The cancel epoch is a monotone counter bumped whenever the active
// zone is cleared, replaced or paused; in-flight batch work snapshots
// the epoch and abandons itself when the value moves on.
type Registry struct {
	clock ports.Clock

	mu           sync.Mutex
	active       *domain.ActiveZone
	epoch        uint64
	paused       bool
	pausedReason string
}

func NewRegistry(clock ports.Clock) *Registry {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Registry{clock: clock}
}

// Register installs a zone as the active one, replacing any previous
// zone. Replacement bumps the epoch so the old zone's pending work
// cancels itself.
func (r *Registry) Register(zone string, wind domain.WindDirection, lamps []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		log.Printf("[zone] replacing active zone %s (%s) with %s (%s)",
			r.active.Zone, r.active.Wind, zone, wind)
		r.epoch++
	} else {
		log.Printf("[zone] registered active zone %s (%s), %d lamps", zone, wind, len(lamps))
	}

	cp := make([]int, len(lamps))
	copy(cp, lamps)
	r.active = &domain.ActiveZone{
		Zone:         zone,
		Wind:         wind,
		Lamps:        cp,
		LastAssertAt: r.clock.Now(),
	}
}

// Unregister clears the active zone if it matches the given name and
// wind; empty strings match anything. Returns whether a zone was
// cleared.
func (r *Registry) Unregister(zone string, wind domain.WindDirection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return false
	}
	if zone != "" && !strings.EqualFold(r.active.Zone, zone) {
		return false
	}
	if wind != "" && r.active.Wind != wind {
		return false
	}
	log.Printf("[zone] unregistered active zone %s (%s)", r.active.Zone, r.active.Wind)
	r.active = nil
	r.epoch++
	return true
}

// Clear drops whatever zone is active.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		log.Printf("[zone] cleared active zone %s (%s)", r.active.Zone, r.active.Wind)
		r.active = nil
		r.epoch++
	}
}

// Snapshot returns a copy of the active zone and the epoch it was
// read under.
func (r *Registry) Snapshot() (domain.ActiveZone, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return domain.ActiveZone{}, r.epoch, false
	}
	cp := *r.active
	cp.Lamps = make([]int, len(r.active.Lamps))
	copy(cp.Lamps, r.active.Lamps)
	return cp, r.epoch, true
}

func (r *Registry) Epoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// IsActive reports whether the given zone and wind are still the
// registered ones.
func (r *Registry) IsActive(zone string, wind domain.WindDirection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil && strings.EqualFold(r.active.Zone, zone) && r.active.Wind == wind
}

// TouchAsserted stamps the assertion time if the zone is still active.
func (r *Registry) TouchAsserted(zone string, wind domain.WindDirection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil && strings.EqualFold(r.active.Zone, zone) && r.active.Wind == wind {
		r.active.LastAssertAt = r.clock.Now()
	}
}

// PauseAssertion stops the assertion loop from touching the field and
// bumps the epoch so any pass already running aborts at its next
// check.
func (r *Registry) PauseAssertion(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused {
		log.Printf("[zone] assertion paused: %s", reason)
	}
	r.paused = true
	r.pausedReason = reason
	r.epoch++
}

// ResumeAssertion lets the assertion loop run again.
func (r *Registry) ResumeAssertion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		log.Printf("[zone] assertion resumed")
	}
	r.paused = false
	r.pausedReason = ""
}

func (r *Registry) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// LastAssertAge returns how long ago the active zone was asserted.
func (r *Registry) LastAssertAge() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0, false
	}
	return r.clock.Now().Sub(r.active.LastAssertAt), true
}
