package zone

import (
	"context"
	"log"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/telemetry"
)

// AsserterConfig carries the re-assertion timing. Field devices can
// brown out and forget state, so the active route is re-sent
// periodically for as long as the zone stays registered.
type AsserterConfig struct {
	Tick       time.Duration
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
}

func DefaultAsserterConfig() AsserterConfig {
	return AsserterConfig{
		Tick:       2 * time.Second,
		Interval:   15 * time.Second,
		Retries:    3,
		RetryDelay: 5 * time.Second,
	}
}

// Asserter is the background loop that keeps the active zone lit.
type Asserter struct {
	cfg     AsserterConfig
	reg     *Registry
	tracker *StateTracker
	gw      ports.Gateway
	clock   ports.Clock
}

func NewAsserter(cfg AsserterConfig, reg *Registry, tracker *StateTracker, gw ports.Gateway, clock ports.Clock) *Asserter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Asserter{cfg: cfg, reg: reg, tracker: tracker, gw: gw, clock: clock}
}

// Run ticks until ctx is cancelled.
func (a *Asserter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Tick)
	defer ticker.Stop()

	log.Printf("[assert] loop started (interval=%s)", a.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[assert] loop stopped")
			return
		case <-ticker.C:
			a.AssertOnce(ctx)
		}
	}
}

// AssertOnce performs one assertion pass if the active zone is due.
// The pass re-checks pause, epoch and zone identity before every
// single lamp so a deactivation or changeover that lands mid-pass
// stops it immediately.
func (a *Asserter) AssertOnce(ctx context.Context) {
	if a.reg.Paused() || a.tracker.Deactivating() {
		return
	}
	snap, token, ok := a.reg.Snapshot()
	if !ok {
		return
	}
	if a.clock.Now().Sub(snap.LastAssertAt) < a.cfg.Interval {
		return
	}

	flash := domain.FlashLamp(snap.Lamps)
	for attempt := 0; attempt < a.cfg.Retries; attempt++ {
		sent := 0
		for _, id := range snap.Lamps {
			if a.reg.Paused() || a.reg.Epoch() != token || !a.reg.IsActive(snap.Zone, snap.Wind) {
				log.Printf("[assert] zone %s (%s): pass abandoned, zone state moved on", snap.Zone, snap.Wind)
				telemetry.AssertionCycles.WithLabelValues("aborted").Inc()
				return
			}
			if out := a.gw.SendLamp(ctx, id, true, id == flash); out.OK {
				sent++
			}
		}
		if sent > 0 {
			a.reg.TouchAsserted(snap.Zone, snap.Wind)
			telemetry.AssertionCycles.WithLabelValues("ok").Inc()
			return
		}
		log.Printf("[assert] zone %s (%s): no lamp acknowledged on attempt %d/%d",
			snap.Zone, snap.Wind, attempt+1, a.cfg.Retries)
		if attempt < a.cfg.Retries-1 && !sleepCtx(ctx, a.cfg.RetryDelay) {
			return
		}
	}
	telemetry.AssertionCycles.WithLabelValues("failed").Inc()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
