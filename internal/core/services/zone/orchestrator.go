package zone

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/core/zonemap"
)

// OrchestratorConfig carries the changeover and deactivation timing.
type OrchestratorConfig struct {
	// Changeover: how long to chase OFF confirmations for the old
	// zone before lighting the new one.
	OffWaitTimeout time.Duration
	OffRetryRounds int
	OffRetryGap    time.Duration
	Settle         time.Duration

	// Deactivation: whole-set OFF rounds.
	DeactRounds   int
	DeactRoundGap time.Duration

	// Pause before retrying lamps that failed in a batch.
	BatchRetryGap time.Duration
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		OffWaitTimeout: 10 * time.Second,
		OffRetryRounds: 3,
		OffRetryGap:    500 * time.Millisecond,
		Settle:         300 * time.Millisecond,
		DeactRounds:    3,
		DeactRoundGap:  2 * time.Second,
		BatchRetryGap:  500 * time.Millisecond,
	}
}

// ActivationResult reports one zone activation.
type ActivationResult struct {
	Zone  string               `json:"zone"`
	Wind  domain.WindDirection `json:"wind_direction"`
	Sent  int                  `json:"lamps_sent"`
	Acked int                  `json:"lamps_acked"`
}

// DeactivationResult reports one deactivation, either of a named zone
// or of the whole field.
type DeactivationResult struct {
	Mode    string               `json:"mode"`
	Zone    string               `json:"zone,omitempty"`
	Wind    domain.WindDirection `json:"wind_direction,omitempty"`
	Success bool                 `json:"success"`
}

// Orchestrator runs the zone lifecycle protocols on top of the
// gateway pipeline.
type Orchestrator struct {
	cfg     OrchestratorConfig
	gw      ports.Gateway
	reg     *Registry
	tracker *StateTracker
	events  ports.EventStore
	clock   ports.Clock
}

func NewOrchestrator(cfg OrchestratorConfig, gw ports.Gateway, reg *Registry, tracker *StateTracker, events ports.EventStore, clock ports.Clock) *Orchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Orchestrator{cfg: cfg, gw: gw, reg: reg, tracker: tracker, events: events, clock: clock}
}

// Activate lights the route for a zone and wind direction, running
// the full changeover protocol when another zone is already active:
// the old zone is cancelled and confirmed dark before the first new
// lamp goes on, so two routes are never lit at once.
func (o *Orchestrator) Activate(ctx context.Context, zoneName, windStr string) (*ActivationResult, error) {
	wind, err := domain.ParseWind(windStr)
	if err != nil {
		return nil, err
	}
	lamps, ok := zonemap.Lamps(zoneName, wind)
	if !ok {
		return nil, fmt.Errorf("no route plan for zone %q with wind %s", zoneName, wind)
	}
	for _, id := range lamps {
		if _, _, err := domain.SplitLampID(id); err != nil {
			return nil, fmt.Errorf("route plan for zone %q: %w", zoneName, err)
		}
	}
	display := zonemap.DisplayName(zoneName)

	old, _, hadOld := o.reg.Snapshot()
	o.reg.Clear()
	o.gw.ClearQueue()

	if hadOld {
		log.Printf("[zone] changeover: %s (%s) -> %s (%s)", old.Zone, old.Wind, display, wind)
		o.waitForZoneOff(ctx, old)
		sleepCtx(ctx, o.cfg.Settle)
		// The OFF chase may have queued retries behind it.
		o.gw.ClearQueue()
	}

	o.reg.Register(display, wind, lamps)
	acked := o.sendOnBatch(ctx, lamps)
	if acked == 0 {
		o.reg.Unregister(display, wind)
		return nil, fmt.Errorf("zone %s: no lamp command acknowledged", display)
	}

	now := o.clock.Now()
	if _, err := o.events.OpenEvent(display, wind, now); err != nil {
		log.Printf("[zone] could not record emergency event for %s: %v", display, err)
	}
	o.tracker.SetActivated(display, wind, now)

	log.Printf("[zone] activated %s (%s): %d/%d lamps acknowledged", display, wind, acked, len(lamps))
	return &ActivationResult{Zone: display, Wind: wind, Sent: len(lamps), Acked: acked}, nil
}

// Deactivate switches a zone off. With an empty zone name it falls
// back to the currently tracked activation, and with nothing active
// it shuts the whole field down device by device. OFF frames are sent
// unconditionally; the persisted lamp state is display-only and is
// never trusted to decide what is safe to skip.
func (o *Orchestrator) Deactivate(ctx context.Context, zoneName, windStr string) (*DeactivationResult, error) {
	o.reg.PauseAssertion("deactivation in progress")
	o.tracker.SetDeactivating(true)
	defer func() {
		o.tracker.SetDeactivating(false)
		o.reg.ResumeAssertion()
	}()

	prev := o.tracker.Snapshot()
	o.gw.ClearQueue()

	targetZone := zoneName
	targetWind := domain.WindDirection(windStr)
	if targetZone == "" && prev.Activated {
		targetZone = prev.ZoneName
		targetWind = prev.Wind
	} else if windStr != "" {
		w, err := domain.ParseWind(windStr)
		if err != nil {
			return nil, err
		}
		targetWind = w
	}

	var result *DeactivationResult
	if targetZone != "" {
		lamps, ok := zonemap.Lamps(targetZone, targetWind)
		if !ok {
			return nil, fmt.Errorf("no route plan for zone %q with wind %s", targetZone, targetWind)
		}
		display := zonemap.DisplayName(targetZone)
		o.reg.Unregister(display, targetWind)
		o.gw.ClearQueue()

		success := false
		for round := 1; round <= o.cfg.DeactRounds; round++ {
			if acked := o.sendOffBatch(ctx, lamps); acked > 0 {
				success = true
				break
			}
			log.Printf("[zone] deactivation of %s: round %d/%d got no acknowledgement",
				display, round, o.cfg.DeactRounds)
			if round < o.cfg.DeactRounds && !sleepCtx(ctx, o.cfg.DeactRoundGap) {
				break
			}
		}
		result = &DeactivationResult{Mode: "zone", Zone: display, Wind: targetWind, Success: success}
	} else {
		// Nothing tracked as active: blanket shutdown of every
		// device so no stale lamp survives a lost state.
		o.reg.Clear()
		acked := 0
		for _, dev := range domain.Devices() {
			if out := o.gw.SendDeviceAll(ctx, dev, false); out.OK {
				acked++
			}
		}
		log.Printf("[zone] full shutdown: %d/%d devices acknowledged", acked, domain.DeviceCount)
		result = &DeactivationResult{Mode: "full", Success: acked > 0}
	}

	if _, err := o.events.CloseAllActive(o.clock.Now()); err != nil {
		log.Printf("[zone] could not close emergency events: %v", err)
	}
	o.tracker.ClearActivation()

	return result, nil
}

// waitForZoneOff chases OFF confirmations for an outgoing zone. It
// gives up at the timeout and lets the changeover proceed; a lamp
// that never confirmed is better fixed by the new route than by
// blocking the evacuation.
func (o *Orchestrator) waitForZoneOff(ctx context.Context, old domain.ActiveZone) {
	remaining := make(map[int]bool, len(old.Lamps))
	for _, id := range old.Lamps {
		remaining[id] = true
	}

	deadline := time.Now().Add(o.cfg.OffWaitTimeout)
	for round := 0; round <= o.cfg.OffRetryRounds && len(remaining) > 0; round++ {
		if round > 0 {
			if time.Now().After(deadline) || !sleepCtx(ctx, o.cfg.OffRetryGap) {
				break
			}
		}
		for id := range remaining {
			if time.Now().After(deadline) {
				break
			}
			if out := o.gw.SendLamp(ctx, id, false, false); out.OK {
				delete(remaining, id)
			}
		}
	}
	if len(remaining) > 0 {
		log.Printf("[zone] changeover: %d lamp(s) of %s (%s) unconfirmed after %s",
			len(remaining), old.Zone, old.Wind, o.cfg.OffWaitTimeout)
	}
}

// sendOnBatch lights a lamp set in plan order, flashing the highest
// id, and retries the failures once. Returns how many acknowledged.
func (o *Orchestrator) sendOnBatch(ctx context.Context, lamps []int) int {
	flash := domain.FlashLamp(lamps)
	acked := 0
	var failed []int
	for _, id := range lamps {
		if out := o.gw.SendLamp(ctx, id, true, id == flash); out.OK {
			acked++
		} else {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 && sleepCtx(ctx, o.cfg.BatchRetryGap) {
		for _, id := range failed {
			if out := o.gw.SendLamp(ctx, id, true, id == flash); out.OK {
				acked++
			}
		}
	}
	return acked
}

func (o *Orchestrator) sendOffBatch(ctx context.Context, lamps []int) int {
	acked := 0
	for _, id := range lamps {
		if out := o.gw.SendLamp(ctx, id, false, false); out.OK {
			acked++
		}
	}
	return acked
}
