package zone

import (
	"sync"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// StateTracker holds the activation snapshot shared with the operator
// UIs. Every mutation is pushed to the notifier so all connected
// clients repaint together.
type StateTracker struct {
	mu       sync.RWMutex
	state    domain.SyncState
	notifier ports.SyncNotifier
}

func NewStateTracker(notifier ports.SyncNotifier) *StateTracker {
	return &StateTracker{notifier: notifier}
}

func (t *StateTracker) Snapshot() domain.SyncState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *StateTracker) SetActivated(zone string, wind domain.WindDirection, at time.Time) {
	t.mu.Lock()
	t.state = domain.SyncState{
		Activated:   true,
		ZoneName:    zone,
		Wind:        wind,
		ActivatedAt: &at,
	}
	st := t.state
	t.mu.Unlock()
	t.notify(st)
}

func (t *StateTracker) SetDeactivating(v bool) {
	t.mu.Lock()
	t.state.DeactivationInProgress = v
	st := t.state
	t.mu.Unlock()
	t.notify(st)
}

func (t *StateTracker) Deactivating() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.DeactivationInProgress
}

// ClearActivation resets everything except the deactivation flag,
// which SetDeactivating owns.
func (t *StateTracker) ClearActivation() {
	t.mu.Lock()
	deact := t.state.DeactivationInProgress
	t.state = domain.SyncState{DeactivationInProgress: deact}
	st := t.state
	t.mu.Unlock()
	t.notify(st)
}

func (t *StateTracker) notify(st domain.SyncState) {
	if t.notifier != nil {
		t.notifier.BroadcastSyncState(st)
	}
}
