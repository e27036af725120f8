package zone

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsimlabs/egs/internal/core/domain"
)

func newTestAsserter(gw *fakeGateway) (*Asserter, *Registry, *StateTracker, *fakeClock) {
	clock := newFakeClock()
	reg := NewRegistry(clock)
	tracker := NewStateTracker(nil)
	cfg := AsserterConfig{
		Tick:       time.Millisecond,
		Interval:   15 * time.Second,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}
	return NewAsserter(cfg, reg, tracker, gw, clock), reg, tracker, clock
}

func TestAssertSkipsWhenNotDue(t *testing.T) {
	gw := &fakeGateway{}
	a, reg, _, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4, 13, 97})
	clock.Advance(10 * time.Second)

	a.AssertOnce(context.Background())
	assert.Empty(t, gw.sentFrames())
}

func TestAssertResendsDueZone(t *testing.T) {
	gw := &fakeGateway{}
	a, reg, _, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4, 13, 97})
	clock.Advance(16 * time.Second)

	a.AssertOnce(context.Background())
	assert.Equal(t, []domain.Frame{"Ah", "Bh", "Kn#"}, gw.sentFrames())

	// A successful pass stamps the assertion time, so the next tick
	// is not due again.
	a.AssertOnce(context.Background())
	assert.Len(t, gw.sentFrames(), 3)
}

func TestAssertSkipsWhenPaused(t *testing.T) {
	gw := &fakeGateway{}
	a, reg, _, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4})
	clock.Advance(16 * time.Second)
	reg.PauseAssertion("test")

	a.AssertOnce(context.Background())
	assert.Empty(t, gw.sentFrames())
}

func TestAssertSkipsDuringDeactivation(t *testing.T) {
	gw := &fakeGateway{}
	a, reg, tracker, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4})
	clock.Advance(16 * time.Second)
	tracker.SetDeactivating(true)

	a.AssertOnce(context.Background())
	assert.Empty(t, gw.sentFrames())
}

func TestAssertAbandonsPassOnEpochBump(t *testing.T) {
	gw := &fakeGateway{}
	a, reg, _, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4, 13, 97})
	clock.Advance(16 * time.Second)

	// The zone is cleared while the pass is mid-flight; the pass
	// must stop before the next lamp.
	gw.onSend = func(domain.Frame) { reg.Clear() }

	a.AssertOnce(context.Background())
	assert.Len(t, gw.sentFrames(), 1)
}

func TestAssertRetriesAfterDeadPass(t *testing.T) {
	// Every send of the first pass fails, then the bridge recovers.
	gw := &fakeGateway{failRemaining: 3}
	a, reg, _, clock := newTestAsserter(gw)

	reg.Register("Zone A", domain.WindSN, []int{4, 13, 97})
	clock.Advance(16 * time.Second)

	a.AssertOnce(context.Background())
	require.Len(t, gw.sentFrames(), 6)

	age, ok := reg.LastAssertAge()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), age)
}
