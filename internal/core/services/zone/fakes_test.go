package zone

import (
	"context"
	"sync"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeGateway records every frame and resolves outcomes from a small
// failure script.
type fakeGateway struct {
	mu            sync.Mutex
	frames        []domain.Frame
	clearCalls    int
	failAll       bool
	failRemaining int
	failLamp      map[int]bool
	onSend        func(frame domain.Frame)
}

var _ ports.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) send(frame domain.Frame, lampID int) domain.Outcome {
	g.mu.Lock()
	g.frames = append(g.frames, frame)
	fail := g.failAll || g.failLamp[lampID]
	if g.failRemaining > 0 {
		g.failRemaining--
		fail = true
	}
	hook := g.onSend
	g.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
	if fail {
		return domain.Outcome{Error: "ack timeout"}
	}
	return domain.Outcome{OK: true}
}

func (g *fakeGateway) Send(_ context.Context, frame domain.Frame) domain.Outcome {
	return g.send(frame, 0)
}

func (g *fakeGateway) SendLamp(_ context.Context, lampID int, on, flash bool) domain.Outcome {
	frame, err := domain.LampFrame(lampID, on, flash)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.send(frame, lampID)
}

func (g *fakeGateway) SendDeviceAll(_ context.Context, device byte, on bool) domain.Outcome {
	frame, err := domain.AllFrame(device, on)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.send(frame, 0)
}

func (g *fakeGateway) SendDeviceRoute(_ context.Context, device byte, route int) domain.Outcome {
	frame, err := domain.RouteFrame(device, route)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.send(frame, 0)
}

func (g *fakeGateway) SendDeviceMask(_ context.Context, device byte, mask string) domain.Outcome {
	frame, err := domain.MaskFrame(device, mask)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.send(frame, 0)
}

func (g *fakeGateway) ClearQueue() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearCalls++
	return 0
}

func (g *fakeGateway) QueueDepth() int { return 0 }

func (g *fakeGateway) Health() domain.HealthSnapshot {
	return domain.HealthSnapshot{}
}

func (g *fakeGateway) sentFrames() []domain.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Frame, len(g.frames))
	copy(out, g.frames)
	return out
}

type openCall struct {
	zone string
	wind domain.WindDirection
}

type fakeEvents struct {
	mu     sync.Mutex
	opened []openCall
	closed int
}

var _ ports.EventStore = (*fakeEvents)(nil)

func (e *fakeEvents) OpenEvent(zone string, wind domain.WindDirection, at time.Time) (*domain.EmergencyEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened = append(e.opened, openCall{zone, wind})
	return &domain.EmergencyEvent{ID: uint(len(e.opened)), ZoneName: zone, Status: domain.EventActive}, nil
}

func (e *fakeEvents) CloseAllActive(at time.Time) ([]domain.EmergencyEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil, nil
}

func (e *fakeEvents) ClearEvent(id uint, at time.Time) (*domain.EmergencyEvent, error) {
	return nil, domain.ErrEventNotFound
}

func (e *fakeEvents) ActiveEvents() ([]domain.EmergencyEvent, error) { return nil, nil }

func (e *fakeEvents) ListEvents(limit int) ([]domain.EmergencyEvent, error) { return nil, nil }
