package handlers

import (
	"context"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
)

type fakeGateway struct {
	frames  []domain.Frame
	failAll bool
}

func (g *fakeGateway) Send(_ context.Context, frame domain.Frame) domain.Outcome {
	g.frames = append(g.frames, frame)
	if g.failAll {
		return domain.Outcome{OK: false, Retries: 2, Error: "ack timeout"}
	}
	return domain.Outcome{OK: true, TimeMS: 12}
}

func (g *fakeGateway) SendLamp(ctx context.Context, lampID int, on, flash bool) domain.Outcome {
	frame, err := domain.LampFrame(lampID, on, flash)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.Send(ctx, frame)
}

func (g *fakeGateway) SendDeviceAll(ctx context.Context, device byte, on bool) domain.Outcome {
	frame, err := domain.AllFrame(device, on)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.Send(ctx, frame)
}

func (g *fakeGateway) SendDeviceRoute(ctx context.Context, device byte, route int) domain.Outcome {
	frame, err := domain.RouteFrame(device, route)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.Send(ctx, frame)
}

func (g *fakeGateway) SendDeviceMask(ctx context.Context, device byte, mask string) domain.Outcome {
	frame, err := domain.MaskFrame(device, mask)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return g.Send(ctx, frame)
}

func (g *fakeGateway) ClearQueue() int { return 0 }
func (g *fakeGateway) QueueDepth() int { return 0 }

func (g *fakeGateway) Health() domain.HealthSnapshot {
	return domain.HealthSnapshot{
		GatewayConnected: true,
		ConnectionStatus: "connected",
		DeviceStatus:     map[string]domain.DeviceHealth{"A": {TotalCommands: 3, SuccessfulCommands: 3, SuccessRate: 1}},
	}
}

type fakeLamps struct {
	states map[int]bool
}

func newFakeLamps() *fakeLamps {
	return &fakeLamps{states: make(map[int]bool)}
}

func (s *fakeLamps) SetLamp(id int, on bool) error {
	s.states[id] = on
	return nil
}

func (s *fakeLamps) GetLamp(id int) (bool, error) {
	return s.states[id], nil
}

func (s *fakeLamps) AllLamps() (map[int]bool, error) {
	out := make(map[int]bool, len(s.states))
	for id, on := range s.states {
		out[id] = on
	}
	return out, nil
}

type fakeEvents struct {
	events []domain.EmergencyEvent
}

func (e *fakeEvents) OpenEvent(zone string, wind domain.WindDirection, at time.Time) (*domain.EmergencyEvent, error) {
	ev := domain.EmergencyEvent{
		ID:             uint(len(e.events) + 1),
		ZoneName:       zone,
		WindDirection:  string(wind),
		ActivationDate: at.Format("2006-01-02"),
		ActivationTime: at.Format("15:04:05"),
		Status:         domain.EventActive,
	}
	e.events = append([]domain.EmergencyEvent{ev}, e.events...)
	return &ev, nil
}

func (e *fakeEvents) CloseAllActive(at time.Time) ([]domain.EmergencyEvent, error) {
	return nil, nil
}

func (e *fakeEvents) ClearEvent(id uint, at time.Time) (*domain.EmergencyEvent, error) {
	for i := range e.events {
		if e.events[i].ID == id && e.events[i].Status == domain.EventActive {
			e.events[i].Status = domain.EventCleared
			return &e.events[i], nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (e *fakeEvents) ActiveEvents() ([]domain.EmergencyEvent, error) {
	var active []domain.EmergencyEvent
	for _, ev := range e.events {
		if ev.Status == domain.EventActive {
			active = append(active, ev)
		}
	}
	return active, nil
}

func (e *fakeEvents) ListEvents(limit int) ([]domain.EmergencyEvent, error) {
	if limit > len(e.events) {
		limit = len(e.events)
	}
	return e.events[:limit], nil
}
