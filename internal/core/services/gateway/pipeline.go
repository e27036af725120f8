// Package gateway implements the command pipeline to the edge bridge.
// Every frame in the system funnels through one FIFO and one worker
// goroutine, so the bridge only ever sees a single frame in flight.
package gateway

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/telemetry"
)

// Config carries the pipeline timing. The values mirror the bridge
// firmware: it processes one frame per second and answers with a
// single 'K' within about a second.
type Config struct {
	ACKTimeout      time.Duration
	MaxRetries      int
	RetryPause      time.Duration
	MinSendInterval time.Duration
	InterFrameGap   time.Duration
	QueueCapacity   int
	ReconnectMin    time.Duration
	ReconnectMax    time.Duration
	SendGuard       time.Duration
	RequireACK      bool
}

// DefaultConfig returns the production timing.
func DefaultConfig() Config {
	return Config{
		ACKTimeout:      1200 * time.Millisecond,
		MaxRetries:      2,
		RetryPause:      100 * time.Millisecond,
		MinSendInterval: time.Second,
		InterFrameGap:   25 * time.Millisecond,
		QueueCapacity:   256,
		ReconnectMin:    50 * time.Millisecond,
		ReconnectMax:    2 * time.Second,
		SendGuard:       5 * time.Second,
		RequireACK:      true,
	}
}

type command struct {
	id       string
	frame    domain.Frame
	enqueued time.Time
	done     chan domain.Outcome
}

type deviceHealth struct {
	total       int
	successful  int
	lastAck     time.Time
	lastCommand domain.Frame
}

// Pipeline is the single-worker frame sender. Producers block in Send
// until their frame is resolved or the guard expires; the worker owns
// the transport exclusively.
type Pipeline struct {
	cfg       Config
	transport ports.Transport
	queue     chan *command

	mu         sync.Mutex
	devices    map[byte]*deviceHealth
	connStatus string
	heartbeat  time.Time
	lastSend   time.Time
}

var _ ports.Gateway = (*Pipeline)(nil)

func New(transport ports.Transport, cfg Config) *Pipeline {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	return &Pipeline{
		cfg:        cfg,
		transport:  transport,
		queue:      make(chan *command, cfg.QueueCapacity),
		devices:    make(map[byte]*deviceHealth),
		connStatus: "unknown",
	}
}

// Start launches the worker goroutine. It returns immediately; the
// worker runs until ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	go p.run(ctx)
}

// Send queues one validated frame and blocks until the worker resolves
// it. A full queue or an expired guard resolves as a failure without
// touching the wire.
func (p *Pipeline) Send(ctx context.Context, frame domain.Frame) domain.Outcome {
	if !domain.ValidFrame(frame) {
		return domain.Outcome{Error: domain.ErrInvalidFrame.Error()}
	}

	cmd := &command{
		id:       uuid.NewString()[:8],
		frame:    frame,
		enqueued: time.Now(),
		done:     make(chan domain.Outcome, 1),
	}

	select {
	case p.queue <- cmd:
		telemetry.QueueDepth.Set(float64(len(p.queue)))
	default:
		log.Printf("[gateway] queue full, dropping frame %q", frame)
		return domain.Outcome{Error: "command queue full"}
	}

	guard := p.cfg.SendGuard
	if guard <= 0 {
		guard = 5 * time.Second
	}
	select {
	case out := <-cmd.done:
		return out
	case <-time.After(guard):
		// The worker still holds the command and will resolve it
		// into the buffered channel; nobody will be listening.
		return domain.Outcome{
			TimeMS: time.Since(cmd.enqueued).Milliseconds(),
			Error:  "timed out waiting for gateway",
		}
	case <-ctx.Done():
		return domain.Outcome{
			TimeMS: time.Since(cmd.enqueued).Milliseconds(),
			Error:  ctx.Err().Error(),
		}
	}
}

func (p *Pipeline) SendLamp(ctx context.Context, lampID int, on, flash bool) domain.Outcome {
	frame, err := domain.LampFrame(lampID, on, flash)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return p.Send(ctx, frame)
}

func (p *Pipeline) SendDeviceAll(ctx context.Context, device byte, on bool) domain.Outcome {
	frame, err := domain.AllFrame(device, on)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return p.Send(ctx, frame)
}

func (p *Pipeline) SendDeviceRoute(ctx context.Context, device byte, route int) domain.Outcome {
	frame, err := domain.RouteFrame(device, route)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return p.Send(ctx, frame)
}

func (p *Pipeline) SendDeviceMask(ctx context.Context, device byte, mask string) domain.Outcome {
	frame, err := domain.MaskFrame(device, mask)
	if err != nil {
		return domain.Outcome{Error: err.Error()}
	}
	return p.Send(ctx, frame)
}

// ClearQueue resolves every queued frame as failed. The frame the
// worker currently holds, if any, still completes normally.
func (p *Pipeline) ClearQueue() int {
	cleared := 0
	for {
		select {
		case cmd := <-p.queue:
			cmd.done <- domain.Outcome{
				TimeMS: time.Since(cmd.enqueued).Milliseconds(),
				Error:  "queue cleared",
			}
			cleared++
		default:
			telemetry.QueueDepth.Set(float64(len(p.queue)))
			if cleared > 0 {
				log.Printf("[gateway] cleared %d queued frame(s)", cleared)
			}
			return cleared
		}
	}
}

func (p *Pipeline) QueueDepth() int { return len(p.queue) }

// Health returns a snapshot of connection state and per-device
// delivery counters.
func (p *Pipeline) Health() domain.HealthSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := domain.HealthSnapshot{
		GatewayConnected: p.transport.IsConnected(),
		ConnectionStatus: p.connStatus,
		QueueDepth:       len(p.queue),
		DeviceStatus:     make(map[string]domain.DeviceHealth, len(p.devices)),
	}
	if !p.heartbeat.IsZero() {
		hb := p.heartbeat
		snap.LastHeartbeat = &hb
	}
	for dev, h := range p.devices {
		dh := domain.DeviceHealth{
			TotalCommands:      h.total,
			SuccessfulCommands: h.successful,
			LastCommand:        string(h.lastCommand),
		}
		if h.total > 0 {
			dh.SuccessRate = float64(h.successful) / float64(h.total)
		}
		if !h.lastAck.IsZero() {
			ack := h.lastAck
			dh.LastAckTime = &ack
		}
		snap.DeviceStatus[string(dev)] = dh
	}
	return snap
}

func (p *Pipeline) run(ctx context.Context) {
	log.Printf("[gateway] worker started (ack=%v timeout=%s retries=%d)",
		p.cfg.RequireACK, p.cfg.ACKTimeout, p.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			p.ClearQueue()
			p.transport.Close()
			log.Printf("[gateway] worker stopped")
			return
		case cmd := <-p.queue:
			telemetry.QueueDepth.Set(float64(len(p.queue)))
			out := p.deliver(ctx, cmd)
			p.record(cmd.frame, out)
			cmd.done <- out
			sleepCtx(ctx, p.cfg.InterFrameGap)
		}
	}
}

// deliver runs the full stop-and-wait exchange for one frame:
// connect, rate-limit, then up to 1+MaxRetries attempts of
// drain, write, await ACK.
func (p *Pipeline) deliver(ctx context.Context, cmd *command) domain.Outcome {
	device := string(cmd.frame.Device())

	if !p.connectWithBackoff(ctx) {
		return domain.Outcome{
			Retries: 0,
			TimeMS:  time.Since(cmd.enqueued).Milliseconds(),
			Error:   "shutting down",
		}
	}

	p.rateLimit(ctx)

	lastErr := "no attempt made"
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			telemetry.FrameRetries.Inc()
			log.Printf("[gateway] cmd %s frame %q retry %d/%d: %s",
				cmd.id, cmd.frame, attempt, p.cfg.MaxRetries, lastErr)
			if !sleepCtx(ctx, p.cfg.RetryPause) {
				break
			}
		}

		if err := p.transport.EnsureConnected(); err != nil {
			lastErr = err.Error()
			p.setStatus("reconnecting")
			continue
		}

		// Late ACKs from a timed-out predecessor must not be
		// mistaken for this frame's ACK.
		p.transport.Drain()

		p.mu.Lock()
		p.lastSend = time.Now()
		p.mu.Unlock()

		if err := p.transport.Write(cmd.frame.Bytes()); err != nil {
			lastErr = err.Error()
			continue
		}
		telemetry.FramesSent.WithLabelValues(device).Inc()

		if !p.cfg.RequireACK {
			return domain.Outcome{
				OK:      true,
				Retries: attempt,
				TimeMS:  time.Since(cmd.enqueued).Milliseconds(),
			}
		}

		acked, err := p.awaitAck(cmd.id)
		if acked {
			telemetry.AcksReceived.WithLabelValues(device).Inc()
			return domain.Outcome{
				OK:      true,
				Retries: attempt,
				TimeMS:  time.Since(cmd.enqueued).Milliseconds(),
			}
		}
		lastErr = err.Error()
		if isTimeout(err) {
			telemetry.AckTimeouts.WithLabelValues(device).Inc()
		}
	}

	log.Printf("[gateway] cmd %s frame %q failed after %d attempt(s): %s",
		cmd.id, cmd.frame, p.cfg.MaxRetries+1, lastErr)
	return domain.Outcome{
		Retries: p.cfg.MaxRetries,
		TimeMS:  time.Since(cmd.enqueued).Milliseconds(),
		Error:   lastErr,
	}
}

// awaitAck reads until the ACK byte arrives or the deadline passes.
// Stray non-ACK bytes are logged and skipped.
func (p *Pipeline) awaitAck(cmdID string) (bool, error) {
	deadline := time.Now().Add(p.cfg.ACKTimeout)
	for {
		b, err := p.transport.ReadByte(deadline)
		if err != nil {
			return false, err
		}
		if b == domain.AckByte {
			return true, nil
		}
		log.Printf("[gateway] cmd %s: unexpected byte 0x%02x while awaiting ACK", cmdID, b)
	}
}

// connectWithBackoff blocks until the transport is up, doubling the
// pause between dial attempts. Returns false only on shutdown.
func (p *Pipeline) connectWithBackoff(ctx context.Context) bool {
	backoff := p.cfg.ReconnectMin
	for {
		if p.transport.IsConnected() {
			return true
		}
		err := p.transport.EnsureConnected()
		if err == nil {
			telemetry.BridgeReconnects.Inc()
			p.setStatus("connected")
			return true
		}
		p.setStatus("reconnecting")
		log.Printf("[gateway] bridge unreachable, retrying in %s: %v", backoff, err)
		if !sleepCtx(ctx, backoff) {
			return false
		}
		backoff *= 2
		if backoff > p.cfg.ReconnectMax {
			backoff = p.cfg.ReconnectMax
		}
	}
}

// rateLimit spaces writes at least MinSendInterval apart. The field
// radios lose frames when pushed faster than one per second.
func (p *Pipeline) rateLimit(ctx context.Context) {
	p.mu.Lock()
	last := p.lastSend
	p.mu.Unlock()
	if last.IsZero() {
		return
	}
	if wait := p.cfg.MinSendInterval - time.Since(last); wait > 0 {
		sleepCtx(ctx, wait)
	}
}

func (p *Pipeline) record(frame domain.Frame, out domain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dev := frame.Device()
	h := p.devices[dev]
	if h == nil {
		h = &deviceHealth{}
		p.devices[dev] = h
	}
	h.total++
	h.lastCommand = frame
	if out.OK {
		h.successful++
		h.lastAck = time.Now()
		p.heartbeat = h.lastAck
		p.connStatus = "connected"
	} else {
		p.connStatus = "degraded"
	}
}

func (p *Pipeline) setStatus(s string) {
	p.mu.Lock()
	p.connStatus = s
	p.mu.Unlock()
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
