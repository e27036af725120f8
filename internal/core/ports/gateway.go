package ports

import (
	"context"
	"time"

	"github.com/tsimlabs/egs/internal/core/domain"
)

// Transport is the raw byte link to the edge bridge. Implementations
// own exactly one connection and are safe for a single sender; the
// gateway worker is the only caller.
type Transport interface {
	// EnsureConnected dials the bridge if no connection is open.
	EnsureConnected() error
	IsConnected() bool

	// Write pushes one frame onto the wire in a single call.
	Write(p []byte) error

	// ReadByte blocks for one byte until the deadline. A deadline
	// miss is reported as a timeout error and keeps the connection;
	// a closed peer tears it down.
	ReadByte(deadline time.Time) (byte, error)

	// Drain discards every byte already buffered on the connection.
	Drain()

	// ForceClose drops the connection without ceremony so the next
	// EnsureConnected starts from a clean socket.
	ForceClose()

	Close() error
}

// Gateway is the command pipeline the rest of the system talks to.
// Every Send funnels into one worker, so frames reach the bridge
// strictly one at a time.
type Gateway interface {
	Send(ctx context.Context, frame domain.Frame) domain.Outcome
	SendLamp(ctx context.Context, lampID int, on, flash bool) domain.Outcome
	SendDeviceAll(ctx context.Context, device byte, on bool) domain.Outcome
	SendDeviceRoute(ctx context.Context, device byte, route int) domain.Outcome
	SendDeviceMask(ctx context.Context, device byte, mask string) domain.Outcome

	// ClearQueue resolves every queued frame as failed and returns
	// how many were dropped. The frame already on the wire, if any,
	// still completes.
	ClearQueue() int
	QueueDepth() int

	Health() domain.HealthSnapshot
}
