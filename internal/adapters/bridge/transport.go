// Package bridge implements the TCP transport to the ESP32 edge
// bridge. The bridge exposes a single listener that fans frames out
// to the field radios, so the whole system shares one connection.
package bridge

import (
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/tsimlabs/egs/internal/core/ports"
)

const drainChunk = 256

// Transport holds the one connection to the bridge. All methods are
// mutex-guarded, but the intended caller is the single gateway worker;
// the lock exists so Close from the application lifecycle is safe.
type Transport struct {
	addr        string
	dialTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

var _ ports.Transport = (*Transport)(nil)

func New(host string, port int, dialTimeout time.Duration) *Transport {
	return &Transport{
		addr:        net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		dialTimeout: dialTimeout,
	}
}

// EnsureConnected dials the bridge if the connection is down. The
// bridge resets idle peers, so callers must expect this to run often.
func (t *Transport) EnsureConnected() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", t.addr, t.dialTimeout)
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", t.addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
		tc.SetKeepAlive(true)
	}
	t.conn = conn
	log.Printf("[bridge] connected to %s", t.addr)
	return nil
}

func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Write pushes one frame in a single syscall. Any write error tears
// the connection down so the next attempt starts clean.
func (t *Transport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return net.ErrClosed
	}
	t.conn.SetWriteDeadline(time.Now().Add(t.dialTimeout))
	if _, err := t.conn.Write(p); err != nil {
		t.closeLocked()
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadByte blocks for a single byte until the deadline. A deadline
// miss keeps the connection open; EOF and hard errors tear it down.
func (t *Transport) ReadByte(deadline time.Time) (byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, net.ErrClosed
	}

	conn.SetReadDeadline(deadline)
	var buf [1]byte
	_, err := conn.Read(buf[:])
	if err == nil {
		return buf[0], nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return 0, err
	}
	t.ForceClose()
	if err == io.EOF {
		return 0, io.EOF
	}
	return 0, fmt.Errorf("read ack: %w", err)
}

// Drain discards whatever the bridge pushed since the last exchange,
// typically late ACKs from timed-out frames. Errors are ignored; an
// empty buffer just times out immediately.
func (t *Transport) Drain() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}

	var buf [drainChunk]byte
	for {
		conn.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, err := conn.Read(buf[:])
		if n > 0 {
			log.Printf("[bridge] drained %d stale byte(s)", n)
		}
		if err != nil || n == 0 {
			return
		}
	}
}

// ForceClose drops the connection unconditionally.
func (t *Transport) ForceClose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *Transport) Close() error {
	t.ForceClose()
	return nil
}

func (t *Transport) closeLocked() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
