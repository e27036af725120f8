package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The control plane lives on a closed plant network; the
		// kiosk clients send no Origin header at all.
		return true
	},
}

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SyncSource is the state the manager pushes on its periodic sweep.
type SyncSource interface {
	Snapshot() domain.SyncState
}

// WSManager keeps the kiosk clients mirrored to the activation state.
// Every state change is pushed immediately; a slow periodic sweep
// re-sends the current state so clients that missed a push converge.
type WSManager struct {
	Source  SyncSource
	Clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

var _ ports.SyncNotifier = (*WSManager)(nil)

func NewWSManager(source SyncSource) *WSManager {
	return &WSManager{
		Source:  source,
		Clients: make(map[*websocket.Conn]struct{}),
	}
}

func (m *WSManager) Start(ctx context.Context) {
	go m.sweep(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = struct{}{}
	m.mu.Unlock()

	log.Printf("WebSocket connected: %s", conn.RemoteAddr())

	// A fresh client gets the current state right away.
	m.sendTo(conn, WSMessage{Type: "sync", Payload: m.Source.Snapshot()})

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: %s", conn.RemoteAddr())
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

// BroadcastSyncState pushes an activation state change to every
// connected client.
func (m *WSManager) BroadcastSyncState(state domain.SyncState) {
	m.broadcastMessage(WSMessage{Type: "sync", Payload: state})
}

func (m *WSManager) sweep(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.BroadcastSyncState(m.Source.Snapshot())
		}
	}
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}

func (m *WSManager) sendTo(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		delete(m.Clients, conn)
	}
}
