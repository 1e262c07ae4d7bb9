// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mon

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Broadcaster fans a telemetry record out to every connected
// WebSocket client as a visualizer line, a live bench-mode
// dashboard. One-directional: telemetry out, no per-client state.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// HandleWS upgrades the HTTP request to a WebSocket and registers the
// connection until it closes or errors.
func (b *Broadcaster) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor websocket: upgrade error: %v", err)
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends the record's visualizer line to every connected
// client, dropping any connection that errors on write.
func (b *Broadcaster) Broadcast(rec telemetry.Record) {
	line := FormatVisualizerLine(rec)

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}
