package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/shape"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ShapeHub broadcasts shape results to WebSocket clients and keeps the
// latest one for late joiners and the overlay stream.
type ShapeHub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	latest    *shape.Result
	payload   []byte
	published int
}

// NewShapeHub creates a hub with no clients.
func NewShapeHub() *ShapeHub {
	return &ShapeHub{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP upgrades the request and streams results to the client until it
// disconnects. A connecting client first receives the latest result.
func (h *ShapeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	if h.payload != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, h.payload)
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish sends res to every client. Clients that cannot keep up are
// dropped.
func (h *ShapeHub) Publish(res *shape.Result) error {
	msg, err := json.Marshal(res)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = res
	h.payload = msg
	h.published++

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("dropping shape client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

// Latest returns the most recently published result, or nil.
func (h *ShapeHub) Latest() *shape.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Clients returns the number of connected clients.
func (h *ShapeHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Published returns the number of results published so far.
func (h *ShapeHub) Published() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.published
}
