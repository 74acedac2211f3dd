// Package events fans pipeline events out to connected board clients.
package events

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worklogz/source/schemas"
	"worklogz/source/utils"
)

const (
	WS_WRITE_TIMEOUT = 10 * time.Second
	WS_SEND_BUFFER   = 32
)

// client owns one websocket connection. Only its writer goroutine writes
// to conn.
type client struct {
	conn *websocket.Conn
	send chan schemas.PipelineEvent
}

func (c *client) writeLoop() {
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WS_WRITE_TIMEOUT))
		if err := c.conn.WriteJSON(event); err != nil {
			// The read loop in Handler sees the close and unregisters c.
			c.conn.Close()
			return
		}
	}
}

// Hub keeps the websocket clients of this instance and broadcasts pipeline
// events to them.
type Hub struct {
	upgrader websocket.Upgrader
	mutex    sync.Mutex
	clients  map[*client]bool
}

// NewHub accepts upgrades from allowedOrigins and from clients that send no
// Origin header at all.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || utils.OriginAllowed(allowedOrigins, origin)
			},
		},
		clients: map[*client]bool{},
	}
}

// Emit broadcasts to local clients only.
func (h *Hub) Emit(_ context.Context, event schemas.PipelineEvent) {
	h.Broadcast(event)
}

// Broadcast queues event for every client without waiting on the network.
// Clients whose queue is full are disconnected.
func (h *Hub) Broadcast(event schemas.PipelineEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			log.Printf("[Events] dropping slow websocket client %s", c.conn.RemoteAddr())
			h.drop(c)
		}
	}
}

// drop unregisters c. Callers hold the mutex.
func (h *Hub) drop(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
}

func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and keeps the client registered until it
// disconnects. Clients only listen; anything they send is discarded.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan schemas.PipelineEvent, WS_SEND_BUFFER)}
	h.mutex.Lock()
	h.clients[c] = true
	h.mutex.Unlock()

	go c.writeLoop()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mutex.Lock()
	h.drop(c)
	h.mutex.Unlock()
}
