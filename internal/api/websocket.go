package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-scout/internal/models"
)

// RefreshEvent is pushed to WebSocket subscribers when a domain refresh
// finishes.
type RefreshEvent struct {
	Type        string    `json:"type"`
	Domain      string    `json:"domain"`
	ItemCount   int       `json:"item_count,omitempty"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Hub fans refresh events out to connected WebSocket clients. It implements
// engine.EventSink.
type Hub struct {
	logger *logrus.Logger

	mu      sync.RWMutex
	clients map[*wsClient]bool

	broadcast  chan RefreshEvent
	register   chan *wsClient
	unregister chan *wsClient
}

type wsClient struct {
	conn *websocket.Conn
	send chan RefreshEvent
}

// NewHub creates a WebSocket hub. Run must be started on its own goroutine.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan RefreshEvent, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Slow consumer, drop the event rather than block the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// RefreshCompleted implements engine.EventSink.
func (h *Hub) RefreshCompleted(domain string, result *models.DomainResult) {
	h.broadcast <- RefreshEvent{
		Type:        "refresh_completed",
		Domain:      domain,
		ItemCount:   result.ItemCount(),
		GeneratedAt: result.GeneratedAt,
	}
}

// RefreshFailed implements engine.EventSink.
func (h *Hub) RefreshFailed(domain string, err error) {
	h.broadcast <- RefreshEvent{
		Type:   "refresh_failed",
		Domain: domain,
		Error:  err.Error(),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the connection and streams refresh events.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan RefreshEvent, 16)}
	s.hub.register <- client

	// Reader: only consumed to detect disconnects.
	go func() {
		defer func() {
			s.hub.unregister <- client
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Writer.
	go func() {
		for event := range client.send {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}()
}
