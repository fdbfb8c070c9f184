package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	clientQueueLen = 64
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans committed changes out to subscribed websocket clients. A client
// that cannot keep up is disconnected rather than blocking publishers.
type Hub struct {
	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

type subscriber struct {
	types map[string]bool
	send  chan models.Change
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*subscriber]struct{})}
}

// Publish implements engine.Notifier
func (h *Hub) Publish(change models.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		if len(s.types) > 0 && !s.types[change.Type] {
			continue
		}
		select {
		case s.send <- change:
		default:
			zap.S().Warnw("dropping slow change feed client", "type", change.Type, "id", change.ID)
			h.remove(s)
		}
	}
}

// Subscribe registers an in-process subscriber for the given entity types,
// all types when none are given. The returned cancel func must be called to
// release it.
func (h *Hub) Subscribe(types ...string) (<-chan models.Change, func()) {
	s := &subscriber{types: map[string]bool{}, send: make(chan models.Change, clientQueueLen)}
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			s.types[t] = true
		}
	}
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
	api.ClientConnected(1)
	return s.send, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(s)
	}
}

// remove must be called with mu held.
func (h *Hub) remove(s *subscriber) {
	if _, ok := h.clients[s]; !ok {
		return
	}
	delete(h.clients, s)
	close(s.send)
	api.ClientConnected(-1)
}

// EventsHandler upgrades to a websocket and streams changes of the entity
// types listed in the types query parameter
func (h *Hub) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Debugw("websocket upgrade failed", "error", err)
		return
	}
	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		types = strings.Split(raw, ",")
	}
	changes, cancel := h.Subscribe(types...)
	actor := api.ActorFromContext(r.Context())
	zap.S().Debugw("change feed client connected", "cid", actor.CID, "types", types)

	go h.writeLoop(conn, changes)

	// the read loop only services control frames and detects disconnects
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	cancel()
	zap.S().Debugw("change feed client disconnected", "cid", actor.CID)
}

func (h *Hub) writeLoop(conn *websocket.Conn, changes <-chan models.Change) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case change, ok := <-changes:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(change); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
