package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/factory-dashboard/backend/internal/feed"
)

// WebSocket message types for the live data protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected  = "connected"
	MsgTypePong       = "pong"
	MsgTypeDataUpdate = "data:update"
)

// WSMessage is the envelope for every frame on the live socket.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Hub pushes live sample batches to connected dashboard clients. It
// plugs into the poller as a sink, so every tick fans out over every
// open socket.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	log      *logrus.Entry
}

// NewHub creates a live data hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		clients: make(map[*websocket.Conn]bool),
		log:     log.WithField("component", "ws-hub"),
	}
}

// HandleWebSocket upgrades the connection and keeps it registered
// until the client disconnects. The read loop only answers pings;
// data flows server -> client.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[ws] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.log.WithField("clients", count).Debug("client connected")

	defer func() {
		h.remove(ws)
		ws.Close()
	}()

	h.send(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Debug("connection error")
			}
			return nil
		}
		if msg.Type == MsgTypePing {
			h.send(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// Broadcast pushes a batch of readings to every client. It satisfies
// the poller's sink signature.
func (h *Hub) Broadcast(readings []feed.Reading) {
	if len(readings) == 0 {
		return
	}

	values := make([]CurrentValue, len(readings))
	for i, r := range readings {
		values[i] = CurrentValue{
			TagID:     r.TagID,
			Value:     r.Value,
			Quality:   r.Quality,
			Timestamp: r.Timestamp.UnixMilli(),
		}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		h.log.WithError(err).Warn("failed to encode update")
		return
	}
	msg := WSMessage{Type: MsgTypeDataUpdate, Payload: payload, Timestamp: time.Now().UnixMilli()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		if err := ws.WriteJSON(msg); err != nil {
			delete(h.clients, ws)
			ws.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		ws.Close()
		delete(h.clients, ws)
	}
}

// send serializes writes through the hub mutex; gorilla connections
// allow only one concurrent writer.
func (h *Hub) send(ws *websocket.Conn, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ws.WriteJSON(msg); err != nil {
		h.log.WithError(err).Debug("failed to send message")
	}
}

func (h *Hub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ws)
}
