// Package notify pushes game events to connected clients over websockets.
// Each player joins a room named after their username; background operations
// emit completion events into that room.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Notifier delivers an event payload to a room. A best-effort interface so
// services can run with a no-op implementation in tests.
type Notifier interface {
	Emit(event string, payload map[string]interface{}, room string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Emit(event string, payload map[string]interface{}, room string) {}

type envelope struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan envelope
	room string
}

// Hub tracks connected clients grouped into rooms.
type Hub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*client]struct{}),
	}
}

// ServeWS upgrades the request and joins the client to the given room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan envelope, sendBuffer), room: room}
	h.join(c)

	c.send <- envelope{Event: "connected", Data: map[string]interface{}{
		"message": "Connected to server",
		"room":    room,
	}}

	go c.writeLoop()
	go c.readLoop()
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[*client]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
	h.log.Debugf("client joined room %s", c.room)
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[c.room]; ok {
		if _, ok := members[c]; ok {
			delete(members, c)
			close(c.send)
			if len(members) == 0 {
				delete(h.rooms, c.room)
			}
		}
	}
}

// Emit sends an event to every client in the room. When the room has no
// members the event is broadcast to all clients with a room_error marker so
// nothing is silently lost. Delivery is best effort and never retried.
func (h *Hub) Emit(event string, payload map[string]interface{}, room string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok || len(members) == 0 {
		h.log.Warnf("room %s has no clients, broadcasting %s instead", room, event)
		fallback := make(map[string]interface{}, len(payload)+1)
		for k, v := range payload {
			fallback[k] = v
		}
		fallback["room_error"] = "Room '" + room + "' may not exist, broadcasting instead"
		for _, others := range h.rooms {
			for c := range others {
				c.offer(envelope{Event: event, Data: fallback})
			}
		}
		return
	}
	for c := range members {
		c.offer(envelope{Event: event, Data: payload})
	}
	h.log.Infof("emitted %s to room %s", event, room)
}

// offer enqueues without blocking; a slow client drops messages rather than
// stalling the emitter.
func (c *client) offer(e envelope) {
	select {
	case c.send <- e:
	default:
		c.hub.log.Warnf("dropping %s for slow client in room %s", e.Event, c.room)
	}
}

func (c *client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Clients only listen; reads exist to notice disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debugf("websocket read error in room %s: %v", c.room, err)
			}
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case e, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg, err := json.Marshal(e)
			if err != nil {
				c.hub.log.Errorf("failed to encode %s event: %v", e.Event, err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
