// Package realtime streams chat messages of a consultation to WebSocket clients.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/metrics"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventChatMessage carries a newly created chat message.
	EventChatMessage = "chat_message"
)

// Publisher publishes an event to every instance serving a consultation room.
type Publisher interface {
	PublishRoomEvent(room uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to a room channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeRoom(room uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains consultation_id -> set of connections and broadcasts messages.
// With a Redis bridge, events are published and delivered back through the
// room subscription so every instance broadcasts exactly once. Rooms whose
// subscription is missing or still being set up fall back to local delivery.
type Hub struct {
	rooms       map[uuid.UUID]map[string]*Client
	subs        map[uuid.UUID]func()
	subscribing map[uuid.UUID]bool
	mu          sync.RWMutex
	logger      *zap.Logger
	pub         Publisher
	sub         Subscriber
	metrics     metrics.RealtimeMetrics
}

// NewHub creates a hub. pub and sub may be nil for a single instance.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber, m metrics.RealtimeMetrics) *Hub {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Hub{
		rooms:       make(map[uuid.UUID]map[string]*Client),
		subs:        make(map[uuid.UUID]func()),
		subscribing: make(map[uuid.UUID]bool),
		logger:      logger,
		pub:         pub,
		sub:         sub,
		metrics:     m,
	}
}

// Register adds a client to its room and makes sure the room is subscribed.
// A failed subscription is retried by the next client joining the room.
func (h *Hub) Register(c *Client) {
	room := c.Room
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c
	subscribe := h.sub != nil && h.subs[room] == nil && !h.subscribing[room]
	if subscribe {
		h.subscribing[room] = true
	}
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.logger.Debug("client joined chat", zap.String("client_id", c.ID), zap.String("consultation_id", room.String()))

	if subscribe {
		h.subscribe(room)
	}
}

// subscribe runs the network round trip without holding the hub lock.
func (h *Hub) subscribe(room uuid.UUID) {
	cancel, err := h.sub.SubscribeRoom(room, func(event string, payload []byte) {
		h.Broadcast(room, event, json.RawMessage(payload))
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribing, room)
	if err != nil {
		h.logger.Warn("room subscription failed; delivering locally",
			zap.String("consultation_id", room.String()), zap.Error(err))
		return
	}
	if len(h.rooms[room]) == 0 {
		// Everyone left while subscribing.
		cancel()
		return
	}
	h.subs[room] = cancel
}

// Unregister removes a client. The last client of a room cancels the Redis subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	m, ok := h.rooms[c.Room]
	if ok {
		if _, present := m[c.ID]; !present {
			h.mu.Unlock()
			return
		}
		delete(m, c.ID)
		close(c.send)
		if len(m) == 0 {
			delete(h.rooms, c.Room)
			if cancel, ok := h.subs[c.Room]; ok {
				cancel()
				delete(h.subs, c.Room)
			}
		}
	}
	h.mu.Unlock()
	if ok {
		h.metrics.ConnectionClosed()
	}
	h.logger.Debug("client left chat", zap.String("client_id", c.ID), zap.String("consultation_id", c.Room.String()))
}

// Broadcast sends an event to the clients of room on this instance.
func (h *Hub) Broadcast(room uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("encode event failed", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to the room on every instance. Without a
// publisher, when publishing fails, or when this instance has no live
// subscription for the room, it also broadcasts locally.
func (h *Hub) Publish(room uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.pub != nil {
		err := h.pub.PublishRoomEvent(room, event, data)
		if err == nil && h.subscribed(room) {
			return
		}
		if err != nil {
			h.logger.Warn("publish room event failed", zap.String("consultation_id", room.String()), zap.Error(err))
		}
	}
	h.Broadcast(room, event, json.RawMessage(data))
}

// subscribed reports whether local clients of room receive events through
// the Redis subscription. Rooms without local clients need no delivery.
func (h *Hub) subscribed(room uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room]) == 0 || h.subs[room] != nil
}

// RoomSize returns the number of local clients watching room.
func (h *Hub) RoomSize(room uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
