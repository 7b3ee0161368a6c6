package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/implementation"

	"github.com/redis/go-redis/v9"
)

// Hub fans live pipeline notifications out to WebSocket clients watching
// a session. The pipeline workers publish to a Redis channel; every API
// instance subscribes and forwards to its own local clients, so push
// works no matter which instance a client or worker landed on.
type Hub struct {
	// Registered clients map: session ID -> connected clients (a session
	// can be watched on several devices at once)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	logger logger.ILogger
}

// pushEvent is the envelope sent down the socket.
type pushEvent struct {
	Type string              `json:"type"`
	Data entity.Notification `json:"data"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// subscribeToRedis forwards notification events published by the workers
// to local clients of the event's session.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, implementation.EventsChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var event struct {
			SessionID string                  `json:"session_id"`
			Kind      entity.NotificationKind `json:"kind"`
			Data      entity.Notification     `json:"data"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.logger.Warn("Hub", "Unparseable event payload", map[string]interface{}{"error": err.Error()})
			continue
		}

		data, err := json.Marshal(pushEvent{Type: string(event.Kind), Data: event.Data})
		if err != nil {
			continue
		}

		h.deliver(event.SessionID, data)
	}
}

func (h *Hub) deliver(sessionID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[sessionID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer: unregister closes the channel.
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
			h.unregister <- client
		}
	}
}
