package websocket

import (
	"context"
	"encoding/json"

	"mindstorm-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisChannel carries room frames between instances.
const RedisChannel = "session_events"

type Hub struct {
	// Rooms: SessionID -> connected clients (one per tab/device)
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomFrame
	done       chan struct{}

	// Redis connection for cross-instance communication
	rdb *redis.Client

	logger logger.ILogger
}

type roomFrame struct {
	SessionID uuid.UUID       `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomFrame, 256),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run owns the room map. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for client := range clients {
					close(client.Send)
				}
			}
			h.rooms = map[uuid.UUID]map[*Client]bool{}
			return

		case client := <-h.register:
			room, ok := h.rooms[client.SessionID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.SessionID] = room
			}
			room[client] = true
			h.logger.Info("Hub", "Client joined room", map[string]interface{}{"session_id": client.SessionID, "user_id": client.UserID, "clients": len(room)})

		case client := <-h.unregister:
			h.remove(client)

		case f := <-h.broadcast:
			for client := range h.rooms[f.SessionID] {
				select {
				case client.Send <- f.Message:
				default:
					h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": f.SessionID, "user_id": client.UserID})
					h.remove(client)
				}
			}
		}
	}
}

// remove must only be called from Run.
func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.SessionID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.rooms, client.SessionID)
		h.logger.Info("Hub", "Room closed", map[string]interface{}{"session_id": client.SessionID})
	}
}

// BroadcastToSession sends frame to every client in the session room on every instance.
// With Redis each instance delivers what it reads back from the channel, so local clients
// receive the frame exactly once.
func (h *Hub) BroadcastToSession(sessionID uuid.UUID, frame []byte) {
	if h.rdb != nil {
		payload, _ := json.Marshal(roomFrame{SessionID: sessionID, Message: frame})
		err := h.rdb.Publish(context.Background(), RedisChannel, payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("Hub", "Redis publish failed, delivering locally", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
	}
	h.deliverLocal(sessionID, frame)
}

func (h *Hub) deliverLocal(sessionID uuid.UUID, frame []byte) {
	select {
	case h.broadcast <- roomFrame{SessionID: sessionID, Message: frame}:
	case <-h.done:
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var f roomFrame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.deliverLocal(f.SessionID, f.Message)
		}
	}
}
