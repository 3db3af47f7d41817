package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// join registers a client unless the hub is shutting down.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeWs attaches conn to the session room and blocks until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, UserID: userID, Send: make(chan []byte, 256)}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
