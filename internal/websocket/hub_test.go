package websocket

import (
	"context"
	"testing"
	"time"

	"mindstorm-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastStaysInRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run(ctx)

	roomA, roomB := uuid.New(), uuid.New()
	alice := &Client{Hub: hub, SessionID: roomA, UserID: uuid.New(), Send: make(chan []byte, 4)}
	bob := &Client{Hub: hub, SessionID: roomB, UserID: uuid.New(), Send: make(chan []byte, 4)}
	require.True(t, hub.join(alice))
	require.True(t, hub.join(bob))

	hub.BroadcastToSession(roomA, []byte(`{"type":"message.created"}`))

	select {
	case frame := <-alice.Send:
		assert.JSONEq(t, `{"type":"message.created"}`, string(frame))
	case <-time.After(time.Second):
		t.Fatal("frame not delivered to room member")
	}

	select {
	case <-bob.Send:
		t.Fatal("frame leaked into another room")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	<-hub.done
	_, open := <-alice.Send
	assert.False(t, open)
	assert.False(t, hub.join(&Client{Hub: hub, SessionID: roomA, Send: make(chan []byte)}))
}

func TestLeaveClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run(ctx)

	c := &Client{Hub: hub, SessionID: uuid.New(), UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.join(c))
	hub.leave(c)

	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after leave")
	}
}
