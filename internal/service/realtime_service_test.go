package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/events"
	pktNats "mindstorm-be/pkg/nats"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	session uuid.UUID
	body    map[string]interface{}
}

type recordingRooms struct {
	mu     sync.Mutex
	frames []frame
}

func (r *recordingRooms) BroadcastToSession(sessionId uuid.UUID, raw []byte) {
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)
	r.mu.Lock()
	r.frames = append(r.frames, frame{session: sessionId, body: body})
	r.mu.Unlock()
}

type fakeBus struct {
	published []events.Event
	err       error
	handler   pktNats.EventHandler
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error {
	b.handler = handler
	return nil
}

func TestNotifyWithoutBusDeliversLocally(t *testing.T) {
	rooms := &recordingRooms{}
	s := NewRealtimeService(nil, nil, rooms, logger.NewNopLogger())
	id := uuid.New()

	s.Notify(context.Background(), id, events.KindNodeDeleted, map[string]string{"id": "n1"})

	require.Len(t, rooms.frames, 1)
	assert.Equal(t, id, rooms.frames[0].session)
	assert.Equal(t, events.KindNodeDeleted, rooms.frames[0].body["type"])
}

func TestNotifyGoesThroughTheBus(t *testing.T) {
	rooms := &recordingRooms{}
	bus := &fakeBus{}
	s := NewRealtimeService(bus, bus, rooms, logger.NewNopLogger())
	require.NoError(t, s.Start(context.Background()))
	id := uuid.New()

	s.Notify(context.Background(), id, events.KindMessageCreated, map[string]string{"content": "hi"})
	assert.Empty(t, rooms.frames)
	require.Len(t, bus.published, 1)

	// Simulate the bus round trip.
	raw, err := json.Marshal(bus.published[0].Payload())
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, bus.handler(context.Background(), events.BaseEvent{Type: bus.published[0].EventType(), Data: payload}))

	require.Len(t, rooms.frames, 1)
	assert.Equal(t, id, rooms.frames[0].session)
	assert.Equal(t, "hi", rooms.frames[0].body["data"].(map[string]interface{})["content"])
}

func TestNotifyFallsBackWhenBusFails(t *testing.T) {
	rooms := &recordingRooms{}
	bus := &fakeBus{err: errors.New("nats down")}
	s := NewRealtimeService(bus, bus, rooms, logger.NewNopLogger())

	s.Notify(context.Background(), uuid.New(), events.KindEdgeCreated, nil)

	assert.Len(t, rooms.frames, 1)
}

func TestMessageResponseHidesAnonymousAuthor(t *testing.T) {
	author := uuid.New()
	name := "Ana"
	msg := &entity.Message{Id: uuid.New(), Speaker: persona.User, AuthorId: &author, AuthorName: &name, Content: "idea"}

	res := toMessageResponse(msg)
	assert.Equal(t, &author, res.AuthorId)
	assert.Equal(t, &name, res.AuthorName)

	msg.IsAnonymous = true
	res = toMessageResponse(msg)
	assert.Nil(t, res.AuthorId)
	assert.Nil(t, res.AuthorName)
	assert.True(t, res.IsAnonymous)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "author_id")
	assert.NotContains(t, string(raw), "Ana")
}

func TestWarningOf(t *testing.T) {
	assert.Nil(t, warningOf(nil))

	w := warningOf(errors.Join(ErrPersonaUnavailable, errors.New("timeout")))
	require.NotNil(t, w)
	assert.Equal(t, ErrPersonaUnavailable.Error(), *w)
	assert.Equal(t, 503, ErrPersonaUnavailable.StatusCode())
}
