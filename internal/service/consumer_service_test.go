package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/contract"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/events"
	"mindstorm-be/pkg/persona"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractTopic = "extract_test"

type stubSessions struct {
	contract.SessionRepository
	session *entity.Session
	err     error
}

func (s *stubSessions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	return s.session, s.err
}

type sessionOnlyUoW struct {
	unitofwork.UnitOfWork
	sessions *stubSessions
}

func (u sessionOnlyUoW) SessionRepository() contract.SessionRepository {
	return u.sessions
}

type stubFactory struct {
	uow unitofwork.UnitOfWork
}

func (f stubFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeBridge struct {
	res   *conceptmap.Result
	err   error
	calls int
}

func (b *fakeBridge) Extract(ctx context.Context, src conceptmap.Source) (*conceptmap.Result, error) {
	b.calls++
	return b.res, b.err
}

type notifications struct {
	kinds []string
}

func (n *notifications) Notify(ctx context.Context, sessionId uuid.UUID, kind string, data interface{}) {
	n.kinds = append(n.kinds, kind)
}

type consumerFixture struct {
	consumer *consumerService
	bridge   *fakeBridge
	notified *notifications
	sessions *stubSessions
	requeued <-chan *message.Message
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	requeued, err := pubSub.Subscribe(ctx, extractTopic)
	require.NoError(t, err)

	f := &consumerFixture{
		bridge:   &fakeBridge{},
		notified: &notifications{},
		sessions: &stubSessions{session: &entity.Session{Id: uuid.New(), Status: entity.SessionStatusActive}},
		requeued: requeued,
	}
	f.consumer = &consumerService{
		subscriber: pubSub,
		topicName:  extractTopic,
		retries:    NewExtractionPublisher(pubSub, extractTopic),
		uowFactory: stubFactory{uow: sessionOnlyUoW{sessions: f.sessions}},
		bridge:     f.bridge,
		notifier:   f.notified,
		logger:     logger.NewNopLogger(),
	}
	return f
}

func extractionTask(t *testing.T, attempt int) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.ExtractConceptsMessage{
		SessionId: uuid.New(),
		MessageId: uuid.New(),
		Speaker:   string(persona.IdeaGenerator.Speaker()),
		Content:   "a fox mascot",
		Attempt:   attempt,
	})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

// nextRequeued waits briefly for a requeued task; nil means none arrived.
func (f *consumerFixture) nextRequeued(t *testing.T) *dto.ExtractConceptsMessage {
	t.Helper()
	select {
	case msg := <-f.requeued:
		msg.Ack()
		var task dto.ExtractConceptsMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &task))
		return &task
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestExtractionSuccessNotifies(t *testing.T) {
	f := newConsumerFixture(t)
	f.bridge.res = &conceptmap.Result{Nodes: []conceptmap.Node{{Label: "Fox"}}, Edges: 1}

	msg := extractionTask(t, 1)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Equal(t, []string{events.KindConceptExtracted}, f.notified.kinds)
	assert.Nil(t, f.nextRequeued(t))
}

func TestExtractionFailureIsRequeuedWithNextAttempt(t *testing.T) {
	f := newConsumerFixture(t)
	f.bridge.err = errors.New("model timeout")

	msg := extractionTask(t, 1)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, f.notified.kinds)
	task := f.nextRequeued(t)
	require.NotNil(t, task)
	assert.Equal(t, 2, task.Attempt)
	assert.Equal(t, "a fox mascot", task.Content)
}

func TestExtractionGivesUpAfterLastAttempt(t *testing.T) {
	f := newConsumerFixture(t)
	f.bridge.err = errors.New("model timeout")

	msg := extractionTask(t, maxExtractionAttempts)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Equal(t, 1, f.bridge.calls)
	assert.Nil(t, f.nextRequeued(t))
}

func TestPartialExtractionIsNotRetried(t *testing.T) {
	f := newConsumerFixture(t)
	f.bridge.res = &conceptmap.Result{Nodes: []conceptmap.Node{{Label: "Fox"}}}
	f.bridge.err = errors.New("edge write failed")

	msg := extractionTask(t, 1)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Equal(t, []string{events.KindConceptExtracted}, f.notified.kinds)
	assert.Nil(t, f.nextRequeued(t))
}

func TestExtractionForMissingSessionIsDropped(t *testing.T) {
	f := newConsumerFixture(t)
	f.sessions.session = nil

	msg := extractionTask(t, 1)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Zero(t, f.bridge.calls)
	assert.Empty(t, f.notified.kinds)
	assert.Nil(t, f.nextRequeued(t))
}

func TestSessionLookupFailureIsRequeued(t *testing.T) {
	f := newConsumerFixture(t)
	f.sessions.err = errors.New("connection refused")

	msg := extractionTask(t, 2)
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Zero(t, f.bridge.calls)
	task := f.nextRequeued(t)
	require.NotNil(t, task)
	assert.Equal(t, 3, task.Attempt)
}

func TestMalformedTaskIsDropped(t *testing.T) {
	f := newConsumerFixture(t)

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	f.consumer.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Zero(t, f.bridge.calls)
	assert.Nil(t, f.nextRequeued(t))
}
