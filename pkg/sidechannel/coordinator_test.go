package sidechannel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/llm"
	"mindstorm-be/pkg/llm/mock"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	threads  map[uuid.UUID]*Thread
	messages []Message
}

func newMemoryStore() *memoryStore {
	return &memoryStore{threads: make(map[uuid.UUID]*Thread)}
}

func (s *memoryStore) Thread(ctx context.Context, sessionID, userID uuid.UUID) (*Thread, error) {
	if t, ok := s.threads[userID]; ok {
		cp := *t
		return &cp, nil
	}
	return &Thread{SessionID: sessionID, UserID: userID, State: StateIdle}, nil
}

func (s *memoryStore) SaveThread(ctx context.Context, thread *Thread) error {
	cp := *thread
	s.threads[thread.UserID] = &cp
	return nil
}

func (s *memoryStore) AppendMessage(ctx context.Context, sessionID, userID uuid.UUID, origin Origin, content string) error {
	s.messages = append(s.messages, Message{Origin: origin, Content: content})
	return nil
}

func (s *memoryStore) History(ctx context.Context, sessionID, userID uuid.UUID, limit int) ([]Message, error) {
	h := s.messages
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]Message(nil), h...), nil
}

type recordingPublisher struct {
	published []string
	err       error
}

func (p *recordingPublisher) PublishAnonymous(ctx context.Context, sessionID uuid.UUID, content string) (uuid.UUID, error) {
	if p.err != nil {
		return uuid.Nil, p.err
	}
	p.published = append(p.published, content)
	return uuid.New(), nil
}

type recordingQueue struct {
	sources []conceptmap.Source
}

func (q *recordingQueue) Enqueue(ctx context.Context, src conceptmap.Source) error {
	q.sources = append(q.sources, src)
	return nil
}

type fixture struct {
	store     *memoryStore
	provider  *mock.Provider
	publisher *recordingPublisher
	queue     *recordingQueue
	coord     *Coordinator
	req       Request
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemoryStore(),
		provider:  mock.NewProvider(),
		publisher: &recordingPublisher{},
		queue:     &recordingQueue{},
		req:       Request{SessionID: uuid.New(), UserID: uuid.New(), Goal: "name a mascot"},
	}
	f.coord = NewCoordinator(f.store, f.provider, f.publisher, f.queue, logger.NewNopLogger())
	return f
}

func (f *fixture) awaiting(idea string) {
	f.store.threads[f.req.UserID] = &Thread{SessionID: f.req.SessionID, UserID: f.req.UserID, State: StateAwaitingShareDecision, PendingIdea: idea}
	f.store.messages = append(f.store.messages,
		Message{Origin: OriginUser, Content: idea},
		Message{Origin: OriginFacilitator, Content: "Lovely! Would you like me to share it with the group?"},
	)
}

func (f *fixture) send(t *testing.T, content string) *Outcome {
	t.Helper()
	req := f.req
	req.Content = content
	out, err := f.coord.Handle(context.Background(), req)
	require.NoError(t, err)
	return out
}

func TestClassifyDecision(t *testing.T) {
	tests := []struct {
		in   string
		want Decision
	}{
		{"yes please", DecisionYes},
		{"Yes!", DecisionYes},
		{"y", DecisionYes},
		{"  OK ", DecisionYes},
		{"okay then", DecisionYes},
		{"sure, go ahead", DecisionYes},
		{"share it", DecisionYes},
		{"no thanks", DecisionNo},
		{"Nope", DecisionNo},
		{"don't", DecisionNo},
		{"Don’t share it", DecisionNo},
		{"dont", DecisionNo},
		{"n", DecisionNo},
		{"nothing comes to mind", DecisionNone},
		{"yesterday I thought", DecisionNone},
		{"maybe", DecisionNone},
		{"", DecisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDecision(tt.in))
		})
	}
}

func TestAsksToShare(t *testing.T) {
	assert.True(t, AsksToShare("Shall I SHARE this with the Group?"))
	assert.False(t, AsksToShare("Tell me more about it."))
	assert.False(t, AsksToShare("Should I share it?"))
}

func TestCollectingAsksToShare(t *testing.T) {
	f := newFixture()
	f.provider.ChatFunc = func(history []llm.Message) (string, error) {
		return "Great idea! Would you like me to share it with the group anonymously?", nil
	}

	out := f.send(t, "A fox that changes color with the seasons")
	assert.Equal(t, StateAwaitingShareDecision, out.State)
	assert.Nil(t, out.Published)

	thread := f.store.threads[f.req.UserID]
	assert.Equal(t, "A fox that changes color with the seasons", thread.PendingIdea)
	require.Len(t, f.store.messages, 2)
	assert.Equal(t, OriginUser, f.store.messages[0].Origin)
	assert.Equal(t, OriginFacilitator, f.store.messages[1].Origin)

	calls := f.provider.ChatCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, "name a mascot")
	assert.Equal(t, "A fox that changes color with the seasons", calls[0][len(calls[0])-1].Content)
}

func TestCollectingPlainReply(t *testing.T) {
	f := newFixture()
	out := f.send(t, "I have a vague idea")
	assert.Equal(t, StateCollecting, out.State)
	assert.Empty(t, f.publisher.published)
}

func TestYesPleaseShares(t *testing.T) {
	f := newFixture()
	f.awaiting("A fox that changes color with the seasons")
	f.provider.ChatFunc = func(history []llm.Message) (string, error) {
		return "Someone in the group suggested a fox that changes color with the seasons.", nil
	}

	out := f.send(t, "yes please")
	assert.Equal(t, StateShared, out.State)
	require.NotNil(t, out.Published)
	assert.Equal(t, persona.ShareAck, out.Reply)

	require.Len(t, f.publisher.published, 1)
	assert.True(t, strings.HasPrefix(f.publisher.published[0], "Someone in the group suggested"))

	require.Len(t, f.queue.sources, 1)
	assert.Equal(t, *out.Published, f.queue.sources[0].MessageID)
	assert.Equal(t, persona.Facilitator.Speaker(), f.queue.sources[0].Speaker)

	thread := f.store.threads[f.req.UserID]
	assert.Equal(t, StateShared, thread.State)
	assert.Empty(t, thread.PendingIdea)
}

func TestYesFallsBackToRawIdea(t *testing.T) {
	f := newFixture()
	f.awaiting("A fox mascot")
	f.provider.ChatFunc = func(history []llm.Message) (string, error) {
		return "", errors.New("provider down")
	}

	out := f.send(t, "sure")
	assert.Equal(t, StateShared, out.State)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, AnonymousPrefix+"A fox mascot", f.publisher.published[0])
}

func TestNoThanksDeclines(t *testing.T) {
	f := newFixture()
	f.awaiting("A fox mascot")

	out := f.send(t, "no thanks")
	assert.Equal(t, StateDeclined, out.State)
	assert.Equal(t, persona.DeclineAck, out.Reply)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.provider.ChatCalls())
}

func TestDeclinedBehavesLikeCollecting(t *testing.T) {
	f := newFixture()
	f.store.threads[f.req.UserID] = &Thread{SessionID: f.req.SessionID, UserID: f.req.UserID, State: StateDeclined}

	out := f.send(t, "yes, another thought")
	assert.Equal(t, StateCollecting, out.State)
	assert.Empty(t, f.publisher.published)
}

func TestUnmatchedKeepsCollecting(t *testing.T) {
	f := newFixture()
	f.awaiting("A fox mascot")

	out := f.send(t, "hmm, let me think")
	assert.Equal(t, StateCollecting, out.State)
	assert.Empty(t, f.publisher.published)
}

func TestPublishFailureKeepsDecisionPending(t *testing.T) {
	f := newFixture()
	f.awaiting("A fox mascot")
	f.publisher.err = errors.New("db down")

	req := f.req
	req.Content = "yes"
	_, err := f.coord.Handle(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, StateAwaitingShareDecision, f.store.threads[f.req.UserID].State)
}

func TestFacilitatorFailure(t *testing.T) {
	f := newFixture()
	f.provider.ChatFunc = func(history []llm.Message) (string, error) {
		return "", errors.New("provider down")
	}

	req := f.req
	req.Content = "an idea"
	_, err := f.coord.Handle(context.Background(), req)
	assert.ErrorIs(t, err, ErrFacilitatorUnavailable)
	require.Len(t, f.store.messages, 1)
	assert.Equal(t, OriginUser, f.store.messages[0].Origin)
}

func TestEmptyMessage(t *testing.T) {
	f := newFixture()
	req := f.req
	req.Content = "   "
	_, err := f.coord.Handle(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
