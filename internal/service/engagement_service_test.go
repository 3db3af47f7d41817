package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/engagement"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersonas struct {
	calls []persona.Persona
	err   error
}

func (f *fakePersonas) Invoke(ctx context.Context, sessionId uuid.UUID, p persona.Persona, trigger string, triggerId *uuid.UUID) (*entity.Message, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Message{Id: uuid.New(), SessionId: sessionId, Speaker: p.Speaker(), Content: "ok"}, nil
}

type stubTranscript struct {
	snap engagement.Snapshot
}

func (s *stubTranscript) Snapshot(ctx context.Context, sessionId uuid.UUID, window int) (*engagement.Snapshot, error) {
	snap := s.snap
	return &snap, nil
}

type stubRoster []engagement.Participant

func (r stubRoster) Participants(ctx context.Context, sessionId uuid.UUID) ([]engagement.Participant, error) {
	return r, nil
}

type memoryMarkers struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memoryMarkers) Claim(ctx context.Context, sessionId uuid.UUID, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

type announcements struct {
	texts []string
}

func (a *announcements) Invoke(ctx context.Context, sessionId uuid.UUID, p persona.Persona, prompt string) error {
	return nil
}

func (a *announcements) Announce(ctx context.Context, sessionId uuid.UUID, p persona.Persona, content string) error {
	a.texts = append(a.texts, content)
	return nil
}

func newObservedService(transcript *stubTranscript, roster stubRoster, said *announcements) *engagementService {
	nop := logger.NewNopLogger()
	return &engagementService{
		scheduler: engagement.New(engagement.DefaultConfig(), transcript, roster, &memoryMarkers{}, said, nop),
		logger:    nop,
	}
}

func TestMentionReplyReachingTenInvitesQuietParticipants(t *testing.T) {
	poster, talker, quiet := uuid.New(), uuid.New(), uuid.New()
	sessionId := uuid.New()

	transcript := &stubTranscript{snap: engagement.Snapshot{
		Total: 9,
		Users: 5,
		Recent: []engagement.Entry{
			{Speaker: persona.User, AuthorID: &talker},
		},
	}}
	roster := stubRoster{
		{UserID: poster, DisplayName: "Pia"},
		{UserID: talker, DisplayName: "Tom"},
		{UserID: quiet, DisplayName: "Quinn"},
	}
	said := &announcements{}
	s := newObservedService(transcript, roster, said)
	ctx := WithViewer(context.Background(), poster)

	// The poster's message lands on 9, the persona reply on 10.
	s.afterAppend(ctx, &entity.Message{SessionId: sessionId, Speaker: persona.User, AuthorId: &poster})
	assert.Empty(t, said.texts)

	transcript.snap.Total = 10
	s.afterAppend(ctx, &entity.Message{SessionId: sessionId, Speaker: persona.IdeaGenerator.Speaker()})
	require.Equal(t, []string{persona.InviteParticipant("Quinn")}, said.texts)

	// The reply after that must not invite again.
	transcript.snap.Total = 11
	s.afterAppend(ctx, &entity.Message{SessionId: sessionId, Speaker: persona.Critic.Speaker()})
	assert.Len(t, said.texts, 1)
}

func TestViewerOf(t *testing.T) {
	poster, author := uuid.New(), uuid.New()

	tests := []struct {
		name string
		ctx  context.Context
		msg  *entity.Message
		want uuid.UUID
	}{
		{name: "viewer in context wins", ctx: WithViewer(context.Background(), poster), msg: &entity.Message{Speaker: persona.User, AuthorId: &author}, want: poster},
		{name: "user message author", ctx: context.Background(), msg: &entity.Message{Speaker: persona.User, AuthorId: &author}, want: author},
		{name: "watchdog reply", ctx: context.Background(), msg: &entity.Message{Speaker: persona.Critic.Speaker()}, want: uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, viewerOf(tt.ctx, tt.msg))
		})
	}
}

func TestEngagementActionsInvokeCallsPersona(t *testing.T) {
	personas := &fakePersonas{}
	a := &engagementActions{personas: personas}

	err := a.Invoke(context.Background(), uuid.New(), persona.Critic, persona.NudgePrompt(persona.Critic))
	assert.NoError(t, err)
	assert.Equal(t, []persona.Persona{persona.Critic}, personas.calls)
}

func TestEngagementActionsInvokeFailure(t *testing.T) {
	a := &engagementActions{personas: &fakePersonas{err: ErrPersonaUnavailable}}

	err := a.Invoke(context.Background(), uuid.New(), persona.IdeaGenerator, persona.KickoffPrompt)
	assert.True(t, errors.Is(err, ErrPersonaUnavailable))
}

func TestMarkerKeys(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "mindstorm:trigger:"+id.String()+":count:15", markerKey(id, "count:15"))
	assert.Equal(t, "mindstorm:lease:"+id.String(), leaseKey(id))
}
