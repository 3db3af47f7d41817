package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscript struct {
	mu   sync.Mutex
	snap Snapshot
	err  error
}

func (f *fakeTranscript) Snapshot(ctx context.Context, sessionID uuid.UUID, window int) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := f.snap
	return &s, nil
}

func (f *fakeTranscript) set(s Snapshot) {
	f.mu.Lock()
	f.snap = s
	f.mu.Unlock()
}

type fakeRoster struct {
	participants []Participant
}

func (f *fakeRoster) Participants(ctx context.Context, sessionID uuid.UUID) ([]Participant, error) {
	return f.participants, nil
}

type fakeMarkers struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (f *fakeMarkers) Claim(ctx context.Context, sessionID uuid.UUID, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed == nil {
		f.claimed = make(map[string]bool)
	}
	k := sessionID.String() + "/" + key
	if f.claimed[k] {
		return false, nil
	}
	f.claimed[k] = true
	return true, nil
}

type call struct {
	Kind    string
	Persona persona.Persona
	Text    string
}

type fakeActions struct {
	mu        sync.Mutex
	calls     []call
	invokeErr error
}

func (f *fakeActions) Invoke(ctx context.Context, sessionID uuid.UUID, p persona.Persona, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "invoke", Persona: p, Text: prompt})
	return f.invokeErr
}

func (f *fakeActions) Announce(ctx context.Context, sessionID uuid.UUID, p persona.Persona, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "announce", Persona: p, Text: content})
	return nil
}

func (f *fakeActions) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	scheduler  *Scheduler
	transcript *fakeTranscript
	roster     *fakeRoster
	actions    *fakeActions
	clock      *fakeClock
	session    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		transcript: &fakeTranscript{},
		roster:     &fakeRoster{},
		actions:    &fakeActions{},
		clock:      &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
		session:    uuid.New(),
	}
	f.scheduler = New(DefaultConfig(), f.transcript, f.roster, &fakeMarkers{}, f.actions, logger.NewNopLogger(), WithClock(f.clock.Now))
	return f
}

func TestTickKickoff(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		elapsed time.Duration
		want    Rule
	}{
		{name: "only welcome after a minute", snap: Snapshot{Total: 1, Facilitator: 1}, elapsed: 61 * time.Second, want: RuleKickoff},
		{name: "only welcome too early", snap: Snapshot{Total: 1, Facilitator: 1}, elapsed: 30 * time.Second, want: RuleNone},
		{name: "a user already spoke", snap: Snapshot{Total: 2, Facilitator: 1, Users: 1}, elapsed: 61 * time.Second, want: RuleNone},
		{name: "empty session", snap: Snapshot{}, elapsed: 10 * time.Minute, want: RuleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.transcript.set(tt.snap)
			f.scheduler.Touch(f.session)
			f.clock.Advance(tt.elapsed)

			got, err := f.scheduler.Tick(context.Background(), f.session)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if tt.want == RuleKickoff {
				calls := f.actions.snapshot()
				require.Len(t, calls, 1)
				assert.Equal(t, persona.IdeaGenerator, calls[0].Persona)
				assert.Equal(t, persona.KickoffPrompt, calls[0].Text)
			}
		})
	}
}

func TestKickoffFiresOnce(t *testing.T) {
	f := newFixture(t)
	f.transcript.set(Snapshot{Total: 1, Facilitator: 1})
	f.scheduler.Touch(f.session)

	f.clock.Advance(61 * time.Second)
	rule, err := f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, RuleKickoff, rule)

	// The invocation failed to land (transcript unchanged); a later tick must not retry kickoff.
	f.clock.Advance(61 * time.Second)
	rule, err = f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, RuleNone, rule)
}

func TestInactivityAlternates(t *testing.T) {
	f := newFixture(t)
	f.transcript.set(Snapshot{Total: 5, Facilitator: 1, Users: 3})
	f.scheduler.Touch(f.session)

	var got []persona.Persona
	for i := 0; i < 4; i++ {
		f.clock.Advance(121 * time.Second)
		rule, err := f.scheduler.Tick(context.Background(), f.session)
		require.NoError(t, err)
		require.Equal(t, RuleInactivity, rule)
	}
	for _, c := range f.actions.snapshot() {
		got = append(got, c.Persona)
	}

	assert.Equal(t, []persona.Persona{persona.Critic, persona.IdeaGenerator, persona.Critic, persona.IdeaGenerator}, got)
}

func TestInactivityResetsClock(t *testing.T) {
	f := newFixture(t)
	f.transcript.set(Snapshot{Total: 5, Facilitator: 1, Users: 3})
	f.scheduler.Touch(f.session)

	f.clock.Advance(121 * time.Second)
	_, err := f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)

	f.clock.Advance(30 * time.Second)
	rule, err := f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, RuleNone, rule)

	f.clock.Advance(60 * time.Second)
	f.scheduler.Touch(f.session)
	f.clock.Advance(100 * time.Second)
	rule, err = f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, RuleNone, rule)
}

func TestInactivityFailureStillResetsClock(t *testing.T) {
	f := newFixture(t)
	f.actions.invokeErr = errors.New("provider down")
	f.transcript.set(Snapshot{Total: 5, Facilitator: 1, Users: 3})
	f.scheduler.Touch(f.session)

	f.clock.Advance(121 * time.Second)
	rule, err := f.scheduler.Tick(context.Background(), f.session)
	assert.Error(t, err)
	assert.Equal(t, RuleInactivity, rule)

	f.clock.Advance(30 * time.Second)
	rule, err = f.scheduler.Tick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, RuleNone, rule)
}

func TestObserveThresholdsFireOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := uuid.New()

	f.transcript.set(Snapshot{Total: 14})
	assert.Empty(t, f.scheduler.Observe(ctx, f.session, viewer))

	f.transcript.set(Snapshot{Total: 15})
	assert.Equal(t, []string{"count:15"}, f.scheduler.Observe(ctx, f.session, viewer))
	assert.Empty(t, f.scheduler.Observe(ctx, f.session, viewer))

	f.transcript.set(Snapshot{Total: 30})
	assert.Equal(t, []string{"count:30", "nudge:30"}, f.scheduler.Observe(ctx, f.session, viewer))
	assert.Empty(t, f.scheduler.Observe(ctx, f.session, viewer))

	var goalKeeper []string
	for _, c := range f.actions.snapshot() {
		if c.Persona == persona.GoalKeeper {
			goalKeeper = append(goalKeeper, c.Text)
		}
	}
	assert.Equal(t, []string{persona.AlignmentReminder, persona.SummarizationPrompt}, goalKeeper)
}

func TestObserveSkippedCountStillFires(t *testing.T) {
	f := newFixture(t)
	f.transcript.set(Snapshot{Total: 16})

	fired := f.scheduler.Observe(context.Background(), f.session, uuid.New())
	assert.Contains(t, fired, "count:15")
}

func TestNudgeOnlyAtMultiples(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AlignmentAt, cfg.SummarizeAt = 0, 0
	f.scheduler = New(cfg, f.transcript, f.roster, &fakeMarkers{}, f.actions, logger.NewNopLogger(), WithClock(f.clock.Now))
	f.roster.participants = []Participant{{UserID: uuid.New(), DisplayName: "Quinn"}}

	for _, total := range []int{9, 11, 14, 19} {
		f.transcript.set(Snapshot{Total: total})
		assert.Empty(t, f.scheduler.Observe(ctx, f.session, uuid.Nil), "total %d", total)
	}

	f.transcript.set(Snapshot{Total: 20})
	assert.Equal(t, []string{"nudge:20"}, f.scheduler.Observe(ctx, f.session, uuid.Nil))
	assert.Empty(t, f.scheduler.Observe(ctx, f.session, uuid.Nil))

	f.transcript.set(Snapshot{Total: 10})
	assert.Equal(t, []string{"nudge:10"}, f.scheduler.Observe(ctx, f.session, uuid.Nil))
	assert.Len(t, f.actions.snapshot(), 2)
}

func TestObserveNudgesQuietParticipants(t *testing.T) {
	f := newFixture(t)
	viewer := uuid.New()
	talker := uuid.New()
	quiet := uuid.New()
	anon := uuid.New()

	f.roster.participants = []Participant{
		{UserID: viewer, DisplayName: "Vera"},
		{UserID: talker, DisplayName: "Tom"},
		{UserID: quiet, DisplayName: "Quinn"},
		{UserID: anon, DisplayName: "Ana"},
	}

	recent := []Entry{
		{Speaker: persona.User, AuthorID: &talker},
		{Speaker: persona.User, AuthorID: &anon, Anonymous: true},
		{Speaker: persona.Critic.Speaker()},
	}
	f.transcript.set(Snapshot{Total: 10, Users: 5, Recent: recent})

	fired := f.scheduler.Observe(context.Background(), f.session, viewer)
	assert.Equal(t, []string{"nudge:10"}, fired)

	var invited []string
	for _, c := range f.actions.snapshot() {
		require.Equal(t, persona.Facilitator, c.Persona)
		invited = append(invited, c.Text)
	}
	assert.Equal(t, []string{persona.InviteParticipant("Quinn"), persona.InviteParticipant("Ana")}, invited)
}

func TestQuietParticipants(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	participants := []Participant{{UserID: a, DisplayName: "A"}, {UserID: b, DisplayName: "B"}}

	assert.Len(t, QuietParticipants(participants, nil, uuid.Nil), 2)
	assert.Len(t, QuietParticipants(participants, []Entry{{Speaker: persona.User, AuthorID: &a}}, b), 0)
	assert.Equal(t, "B", QuietParticipants(participants, []Entry{{Speaker: persona.User, AuthorID: &a}}, uuid.Nil)[0].DisplayName)
}

func TestWatchUnwatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scheduler.Watch(ctx, f.session)
	f.scheduler.Watch(ctx, f.session)
	assert.True(t, f.scheduler.Watching(f.session))

	f.scheduler.Unwatch(f.session)
	assert.False(t, f.scheduler.Watching(f.session))
	f.scheduler.Stop()
}

type denyLease struct{}

func (denyLease) Acquire(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) (bool, error) {
	return false, nil
}
func (denyLease) Release(ctx context.Context, sessionID uuid.UUID) error { return nil }

func TestLeaseHeldElsewhereSkipsTick(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Tick = 5 * time.Millisecond
	s := New(cfg, f.transcript, f.roster, &fakeMarkers{}, f.actions, logger.NewNopLogger(), WithClock(f.clock.Now), WithLease(denyLease{}))

	f.transcript.set(Snapshot{Total: 5, Users: 3})
	s.Touch(f.session)
	f.clock.Advance(10 * time.Minute)

	s.Watch(context.Background(), f.session)
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	assert.Empty(t, f.actions.snapshot())
}

func TestWatchLoopDrivesTicks(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Tick = 5 * time.Millisecond
	s := New(cfg, f.transcript, f.roster, &fakeMarkers{}, f.actions, logger.NewNopLogger(), WithClock(f.clock.Now))

	f.transcript.set(Snapshot{Total: 1, Facilitator: 1})
	s.Touch(f.session)
	f.clock.Advance(61 * time.Second)

	s.Watch(context.Background(), f.session)
	require.Eventually(t, func() bool { return len(f.actions.snapshot()) > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := f.actions.snapshot()
	assert.Equal(t, persona.IdeaGenerator, calls[0].Persona, fmt.Sprintf("calls: %+v", calls))
}
