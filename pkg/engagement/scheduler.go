// Package engagement implements the watchdog that keeps a brainstorming session alive:
// a kickoff when nobody talks, alternating nudges on inactivity, and one-shot
// interventions when the transcript reaches fixed sizes.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

const module = "Engagement"

type Config struct {
	Tick            time.Duration
	KickoffAfter    time.Duration
	InactivityAfter time.Duration
	AlignmentAt     int
	SummarizeAt     int
	NudgeEvery      int
	Window          int
}

func DefaultConfig() Config {
	return Config{
		Tick:            30 * time.Second,
		KickoffAfter:    60 * time.Second,
		InactivityAfter: 120 * time.Second,
		AlignmentAt:     15,
		SummarizeAt:     30,
		NudgeEvery:      10,
		Window:          10,
	}
}

// Rule identifies which timer rule fired on a tick.
type Rule string

const (
	RuleNone       Rule = ""
	RuleKickoff    Rule = "kickoff"
	RuleInactivity Rule = "inactivity"
)

const (
	markerKickoff   = "kickoff"
	markerAlignment = "count:%d"
	markerNudge     = "nudge:%d"
)

type sessionState struct {
	lastActivity time.Time
	lastNudged   persona.Persona
	cancel       context.CancelFunc
}

type Scheduler struct {
	cfg        Config
	transcript Transcript
	roster     Roster
	markers    Markers
	actions    Actions
	lease      Lease
	logger     logger.ILogger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionState
	wg       sync.WaitGroup
}

type Option func(*Scheduler)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLease(l Lease) Option {
	return func(s *Scheduler) { s.lease = l }
}

func New(cfg Config, transcript Transcript, roster Roster, markers Markers, actions Actions, log logger.ILogger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		transcript: transcript,
		roster:     roster,
		markers:    markers,
		actions:    actions,
		logger:     log,
		now:        time.Now,
		sessions:   make(map[uuid.UUID]*sessionState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stateLocked must be called with s.mu held.
func (s *Scheduler) stateLocked(sessionID uuid.UUID) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{lastActivity: s.now()}
		s.sessions[sessionID] = st
	}
	return st
}

// Touch resets the activity clock of a session. Call it on every message arrival.
func (s *Scheduler) Touch(sessionID uuid.UUID) {
	s.mu.Lock()
	s.stateLocked(sessionID).lastActivity = s.now()
	s.mu.Unlock()
}

// Tick applies the timer rules once: kickoff first, otherwise inactivity.
func (s *Scheduler) Tick(ctx context.Context, sessionID uuid.UUID) (Rule, error) {
	snap, err := s.transcript.Snapshot(ctx, sessionID, s.cfg.Window)
	if err != nil {
		s.logger.Error(module, "Failed to read transcript on tick", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return RuleNone, err
	}
	if snap.Total == 0 {
		return RuleNone, nil
	}

	s.mu.Lock()
	st := s.stateLocked(sessionID)
	elapsed := s.now().Sub(st.lastActivity)
	s.mu.Unlock()

	if snap.Facilitator == 1 && snap.Users == 0 && elapsed >= s.cfg.KickoffAfter {
		claimed, err := s.markers.Claim(ctx, sessionID, markerKickoff)
		if err != nil {
			s.logger.Warn(module, "Failed to claim kickoff marker", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
		if claimed {
			s.Touch(sessionID)
			if err := s.actions.Invoke(ctx, sessionID, persona.IdeaGenerator, persona.KickoffPrompt); err != nil {
				s.logger.Error(module, "Kickoff failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
				return RuleKickoff, err
			}
			s.logger.Info(module, "Kickoff fired", map[string]interface{}{"session_id": sessionID})
			return RuleKickoff, nil
		}
	}

	if elapsed >= s.cfg.InactivityAfter {
		s.mu.Lock()
		next := persona.Critic
		if st.lastNudged == persona.Critic {
			next = persona.IdeaGenerator
		}
		st.lastNudged = next
		st.lastActivity = s.now()
		s.mu.Unlock()

		if err := s.actions.Invoke(ctx, sessionID, next, persona.NudgePrompt(next)); err != nil {
			s.logger.Error(module, "Inactivity nudge failed", map[string]interface{}{"session_id": sessionID, "persona": next, "error": err.Error()})
			return RuleInactivity, err
		}
		s.logger.Info(module, "Inactivity nudge fired", map[string]interface{}{"session_id": sessionID, "persona": next})
		return RuleInactivity, nil
	}

	return RuleNone, nil
}

// Observe evaluates the message-count thresholds after a message was appended.
// viewer is the user whose action led here; they are never nudged.
// It returns the marker keys that fired.
func (s *Scheduler) Observe(ctx context.Context, sessionID uuid.UUID, viewer uuid.UUID) []string {
	snap, err := s.transcript.Snapshot(ctx, sessionID, s.cfg.Window)
	if err != nil {
		s.logger.Error(module, "Failed to read transcript on observe", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return nil
	}

	var fired []string
	if s.cfg.AlignmentAt > 0 && snap.Total >= s.cfg.AlignmentAt {
		key := fmt.Sprintf(markerAlignment, s.cfg.AlignmentAt)
		if s.fire(ctx, sessionID, key, func(ctx context.Context) error {
			return s.actions.Announce(ctx, sessionID, persona.GoalKeeper, persona.AlignmentReminder)
		}) {
			fired = append(fired, key)
		}
	}

	if s.cfg.SummarizeAt > 0 && snap.Total >= s.cfg.SummarizeAt {
		key := fmt.Sprintf(markerAlignment, s.cfg.SummarizeAt)
		if s.fire(ctx, sessionID, key, func(ctx context.Context) error {
			return s.actions.Announce(ctx, sessionID, persona.GoalKeeper, persona.SummarizationPrompt)
		}) {
			fired = append(fired, key)
		}
	}

	// Invites only go out at exact multiples; Observe runs after every append so none is skipped.
	if s.cfg.NudgeEvery > 0 && snap.Total > 0 && snap.Total%s.cfg.NudgeEvery == 0 {
		key := fmt.Sprintf(markerNudge, snap.Total)
		if s.fire(ctx, sessionID, key, func(ctx context.Context) error {
			return s.inviteQuietParticipants(ctx, sessionID, viewer, snap.Recent)
		}) {
			fired = append(fired, key)
		}
	}

	return fired
}

func (s *Scheduler) fire(ctx context.Context, sessionID uuid.UUID, key string, fn func(context.Context) error) bool {
	claimed, err := s.markers.Claim(ctx, sessionID, key)
	if err != nil {
		s.logger.Error(module, "Failed to claim marker", map[string]interface{}{"session_id": sessionID, "key": key, "error": err.Error()})
		return false
	}
	if !claimed {
		return false
	}
	if err := fn(ctx); err != nil {
		s.logger.Error(module, "Threshold intervention failed", map[string]interface{}{"session_id": sessionID, "key": key, "error": err.Error()})
	}
	return true
}

// QuietParticipants returns participants with no non-anonymous user message in recent, except viewer.
func QuietParticipants(participants []Participant, recent []Entry, viewer uuid.UUID) []Participant {
	active := make(map[uuid.UUID]bool)
	for _, e := range recent {
		if e.Speaker == persona.User && !e.Anonymous && e.AuthorID != nil {
			active[*e.AuthorID] = true
		}
	}

	quiet := make([]Participant, 0)
	for _, p := range participants {
		if active[p.UserID] || p.UserID == viewer {
			continue
		}
		quiet = append(quiet, p)
	}
	return quiet
}

func (s *Scheduler) inviteQuietParticipants(ctx context.Context, sessionID, viewer uuid.UUID, recent []Entry) error {
	participants, err := s.roster.Participants(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	var errs []error
	for _, p := range QuietParticipants(participants, recent, viewer) {
		if err := s.actions.Announce(ctx, sessionID, persona.Facilitator, persona.InviteParticipant(p.DisplayName)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch starts the periodic watchdog of a session. Calling it twice is a no-op.
func (s *Scheduler) Watch(ctx context.Context, sessionID uuid.UUID) {
	s.mu.Lock()
	st := s.stateLocked(sessionID)
	if st.cancel != nil {
		s.mu.Unlock()
		return
	}
	wctx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(wctx, sessionID)
}

// Unwatch stops the watchdog and forgets the session's clock.
func (s *Scheduler) Unwatch(sessionID uuid.UUID) {
	s.mu.Lock()
	if st, ok := s.sessions[sessionID]; ok {
		if st.cancel != nil {
			st.cancel()
		}
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
}

func (s *Scheduler) Watching(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	return ok && st.cancel != nil
}

// Stop cancels every watchdog and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, st := range s.sessions {
		if st.cancel != nil {
			st.cancel()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, sessionID uuid.UUID) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.lease != nil {
				if err := s.lease.Release(context.Background(), sessionID); err != nil {
					s.logger.Warn(module, "Failed to release lease", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
				}
			}
			return
		case <-ticker.C:
			s.safeTick(ctx, sessionID)
		}
	}
}

// safeTick never lets a failing or panicking rule take the loop down.
func (s *Scheduler) safeTick(ctx context.Context, sessionID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(module, "Recovered from panic in tick", map[string]interface{}{"session_id": sessionID, "panic": fmt.Sprint(r)})
		}
	}()

	if s.lease != nil {
		owned, err := s.lease.Acquire(ctx, sessionID, 3*s.cfg.Tick)
		if err != nil {
			s.logger.Warn(module, "Failed to acquire lease", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			return
		}
		if !owned {
			return
		}
	}

	_, _ = s.Tick(ctx, sessionID)
}
