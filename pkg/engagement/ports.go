package engagement

import (
	"context"
	"time"

	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

// Entry is the part of a chat message the scheduler cares about.
type Entry struct {
	Speaker   persona.Speaker
	AuthorID  *uuid.UUID
	Anonymous bool
}

// Snapshot summarises a session transcript at one point in time.
type Snapshot struct {
	Total       int
	Facilitator int
	Users       int
	Recent      []Entry // last Config.Window messages, oldest first
}

type Participant struct {
	UserID      uuid.UUID
	DisplayName string
}

// Transcript reads the shared message log.
type Transcript interface {
	Snapshot(ctx context.Context, sessionID uuid.UUID, window int) (*Snapshot, error)
}

// Roster lists the members of a session.
type Roster interface {
	Participants(ctx context.Context, sessionID uuid.UUID) ([]Participant, error)
}

// Markers records threshold interventions that already happened.
// Claim returns true only for the first caller of a (session, key) pair.
type Markers interface {
	Claim(ctx context.Context, sessionID uuid.UUID, key string) (bool, error)
}

// Actions is how the scheduler speaks in a session.
type Actions interface {
	// Invoke asks persona p to answer prompt through the completion service and appends its reply.
	Invoke(ctx context.Context, sessionID uuid.UUID, p persona.Persona, prompt string) error
	// Announce appends a fixed persona message without a completion call.
	Announce(ctx context.Context, sessionID uuid.UUID, p persona.Persona, content string) error
}

// Lease decides which process drives the watchdog of a session. A nil Lease means always.
type Lease interface {
	Acquire(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID) error
}
