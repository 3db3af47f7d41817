package contract

import (
	"context"
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	// MarkEnded moves an active session to ended. It reports false when the session was not active.
	MarkEnded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ParticipantRepository interface {
	// Upsert inserts the participant unless (session, user) already exists.
	Upsert(ctx context.Context, participant *entity.Participant) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Participant, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Participant, error)
}

type SessionTriggerRepository interface {
	// Claim records key for the session and reports whether this call created it.
	Claim(ctx context.Context, sessionId uuid.UUID, key string) (bool, error)
	Keys(ctx context.Context, sessionId uuid.UUID) ([]string, error)
}
