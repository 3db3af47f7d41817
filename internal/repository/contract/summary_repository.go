package contract

import (
	"context"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionSummaryRepository interface {
	Create(ctx context.Context, summary *entity.SessionSummary) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionSummary, error)
}
