package contract

import (
	"context"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PrivateMessageRepository interface {
	Create(ctx context.Context, message *entity.PrivateMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrivateMessage, error)
}

type PrivateThreadRepository interface {
	// Find returns nil without error when the thread does not exist yet.
	Find(ctx context.Context, sessionId, userId uuid.UUID) (*entity.PrivateThread, error)
	Save(ctx context.Context, thread *entity.PrivateThread) error
}
