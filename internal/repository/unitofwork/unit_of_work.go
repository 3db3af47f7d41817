package unitofwork

import (
	"context"

	"mindstorm-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	ParticipantRepository() contract.ParticipantRepository
	SessionTriggerRepository() contract.SessionTriggerRepository
	MessageRepository() contract.MessageRepository

	ConceptNodeRepository() contract.ConceptNodeRepository
	ConceptEdgeRepository() contract.ConceptEdgeRepository

	PrivateMessageRepository() contract.PrivateMessageRepository
	PrivateThreadRepository() contract.PrivateThreadRepository
	SessionSummaryRepository() contract.SessionSummaryRepository
}
