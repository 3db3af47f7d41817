package unitofwork

import (
	"context"
	"fmt"

	"mindstorm-be/internal/repository/contract"
	"mindstorm-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) SessionRepository() contract.SessionRepository {
	return implementation.NewSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ParticipantRepository() contract.ParticipantRepository {
	return implementation.NewParticipantRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SessionTriggerRepository() contract.SessionTriggerRepository {
	return implementation.NewSessionTriggerRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConceptNodeRepository() contract.ConceptNodeRepository {
	return implementation.NewConceptNodeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConceptEdgeRepository() contract.ConceptEdgeRepository {
	return implementation.NewConceptEdgeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PrivateMessageRepository() contract.PrivateMessageRepository {
	return implementation.NewPrivateMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PrivateThreadRepository() contract.PrivateThreadRepository {
	return implementation.NewPrivateThreadRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SessionSummaryRepository() contract.SessionSummaryRepository {
	return implementation.NewSessionSummaryRepository(u.getDB())
}
