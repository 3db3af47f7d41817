package implementation

import (
	"context"
	"errors"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/mapper"
	"mindstorm-be/internal/model"
	"mindstorm-be/internal/repository/contract"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PrivateMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrivateMapper
}

func NewPrivateMessageRepository(db *gorm.DB) contract.PrivateMessageRepository {
	return &PrivateMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrivateMapper(),
	}
}

func (r *PrivateMessageRepositoryImpl) Create(ctx context.Context, message *entity.PrivateMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *PrivateMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrivateMessage, error) {
	var models []*model.PrivateMessage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

type PrivateThreadRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PrivateMapper
}

func NewPrivateThreadRepository(db *gorm.DB) contract.PrivateThreadRepository {
	return &PrivateThreadRepositoryImpl{
		db:     db,
		mapper: mapper.NewPrivateMapper(),
	}
}

func (r *PrivateThreadRepositoryImpl) Find(ctx context.Context, sessionId, userId uuid.UUID) (*entity.PrivateThread, error) {
	var m model.PrivateThread
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ThreadToEntity(&m), nil
}

func (r *PrivateThreadRepositoryImpl) Save(ctx context.Context, thread *entity.PrivateThread) error {
	m := r.mapper.ThreadToModel(thread)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "pending_idea", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*thread = *r.mapper.ThreadToEntity(m)
	return nil
}
