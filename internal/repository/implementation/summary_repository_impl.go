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
)

type SessionSummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SummaryMapper
}

func NewSessionSummaryRepository(db *gorm.DB) contract.SessionSummaryRepository {
	return &SessionSummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewSummaryMapper(),
	}
}

func (r *SessionSummaryRepositoryImpl) Create(ctx context.Context, summary *entity.SessionSummary) error {
	m := r.mapper.ToModel(summary)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*summary = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionSummaryRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.SessionSummary{}).Error
}

func (r *SessionSummaryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionSummary, error) {
	var m model.SessionSummary
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
