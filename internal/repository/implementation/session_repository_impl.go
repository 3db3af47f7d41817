package implementation

import (
	"context"
	"errors"
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/mapper"
	"mindstorm-be/internal/model"
	"mindstorm-be/internal/repository/contract"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, session *entity.Session) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) MarkEnded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ?", id, entity.SessionStatusActive).
		Updates(map[string]interface{}{"status": entity.SessionStatusEnded, "ended_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	var m model.Session
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	var models []*model.Session
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Session, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Session{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type ParticipantRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewParticipantRepository(db *gorm.DB) contract.ParticipantRepository {
	return &ParticipantRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *ParticipantRepositoryImpl) Upsert(ctx context.Context, participant *entity.Participant) error {
	m := r.mapper.ParticipantToModel(participant)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*participant = *r.mapper.ParticipantToEntity(m)
	return nil
}

func (r *ParticipantRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Participant, error) {
	var m model.Participant
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ParticipantToEntity(&m), nil
}

func (r *ParticipantRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Participant, error) {
	var models []*model.Participant
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ParticipantsToEntities(models), nil
}

type SessionTriggerRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionTriggerRepository(db *gorm.DB) contract.SessionTriggerRepository {
	return &SessionTriggerRepositoryImpl{db: db}
}

func (r *SessionTriggerRepositoryImpl) Claim(ctx context.Context, sessionId uuid.UUID, key string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SessionTrigger{SessionId: sessionId, Key: key})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionTriggerRepositoryImpl) Keys(ctx context.Context, sessionId uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&model.SessionTrigger{}).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Pluck("key", &keys).Error
	return keys, err
}
