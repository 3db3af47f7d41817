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

type ConceptNodeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConceptMapper
}

func NewConceptNodeRepository(db *gorm.DB) contract.ConceptNodeRepository {
	return &ConceptNodeRepositoryImpl{
		db:     db,
		mapper: mapper.NewConceptMapper(),
	}
}

func (r *ConceptNodeRepositoryImpl) Create(ctx context.Context, node *entity.ConceptNode) error {
	m := r.mapper.NodeToModel(node)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*node = *r.mapper.NodeToEntity(m)
	return nil
}

func (r *ConceptNodeRepositoryImpl) Update(ctx context.Context, node *entity.ConceptNode) error {
	m := r.mapper.NodeToModel(node)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*node = *r.mapper.NodeToEntity(m)
	return nil
}

// Delete removes the node; its edges go with it through the foreign key cascade.
func (r *ConceptNodeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ConceptNode{}).Error
}

func (r *ConceptNodeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConceptNode, error) {
	var m model.ConceptNode
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.NodeToEntity(&m), nil
}

func (r *ConceptNodeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConceptNode, error) {
	var models []*model.ConceptNode
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.NodesToEntities(models), nil
}

type ConceptEdgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConceptMapper
}

func NewConceptEdgeRepository(db *gorm.DB) contract.ConceptEdgeRepository {
	return &ConceptEdgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewConceptMapper(),
	}
}

func (r *ConceptEdgeRepositoryImpl) Create(ctx context.Context, edge *entity.ConceptEdge) error {
	m := r.mapper.EdgeToModel(edge)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*edge = *r.mapper.EdgeToEntity(m)
	return nil
}

func (r *ConceptEdgeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ConceptEdge{}).Error
}

func (r *ConceptEdgeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConceptEdge, error) {
	var m model.ConceptEdge
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EdgeToEntity(&m), nil
}

func (r *ConceptEdgeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConceptEdge, error) {
	var models []*model.ConceptEdge
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.EdgesToEntities(models), nil
}
