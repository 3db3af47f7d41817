package contract

import (
	"context"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConceptNodeRepository interface {
	Create(ctx context.Context, node *entity.ConceptNode) error
	Update(ctx context.Context, node *entity.ConceptNode) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConceptNode, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConceptNode, error)
}

type ConceptEdgeRepository interface {
	Create(ctx context.Context, edge *entity.ConceptEdge) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConceptEdge, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConceptEdge, error)
}
