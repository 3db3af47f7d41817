package mapper

import (
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"
)

type ConceptMapper struct{}

func NewConceptMapper() *ConceptMapper {
	return &ConceptMapper{}
}

func (m *ConceptMapper) NodeToEntity(n *model.ConceptNode) *entity.ConceptNode {
	if n == nil {
		return nil
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	return &entity.ConceptNode{
		Id:              n.Id,
		SessionId:       n.SessionId,
		Label:           n.Label,
		X:               n.X,
		Y:               n.Y,
		Persona:         n.Persona,
		SourceMessageId: n.SourceMessageId,
		IsCancelled:     n.IsCancelled,
		Highlight:       n.Highlight,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *ConceptMapper) NodeToModel(n *entity.ConceptNode) *model.ConceptNode {
	if n == nil {
		return nil
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	return &model.ConceptNode{
		Id:              n.Id,
		SessionId:       n.SessionId,
		Label:           n.Label,
		X:               n.X,
		Y:               n.Y,
		Persona:         n.Persona,
		SourceMessageId: n.SourceMessageId,
		IsCancelled:     n.IsCancelled,
		Highlight:       n.Highlight,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *ConceptMapper) NodesToEntities(list []*model.ConceptNode) []*entity.ConceptNode {
	out := make([]*entity.ConceptNode, len(list))
	for i, n := range list {
		out[i] = m.NodeToEntity(n)
	}
	return out
}

func (m *ConceptMapper) EdgeToEntity(e *model.ConceptEdge) *entity.ConceptEdge {
	if e == nil {
		return nil
	}
	return &entity.ConceptEdge{
		Id:        e.Id,
		SessionId: e.SessionId,
		SourceId:  e.SourceId,
		TargetId:  e.TargetId,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ConceptMapper) EdgeToModel(e *entity.ConceptEdge) *model.ConceptEdge {
	if e == nil {
		return nil
	}
	return &model.ConceptEdge{
		Id:        e.Id,
		SessionId: e.SessionId,
		SourceId:  e.SourceId,
		TargetId:  e.TargetId,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ConceptMapper) EdgesToEntities(list []*model.ConceptEdge) []*entity.ConceptEdge {
	out := make([]*entity.ConceptEdge, len(list))
	for i, e := range list {
		out[i] = m.EdgeToEntity(e)
	}
	return out
}
