package mapper

import (
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:        s.Id,
		Title:     s.Title,
		Goal:      s.Goal,
		Slug:      s.Slug,
		Status:    s.Status,
		CreatorId: s.CreatorId,
		EndedAt:   s.EndedAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *SessionMapper) SessionToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:        s.Id,
		Title:     s.Title,
		Goal:      s.Goal,
		Slug:      s.Slug,
		Status:    s.Status,
		CreatorId: s.CreatorId,
		EndedAt:   s.EndedAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *SessionMapper) ParticipantToEntity(p *model.Participant) *entity.Participant {
	if p == nil {
		return nil
	}
	return &entity.Participant{
		Id:          p.Id,
		SessionId:   p.SessionId,
		UserId:      p.UserId,
		DisplayName: p.DisplayName,
		JoinedAt:    p.JoinedAt,
	}
}

func (m *SessionMapper) ParticipantToModel(p *entity.Participant) *model.Participant {
	if p == nil {
		return nil
	}
	return &model.Participant{
		Id:          p.Id,
		SessionId:   p.SessionId,
		UserId:      p.UserId,
		DisplayName: p.DisplayName,
		JoinedAt:    p.JoinedAt,
	}
}

func (m *SessionMapper) ParticipantsToEntities(list []*model.Participant) []*entity.Participant {
	out := make([]*entity.Participant, len(list))
	for i, p := range list {
		out[i] = m.ParticipantToEntity(p)
	}
	return out
}
