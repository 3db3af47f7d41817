package mapper

import (
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"
)

type PrivateMapper struct{}

func NewPrivateMapper() *PrivateMapper {
	return &PrivateMapper{}
}

func (m *PrivateMapper) MessageToEntity(msg *model.PrivateMessage) *entity.PrivateMessage {
	if msg == nil {
		return nil
	}
	return &entity.PrivateMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		UserId:    msg.UserId,
		Content:   msg.Content,
		Origin:    msg.Origin,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *PrivateMapper) MessageToModel(msg *entity.PrivateMessage) *model.PrivateMessage {
	if msg == nil {
		return nil
	}
	return &model.PrivateMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		UserId:    msg.UserId,
		Content:   msg.Content,
		Origin:    msg.Origin,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *PrivateMapper) MessagesToEntities(list []*model.PrivateMessage) []*entity.PrivateMessage {
	out := make([]*entity.PrivateMessage, len(list))
	for i, msg := range list {
		out[i] = m.MessageToEntity(msg)
	}
	return out
}

func (m *PrivateMapper) ThreadToEntity(t *model.PrivateThread) *entity.PrivateThread {
	if t == nil {
		return nil
	}
	return &entity.PrivateThread{
		SessionId:   t.SessionId,
		UserId:      t.UserId,
		State:       t.State,
		PendingIdea: t.PendingIdea,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (m *PrivateMapper) ThreadToModel(t *entity.PrivateThread) *model.PrivateThread {
	if t == nil {
		return nil
	}
	return &model.PrivateThread{
		SessionId:   t.SessionId,
		UserId:      t.UserId,
		State:       t.State,
		PendingIdea: t.PendingIdea,
		UpdatedAt:   t.UpdatedAt,
	}
}
