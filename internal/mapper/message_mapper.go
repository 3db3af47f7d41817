package mapper

import (
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"
	"mindstorm-be/pkg/persona"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:          msg.Id,
		SessionId:   msg.SessionId,
		Seq:         msg.Seq,
		Content:     msg.Content,
		Speaker:     persona.Speaker(msg.Speaker),
		AuthorId:    msg.AuthorId,
		AuthorName:  msg.AuthorName,
		IsAnonymous: msg.IsAnonymous,
		CreatedAt:   msg.CreatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:          msg.Id,
		SessionId:   msg.SessionId,
		Seq:         msg.Seq,
		Content:     msg.Content,
		Speaker:     string(msg.Speaker),
		AuthorId:    msg.AuthorId,
		AuthorName:  msg.AuthorName,
		IsAnonymous: msg.IsAnonymous,
		CreatedAt:   msg.CreatedAt,
	}
}

func (m *MessageMapper) ToEntities(list []*model.Message) []*entity.Message {
	out := make([]*entity.Message, len(list))
	for i, msg := range list {
		out[i] = m.ToEntity(msg)
	}
	return out
}
