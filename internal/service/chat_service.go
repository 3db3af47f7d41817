package service

import (
	"context"
	"errors"
	"strings"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

type IChatService interface {
	List(ctx context.Context, actor Actor, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	Post(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.PostMessageRequest) (*dto.PostMessageResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	messages   *MessageLog
	personas   IPersonaService
	logger     logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	messages *MessageLog,
	personas IPersonaService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		messages:   messages,
		personas:   personas,
		logger:     log,
	}
}

func (s *chatService) List(ctx context.Context, actor Actor, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := memberSession(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	list, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "seq"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MessageResponse, 0, len(list))
	for _, m := range list {
		result = append(result, toMessageResponse(m))
	}
	return result, nil
}

// Post appends the user's message and lets a mentioned persona answer. Both appends run
// the count-based interventions on behalf of the poster. A persona failure is reported as
// a warning; the user's message stays saved.
func (s *chatService) Post(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.PostMessageRequest) (*dto.PostMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	ctx = WithViewer(ctx, actor.UserId)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := memberSession(ctx, uow, sessionId, actor.UserId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionEnded
	}

	participant, err := uow.ParticipantRepository().FindOne(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByUserID{UserID: actor.UserId},
	)
	if err != nil {
		return nil, err
	}
	authorId := actor.UserId
	authorName := participant.DisplayName

	msg := &entity.Message{
		SessionId:   sessionId,
		Content:     content,
		Speaker:     persona.User,
		AuthorId:    &authorId,
		AuthorName:  &authorName,
		IsAnonymous: req.Anonymous,
	}
	if err := s.messages.Append(ctx, msg, false); err != nil {
		return nil, err
	}

	res := &dto.PostMessageResponse{Message: *toMessageResponse(msg)}

	if p, ok := persona.DetectMention(content); ok {
		reply, err := s.personas.Invoke(ctx, sessionId, p, content, &msg.Id)
		switch {
		case err == nil:
			res.Reply = toMessageResponse(reply)
		case errors.Is(err, ErrPersonaUnavailable):
			res.Warning = warningOf(ErrPersonaUnavailable)
		default:
			s.logger.Error("ChatService", "Persona reply could not be stored", map[string]interface{}{"session_id": sessionId, "persona": p, "error": err.Error()})
			res.Warning = warningOf(ErrPersonaUnavailable)
		}
	}

	return res, nil
}
