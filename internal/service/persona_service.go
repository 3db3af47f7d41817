package service

import (
	"context"
	"fmt"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/llm"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

type IPersonaService interface {
	// Invoke asks p to answer trigger and appends its reply. triggerId, when set, is the
	// already-appended message being answered; it is kept out of the history window.
	Invoke(ctx context.Context, sessionId uuid.UUID, p persona.Persona, trigger string, triggerId *uuid.UUID) (*entity.Message, error)
}

type personaService struct {
	uowFactory unitofwork.RepositoryFactory
	messages   *MessageLog
	llm        llm.LLMProvider
	logger     logger.ILogger
}

func NewPersonaService(uowFactory unitofwork.RepositoryFactory, messages *MessageLog, provider llm.LLMProvider, log logger.ILogger) IPersonaService {
	return &personaService{
		uowFactory: uowFactory,
		messages:   messages,
		llm:        provider,
		logger:     log,
	}
}

func (s *personaService) Invoke(ctx context.Context, sessionId uuid.UUID, p persona.Persona, trigger string, triggerId *uuid.UUID) (*entity.Message, error) {
	session, err := findSession(ctx, s.uowFactory.NewUnitOfWork(ctx), sessionId)
	if err != nil {
		return nil, err
	}

	recent, err := s.messages.Recent(ctx, sessionId, persona.WindowSize+1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	turns := make([]persona.Turn, 0, len(recent))
	anonymous := false
	for _, m := range recent {
		if triggerId != nil && m.Id == *triggerId {
			continue
		}
		turns = append(turns, persona.Turn{Speaker: m.Speaker, Content: m.Content})
		anonymous = anonymous || m.IsAnonymous
	}

	req := persona.Request(p, session.GoalText(), turns, trigger)
	req.Anonymous = anonymous

	reply, err := llm.Complete(ctx, s.llm, req)
	if err != nil {
		s.logger.Warn("PersonaService", "Persona call failed", map[string]interface{}{"session_id": sessionId, "persona": p, "error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPersonaUnavailable, err)
	}

	msg := &entity.Message{
		SessionId: sessionId,
		Content:   reply,
		Speaker:   p.Speaker(),
	}
	if err := s.messages.Append(ctx, msg, true); err != nil {
		return nil, err
	}
	return msg, nil
}
