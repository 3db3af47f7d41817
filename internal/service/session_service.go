package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/memory"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
)

const slugLength = 10

// Actor is the authenticated user behind a request.
type Actor struct {
	UserId      uuid.UUID
	DisplayName string
}

// ISessionWatcher starts and stops the engagement watchdog of a session.
type ISessionWatcher interface {
	Watch(sessionId uuid.UUID)
	Unwatch(sessionId uuid.UUID)
}

type ISessionService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Join(ctx context.Context, actor Actor, slug string) (*dto.SessionResponse, error)
	Show(ctx context.Context, actor Actor, id uuid.UUID) (*dto.SessionResponse, error)
	Participants(ctx context.Context, actor Actor, id uuid.UUID) ([]*dto.ParticipantResponse, error)
	// Authorize checks that the user may follow the session in real time.
	Authorize(ctx context.Context, sessionId, userId uuid.UUID) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	messages   *MessageLog
	cache      *memory.SessionCache
	watcher    ISessionWatcher
	logger     logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	messages *MessageLog,
	cache *memory.SessionCache,
	watcher ISessionWatcher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		messages:   messages,
		cache:      cache,
		watcher:    watcher,
		logger:     log,
	}
}

func newSlug() string {
	id := shortuuid.New()
	return id[len(id)-slugLength:]
}

func (s *sessionService) Create(ctx context.Context, actor Actor, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	slug := newSlug()
	for i := 0; i < 3; i++ {
		taken, err := uow.SessionRepository().Count(ctx, specification.BySlug{Slug: slug})
		if err != nil {
			return nil, err
		}
		if taken == 0 {
			break
		}
		slug = newSlug()
	}

	var goal *string
	if req.Goal != nil {
		if g := strings.TrimSpace(*req.Goal); g != "" {
			goal = &g
		}
	}

	session := entity.Session{
		Id:        uuid.New(),
		Title:     strings.TrimSpace(req.Title),
		Goal:      goal,
		Slug:      slug,
		Status:    entity.SessionStatusActive,
		CreatorId: actor.UserId,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Create(ctx, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := uow.ParticipantRepository().Upsert(ctx, newParticipant(session.Id, actor)); err != nil {
		return nil, fmt.Errorf("add creator as participant: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.cache.Save(&session)

	welcome := &entity.Message{
		SessionId: session.Id,
		Content:   persona.WelcomeMessage,
		Speaker:   persona.Facilitator.Speaker(),
	}
	if err := s.messages.Append(ctx, welcome, false); err != nil {
		s.logger.Error("SessionService", "Failed to post welcome message", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	}

	s.watcher.Watch(session.Id)
	s.logger.Info("SessionService", "Session created", map[string]interface{}{"session_id": session.Id, "slug": slug})

	return &dto.CreateSessionResponse{Id: session.Id, Slug: session.Slug}, nil
}

func (s *sessionService) Join(ctx context.Context, actor Actor, slug string) (*dto.SessionResponse, error) {
	session, ok := s.cache.Get(slug)
	if !ok {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		found, err := uow.SessionRepository().FindOne(ctx, specification.BySlug{Slug: slug})
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrSessionNotFound
		}
		session = found
		if session.IsActive() {
			s.cache.Save(session)
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ParticipantRepository().Upsert(ctx, newParticipant(session.Id, actor)); err != nil {
		return nil, fmt.Errorf("join session: %w", err)
	}

	return toSessionResponse(session, actor), nil
}

func (s *sessionService) Show(ctx context.Context, actor Actor, id uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := memberSession(ctx, uow, id, actor.UserId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, actor), nil
}

func (s *sessionService) Participants(ctx context.Context, actor Actor, id uuid.UUID) ([]*dto.ParticipantResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := memberSession(ctx, uow, id, actor.UserId); err != nil {
		return nil, err
	}

	participants, err := uow.ParticipantRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderBy{Field: "joined_at"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		result = append(result, &dto.ParticipantResponse{UserId: p.UserId, DisplayName: p.DisplayName, JoinedAt: p.JoinedAt})
	}
	return result, nil
}

func (s *sessionService) Authorize(ctx context.Context, sessionId, userId uuid.UUID) error {
	_, err := memberSession(ctx, s.uowFactory.NewUnitOfWork(ctx), sessionId, userId)
	return err
}

func newParticipant(sessionId uuid.UUID, actor Actor) *entity.Participant {
	name := strings.TrimSpace(actor.DisplayName)
	if name == "" {
		name = "Participant"
	}
	return &entity.Participant{
		Id:          uuid.New(),
		SessionId:   sessionId,
		UserId:      actor.UserId,
		DisplayName: name,
		JoinedAt:    time.Now(),
	}
}

// findSession loads a session or returns ErrSessionNotFound.
func findSession(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// memberSession loads a session the user has joined.
func memberSession(ctx context.Context, uow unitofwork.UnitOfWork, id, userId uuid.UUID) (*entity.Session, error) {
	session, err := findSession(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	participant, err := uow.ParticipantRepository().FindOne(ctx,
		specification.BySessionID{SessionID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrNotParticipant
	}
	return session, nil
}

func toSessionResponse(s *entity.Session, actor Actor) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		Goal:      s.Goal,
		Slug:      s.Slug,
		Status:    s.Status,
		CreatorId: s.CreatorId,
		IsCreator: s.CreatorId == actor.UserId,
		EndedAt:   s.EndedAt,
		CreatedAt: s.CreatedAt,
	}
}
