package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/engagement"
	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const engagementModule = "EngagementService"

// IEngagementObserver evaluates the message-count interventions of a session.
type IEngagementObserver interface {
	Observe(ctx context.Context, sessionId, viewer uuid.UUID)
}

type viewerKey struct{}

// WithViewer marks ctx as driven by userId. Threshold checks run by appends made under
// ctx never invite that user.
func WithViewer(ctx context.Context, userId uuid.UUID) context.Context {
	return context.WithValue(ctx, viewerKey{}, userId)
}

// viewerOf falls back to the author of a user message, and to nobody for watchdog output.
func viewerOf(ctx context.Context, m *entity.Message) uuid.UUID {
	if id, ok := ctx.Value(viewerKey{}).(uuid.UUID); ok {
		return id
	}
	if m.Speaker == persona.User && m.AuthorId != nil {
		return *m.AuthorId
	}
	return uuid.Nil
}

type IEngagementService interface {
	ISessionWatcher
	IEngagementObserver
	// Start watches every active session. Watchdogs stop when ctx is cancelled.
	Start(ctx context.Context) error
	Stop()
}

type engagementService struct {
	uowFactory unitofwork.RepositoryFactory
	scheduler  *engagement.Scheduler
	logger     logger.ILogger

	mu      sync.Mutex
	baseCtx context.Context
}

// NewEngagementService wires the scheduler to the stores. rdb may be nil; markers then
// live only in Postgres and every instance drives its own watchdogs.
func NewEngagementService(
	uowFactory unitofwork.RepositoryFactory,
	messages *MessageLog,
	personas IPersonaService,
	rdb *redis.Client,
	cfg engagement.Config,
	log logger.ILogger,
) IEngagementService {
	s := &engagementService{
		uowFactory: uowFactory,
		logger:     log,
		baseCtx:    context.Background(),
	}

	opts := []engagement.Option{}
	if rdb != nil {
		opts = append(opts, engagement.WithLease(newRedisLease(rdb, log)))
	}

	actions := &engagementActions{messages: messages, personas: personas}
	s.scheduler = engagement.New(
		cfg,
		&transcriptReader{uowFactory: uowFactory},
		&rosterReader{uowFactory: uowFactory},
		&triggerMarkers{uowFactory: uowFactory, rdb: rdb, logger: log},
		actions,
		log,
		opts...,
	)

	messages.OnAppend(s.afterAppend)

	return s
}

// afterAppend resets the activity clock and checks the count thresholds for every
// message, whoever wrote it.
func (s *engagementService) afterAppend(ctx context.Context, m *entity.Message) {
	s.scheduler.Touch(m.SessionId)
	s.Observe(ctx, m.SessionId, viewerOf(ctx, m))
}

func (s *engagementService) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAll(ctx, specification.ByStatus{Status: entity.SessionStatusActive})
	if err != nil {
		return fmt.Errorf("list active sessions: %w", err)
	}
	for _, session := range sessions {
		s.Watch(session.Id)
	}
	s.logger.Info(engagementModule, "Watching active sessions", map[string]interface{}{"count": len(sessions)})
	return nil
}

func (s *engagementService) Watch(sessionId uuid.UUID) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	s.scheduler.Watch(ctx, sessionId)
}

func (s *engagementService) Unwatch(sessionId uuid.UUID) {
	s.scheduler.Unwatch(sessionId)
}

func (s *engagementService) Observe(ctx context.Context, sessionId, viewer uuid.UUID) {
	if fired := s.scheduler.Observe(ctx, sessionId, viewer); len(fired) > 0 {
		s.logger.Info(engagementModule, "Threshold interventions fired", map[string]interface{}{"session_id": sessionId, "markers": fired})
	}
}

func (s *engagementService) Stop() {
	s.scheduler.Stop()
}

// transcriptReader summarises the message log for the scheduler.
type transcriptReader struct {
	uowFactory unitofwork.RepositoryFactory
}

func (t *transcriptReader) Snapshot(ctx context.Context, sessionId uuid.UUID, window int) (*engagement.Snapshot, error) {
	uow := t.uowFactory.NewUnitOfWork(ctx)
	repo := uow.MessageRepository()
	bySession := specification.BySessionID{SessionID: sessionId}

	total, err := repo.Count(ctx, bySession)
	if err != nil {
		return nil, err
	}
	facilitator, err := repo.Count(ctx, bySession, specification.BySpeaker{Speaker: string(persona.Facilitator)})
	if err != nil {
		return nil, err
	}
	users, err := repo.Count(ctx, bySession, specification.BySpeaker{Speaker: string(persona.User)})
	if err != nil {
		return nil, err
	}

	recent, err := repo.FindAll(ctx, bySession,
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Limit{N: window},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]engagement.Entry, len(recent))
	for i, m := range recent {
		entries[len(recent)-1-i] = engagement.Entry{Speaker: m.Speaker, AuthorID: m.AuthorId, Anonymous: m.IsAnonymous}
	}

	return &engagement.Snapshot{
		Total:       int(total),
		Facilitator: int(facilitator),
		Users:       int(users),
		Recent:      entries,
	}, nil
}

type rosterReader struct {
	uowFactory unitofwork.RepositoryFactory
}

func (r *rosterReader) Participants(ctx context.Context, sessionId uuid.UUID) ([]engagement.Participant, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	list, err := uow.ParticipantRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "joined_at"},
	)
	if err != nil {
		return nil, err
	}
	result := make([]engagement.Participant, 0, len(list))
	for _, p := range list {
		result = append(result, engagement.Participant{UserID: p.UserId, DisplayName: p.DisplayName})
	}
	return result, nil
}

// triggerMarkers keeps markers in Postgres. Redis SETNX answers repeated checks without a
// database round trip.
type triggerMarkers struct {
	uowFactory unitofwork.RepositoryFactory
	rdb        *redis.Client
	logger     logger.ILogger
}

func markerKey(sessionId uuid.UUID, key string) string {
	return fmt.Sprintf("mindstorm:trigger:%s:%s", sessionId, key)
}

func (m *triggerMarkers) Claim(ctx context.Context, sessionId uuid.UUID, key string) (bool, error) {
	if m.rdb != nil {
		fresh, err := m.rdb.SetNX(ctx, markerKey(sessionId, key), 1, 7*24*time.Hour).Result()
		if err == nil && !fresh {
			return false, nil
		}
		if err != nil {
			m.logger.Warn(engagementModule, "Redis marker check failed, using database", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	claimed, err := m.uowFactory.NewUnitOfWork(ctx).SessionTriggerRepository().Claim(ctx, sessionId, key)
	if err != nil && m.rdb != nil {
		// Let the next check retry the database.
		m.rdb.Del(ctx, markerKey(sessionId, key))
	}
	return claimed, err
}

// engagementActions lets the scheduler speak. Persona answers go through the completion
// service; fixed announcements are appended as is.
type engagementActions struct {
	messages *MessageLog
	personas IPersonaService
}

func (a *engagementActions) Invoke(ctx context.Context, sessionId uuid.UUID, p persona.Persona, prompt string) error {
	_, err := a.personas.Invoke(ctx, sessionId, p, prompt, nil)
	return err
}

func (a *engagementActions) Announce(ctx context.Context, sessionId uuid.UUID, p persona.Persona, content string) error {
	return a.messages.Append(ctx, &entity.Message{
		SessionId: sessionId,
		Content:   content,
		Speaker:   p.Speaker(),
	}, false)
}

// redisLease gives one instance the right to drive a session's watchdog.
type redisLease struct {
	rdb    *redis.Client
	owner  string
	logger logger.ILogger
}

func newRedisLease(rdb *redis.Client, log logger.ILogger) *redisLease {
	host, _ := os.Hostname()
	return &redisLease{rdb: rdb, owner: fmt.Sprintf("%s-%s", host, uuid.NewString()), logger: log}
}

func leaseKey(sessionId uuid.UUID) string {
	return "mindstorm:lease:" + sessionId.String()
}

func (l *redisLease) Acquire(ctx context.Context, sessionId uuid.UUID, ttl time.Duration) (bool, error) {
	key := leaseKey(sessionId)
	ok, err := l.rdb.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		// Without Redis there is nobody to coordinate with.
		l.logger.Warn(engagementModule, "Lease unavailable, driving session locally", map[string]interface{}{"session_id": sessionId, "error": err.Error()})
		return true, nil
	}
	if ok {
		return true, nil
	}

	holder, err := l.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if holder != l.owner {
		return false, nil
	}
	if err := l.rdb.PExpire(ctx, key, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *redisLease) Release(ctx context.Context, sessionId uuid.UUID) error {
	key := leaseKey(sessionId)
	holder, err := l.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != l.owner {
		return nil
	}
	return l.rdb.Del(ctx, key).Err()
}
