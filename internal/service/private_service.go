package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/persona"
	"mindstorm-be/pkg/sidechannel"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type IPrivateService interface {
	List(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.PrivateThreadResponse, error)
	Send(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.SendPrivateMessageRequest) (*dto.SendPrivateMessageResponse, error)
}

// ISideChannel runs one turn of the private facilitator conversation.
type ISideChannel interface {
	Handle(ctx context.Context, req sidechannel.Request) (*sidechannel.Outcome, error)
}

type privateService struct {
	uowFactory  unitofwork.RepositoryFactory
	coordinator ISideChannel
	logger      logger.ILogger
}

func NewPrivateService(
	uowFactory unitofwork.RepositoryFactory,
	coordinator ISideChannel,
	log logger.ILogger,
) IPrivateService {
	return &privateService{
		uowFactory:  uowFactory,
		coordinator: coordinator,
		logger:      log,
	}
}

// List returns the caller's own private thread. Nobody else can read it.
func (s *privateService) List(ctx context.Context, actor Actor, sessionId uuid.UUID) (*dto.PrivateThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := memberSession(ctx, uow, sessionId, actor.UserId); err != nil {
		return nil, err
	}

	thread, err := uow.PrivateThreadRepository().Find(ctx, sessionId, actor.UserId)
	if err != nil {
		return nil, err
	}
	state := string(sidechannel.StateIdle)
	if thread != nil {
		state = thread.State
	}

	list, err := uow.PrivateMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByUserID{UserID: actor.UserId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.PrivateThreadResponse{State: state, Messages: make([]*dto.PrivateMessageResponse, 0, len(list))}
	for _, m := range list {
		res.Messages = append(res.Messages, &dto.PrivateMessageResponse{Id: m.Id, Content: m.Content, Origin: m.Origin, CreatedAt: m.CreatedAt})
	}
	return res, nil
}

func (s *privateService) Send(ctx context.Context, actor Actor, sessionId uuid.UUID, req *dto.SendPrivateMessageRequest) (*dto.SendPrivateMessageResponse, error) {
	ctx = WithViewer(ctx, actor.UserId)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := memberSession(ctx, uow, sessionId, actor.UserId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionEnded
	}

	out, err := s.coordinator.Handle(ctx, sidechannel.Request{
		SessionID: sessionId,
		UserID:    actor.UserId,
		Goal:      session.GoalText(),
		Content:   req.Content,
	})
	if errors.Is(err, sidechannel.ErrEmptyMessage) {
		return nil, ErrEmptyMessage
	}
	if errors.Is(err, sidechannel.ErrFacilitatorUnavailable) {
		return nil, fmt.Errorf("%w: %v", ErrPersonaUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	return &dto.SendPrivateMessageResponse{
		Reply:           out.Reply,
		State:           string(out.State),
		SharedMessageId: out.Published,
	}, nil
}

// PrivateStore keeps private threads in Postgres with a short-lived in-memory copy of
// each thread's state.
type PrivateStore struct {
	uowFactory unitofwork.RepositoryFactory
	threads    *cache.Cache
}

func NewPrivateStore(uowFactory unitofwork.RepositoryFactory) *PrivateStore {
	return &PrivateStore{
		uowFactory: uowFactory,
		threads:    cache.New(30*time.Minute, 10*time.Minute),
	}
}

func threadKey(sessionId, userId uuid.UUID) string {
	return sessionId.String() + ":" + userId.String()
}

func (p *PrivateStore) Thread(ctx context.Context, sessionId, userId uuid.UUID) (*sidechannel.Thread, error) {
	if x, ok := p.threads.Get(threadKey(sessionId, userId)); ok {
		cp := *x.(*sidechannel.Thread)
		return &cp, nil
	}

	t, err := p.uowFactory.NewUnitOfWork(ctx).PrivateThreadRepository().Find(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}
	thread := &sidechannel.Thread{SessionID: sessionId, UserID: userId, State: sidechannel.StateIdle}
	if t != nil {
		thread.State = sidechannel.State(t.State)
		if t.PendingIdea != nil {
			thread.PendingIdea = *t.PendingIdea
		}
	}

	cp := *thread
	p.threads.Set(threadKey(sessionId, userId), &cp, cache.DefaultExpiration)
	return thread, nil
}

func (p *PrivateStore) SaveThread(ctx context.Context, thread *sidechannel.Thread) error {
	t := &entity.PrivateThread{
		SessionId: thread.SessionID,
		UserId:    thread.UserID,
		State:     string(thread.State),
		UpdatedAt: time.Now(),
	}
	if thread.PendingIdea != "" {
		idea := thread.PendingIdea
		t.PendingIdea = &idea
	}
	if err := p.uowFactory.NewUnitOfWork(ctx).PrivateThreadRepository().Save(ctx, t); err != nil {
		p.threads.Delete(threadKey(thread.SessionID, thread.UserID))
		return err
	}

	cp := *thread
	p.threads.Set(threadKey(thread.SessionID, thread.UserID), &cp, cache.DefaultExpiration)
	return nil
}

func (p *PrivateStore) AppendMessage(ctx context.Context, sessionId, userId uuid.UUID, origin sidechannel.Origin, content string) error {
	return p.uowFactory.NewUnitOfWork(ctx).PrivateMessageRepository().Create(ctx, &entity.PrivateMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    userId,
		Content:   content,
		Origin:    string(origin),
		CreatedAt: time.Now(),
	})
}

func (p *PrivateStore) History(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]sidechannel.Message, error) {
	list, err := p.uowFactory.NewUnitOfWork(ctx).PrivateMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	history := make([]sidechannel.Message, len(list))
	for i, m := range list {
		history[len(list)-1-i] = sidechannel.Message{Origin: sidechannel.Origin(m.Origin), Content: m.Content}
	}
	return history, nil
}

// AnonymousPublisher posts a shared private idea to the group as the facilitator.
type AnonymousPublisher struct {
	messages *MessageLog
}

func NewAnonymousPublisher(messages *MessageLog) *AnonymousPublisher {
	return &AnonymousPublisher{messages: messages}
}

func (a *AnonymousPublisher) PublishAnonymous(ctx context.Context, sessionId uuid.UUID, content string) (uuid.UUID, error) {
	msg := &entity.Message{
		SessionId:   sessionId,
		Content:     content,
		Speaker:     persona.Facilitator.Speaker(),
		IsAnonymous: true,
	}
	// The coordinator queues extraction itself.
	if err := a.messages.Append(ctx, msg, false); err != nil {
		return uuid.Nil, err
	}
	return msg.Id, nil
}
