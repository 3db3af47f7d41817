package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/events"

	"github.com/google/uuid"
)

// INotifier pushes a session change to everyone connected to the session.
type INotifier interface {
	Notify(ctx context.Context, sessionId uuid.UUID, kind string, data interface{})
}

// IExtractionQueue schedules concept extraction for an appended message.
type IExtractionQueue interface {
	Enqueue(ctx context.Context, src conceptmap.Source) error
}

// MessageLog is the only writer of the shared transcript. Appends within a session are
// serialized so creation timestamps follow seq order.
type MessageLog struct {
	uowFactory unitofwork.RepositoryFactory
	notifier   INotifier
	queue      IExtractionQueue
	logger     logger.ILogger

	locks sync.Map

	hooksMu sync.RWMutex
	hooks   []func(context.Context, *entity.Message)
}

func NewMessageLog(uowFactory unitofwork.RepositoryFactory, notifier INotifier, queue IExtractionQueue, log logger.ILogger) *MessageLog {
	return &MessageLog{
		uowFactory: uowFactory,
		notifier:   notifier,
		queue:      queue,
		logger:     log,
	}
}

// OnAppend registers fn to run after every successful append. Hooks run outside the
// session lock and may append themselves.
func (l *MessageLog) OnAppend(fn func(context.Context, *entity.Message)) {
	l.hooksMu.Lock()
	l.hooks = append(l.hooks, fn)
	l.hooksMu.Unlock()
}

func (l *MessageLog) lock(sessionId uuid.UUID) *sync.Mutex {
	m, _ := l.locks.LoadOrStore(sessionId, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Append persists msg, broadcasts it and, when extract is set, queues concept extraction.
func (l *MessageLog) Append(ctx context.Context, msg *entity.Message, extract bool) error {
	if err := l.write(ctx, msg, extract); err != nil {
		return err
	}

	l.hooksMu.RLock()
	hooks := append([]func(context.Context, *entity.Message){}, l.hooks...)
	l.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, msg)
	}
	return nil
}

func (l *MessageLog) write(ctx context.Context, msg *entity.Message, extract bool) error {
	mu := l.lock(msg.SessionId)
	mu.Lock()
	defer mu.Unlock()

	uow := l.uowFactory.NewUnitOfWork(ctx)

	last, err := uow.MessageRepository().FindOne(ctx,
		specification.BySessionID{SessionID: msg.SessionId},
		specification.OrderBy{Field: "seq", Desc: true},
	)
	if err != nil {
		return fmt.Errorf("read last message: %w", err)
	}

	now := time.Now().UTC()
	if last != nil && !now.After(last.CreatedAt) {
		now = last.CreatedAt.Add(time.Microsecond)
	}
	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	msg.CreatedAt = now

	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if l.notifier != nil {
		l.notifier.Notify(ctx, msg.SessionId, events.KindMessageCreated, toMessageResponse(msg))
	}

	if extract && l.queue != nil {
		src := conceptmap.Source{SessionID: msg.SessionId, MessageID: msg.Id, Speaker: msg.Speaker, Content: msg.Content}
		if err := l.queue.Enqueue(ctx, src); err != nil {
			l.logger.Error("MessageLog", "Failed to queue concept extraction", map[string]interface{}{"message_id": msg.Id, "error": err.Error()})
		}
	}
	return nil
}

// Recent returns up to n latest messages of a session, oldest first.
func (l *MessageLog) Recent(ctx context.Context, sessionId uuid.UUID, n int) ([]*entity.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	list, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Limit{N: n},
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	res := &dto.MessageResponse{
		Id:          m.Id,
		SessionId:   m.SessionId,
		Content:     m.Content,
		Speaker:     string(m.Speaker),
		IsAnonymous: m.IsAnonymous,
		CreatedAt:   m.CreatedAt,
	}
	if !m.IsAnonymous {
		res.AuthorId = m.AuthorId
		res.AuthorName = m.AuthorName
	}
	return res
}
