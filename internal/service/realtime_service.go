package service

import (
	"context"
	"encoding/json"
	"fmt"

	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/pkg/events"
	pktNats "mindstorm-be/pkg/nats"

	"github.com/google/uuid"
)

const realtimeModule = "RealtimeService"

// IEventPublisher is the write side of the change-notification bus.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IEventSubscriber is the read side of the change-notification bus.
type IEventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// RoomDelivery pushes a frame to every client following a session. Implemented by the websocket hub.
type RoomDelivery interface {
	BroadcastToSession(sessionId uuid.UUID, frame []byte)
}

type IRealtimeService interface {
	INotifier
	// Start consumes the bus and forwards changes to the websocket rooms.
	Start(ctx context.Context) error
}

type realtimeService struct {
	publisher  IEventPublisher
	subscriber IEventSubscriber
	delivery   RoomDelivery
	logger     logger.ILogger
}

// NewRealtimeService builds the notifier. publisher and subscriber may be nil, in which
// case changes go straight to the local hub.
func NewRealtimeService(publisher IEventPublisher, subscriber IEventSubscriber, delivery RoomDelivery, log logger.ILogger) IRealtimeService {
	return &realtimeService{
		publisher:  publisher,
		subscriber: subscriber,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *realtimeService) Notify(ctx context.Context, sessionId uuid.UUID, kind string, data interface{}) {
	event := events.NewSessionEvent(sessionId, kind, data)

	if s.publisher != nil && s.subscriber != nil {
		err := s.publisher.Publish(ctx, event)
		if err == nil {
			return
		}
		s.logger.Warn(realtimeModule, "Bus publish failed, delivering locally", map[string]interface{}{"session_id": sessionId, "type": kind, "error": err.Error()})
	}

	if err := s.deliver(sessionId, kind, data); err != nil {
		s.logger.Error(realtimeModule, "Failed to deliver change", map[string]interface{}{"session_id": sessionId, "type": kind, "error": err.Error()})
	}
}

func (s *realtimeService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn(realtimeModule, "No event bus, realtime changes stay on this instance", nil)
		return nil
	}
	if err := s.subscriber.Subscribe(ctx, "session.>", "ws-fanout", s.handleEvent); err != nil {
		return fmt.Errorf("subscribe to session events: %w", err)
	}
	s.logger.Info(realtimeModule, "Realtime fan-out started, listening to session.>", nil)
	return nil
}

func (s *realtimeService) handleEvent(ctx context.Context, event events.Event) error {
	sessionId, kind, ok := events.SessionOf(event)
	if !ok {
		s.logger.Warn(realtimeModule, "Dropping event without session", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	return s.deliver(sessionId, kind, event.Payload()["data"])
}

func (s *realtimeService) deliver(sessionId uuid.UUID, kind string, data interface{}) error {
	if s.delivery == nil {
		return nil
	}
	frame, err := json.Marshal(map[string]interface{}{
		"type": kind,
		"data": data,
	})
	if err != nil {
		return err
	}
	s.delivery.BroadcastToSession(sessionId, frame)
	return nil
}
