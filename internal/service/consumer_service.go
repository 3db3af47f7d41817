package service

import (
	"context"
	"encoding/json"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/specification"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/events"
	"mindstorm-be/pkg/persona"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	consumerModule        = "ConsumerService"
	maxExtractionAttempts = 3
	extractionTimeout     = 90 * time.Second
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// IConceptBridge turns a message into graph writes.
type IConceptBridge interface {
	Extract(ctx context.Context, src conceptmap.Source) (*conceptmap.Result, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	retries    *ExtractionPublisher
	uowFactory unitofwork.RepositoryFactory
	bridge     IConceptBridge
	notifier   INotifier
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	retries *ExtractionPublisher,
	uowFactory unitofwork.RepositoryFactory,
	bridge IConceptBridge,
	notifier INotifier,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		retries:    retries,
		uowFactory: uowFactory,
		bridge:     bridge,
		notifier:   notifier,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var task dto.ExtractConceptsMessage
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal extraction task", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	details := map[string]interface{}{"session_id": task.SessionId, "message_id": task.MessageId, "attempt": task.Attempt}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: task.SessionId})
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to load session", withError(details, err))
		cs.retry(msg, task)
		return
	}
	if session == nil {
		cs.logger.Warn(consumerModule, "Session is gone, dropping extraction", details)
		msg.Ack()
		return
	}

	speaker, err := persona.ParseSpeaker(task.Speaker)
	if err != nil {
		cs.logger.Error(consumerModule, "Extraction task has an invalid speaker", withError(details, err))
		msg.Ack()
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	res, err := cs.bridge.Extract(runCtx, conceptmap.Source{
		SessionID: task.SessionId,
		MessageID: task.MessageId,
		Speaker:   speaker,
		Content:   task.Content,
	})
	if err != nil && !res.Written() {
		cs.logger.Warn(consumerModule, "Concept extraction failed", withError(details, err))
		cs.retry(msg, task)
		return
	}
	if err != nil {
		cs.logger.Warn(consumerModule, "Concept extraction partially failed", withError(details, err))
	}

	nodes := 0
	if res != nil {
		nodes = len(res.Nodes)
	}
	cs.notifier.Notify(ctx, task.SessionId, events.KindConceptExtracted, map[string]interface{}{
		"message_id": task.MessageId,
		"nodes":      nodes,
		"edges":      edgesOf(res),
	})
	cs.logger.Info(consumerModule, "Concepts extracted", map[string]interface{}{"message_id": task.MessageId, "nodes": nodes})
	msg.Ack()
}

// retry requeues the task with a bumped attempt counter until the attempts run out.
func (cs *consumerService) retry(msg *message.Message, task dto.ExtractConceptsMessage) {
	defer msg.Ack()

	if task.Attempt >= maxExtractionAttempts {
		cs.logger.Error(consumerModule, "Giving up on concept extraction", map[string]interface{}{"message_id": task.MessageId, "attempts": task.Attempt})
		return
	}
	task.Attempt++
	if err := cs.retries.publish(task); err != nil {
		cs.logger.Error(consumerModule, "Failed to requeue extraction", map[string]interface{}{"message_id": task.MessageId, "error": err.Error()})
	}
}

func edgesOf(res *conceptmap.Result) int {
	if res == nil {
		return 0
	}
	return res.Edges
}

func withError(details map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
