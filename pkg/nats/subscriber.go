package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"mindstorm-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumes []jetstream.ConsumeContext
}

// NewSubscriber creates a new NATS subscriber on its own connection.
func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a handler for a subject pattern (without the "events." prefix).
// It uses a durable consumer so nothing published while this instance is down is lost.
func (s *Subscriber) Subscribe(ctx context.Context, subject string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subjectPrefix + subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			// Malformed payloads never become valid; drop them.
			log.Printf("Error unmarshalling event data on %s: %v", msg.Subject(), err)
			msg.Term()
			return
		}

		event := events.BaseEvent{
			Type:       strings.TrimPrefix(msg.Subject(), subjectPrefix),
			Data:       payload,
			OccurredAt: time.Now(),
		}
		if raw, ok := payload["occurred_at"].(string); ok {
			if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				event.OccurredAt = at
			}
		}

		if err := handler(ctx, event); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.consumes = append(s.consumes, cc)

	log.Printf("Subscribed to %s with durable %s", subject, durableName)
	return nil
}

// Close stops all consumers and closes the connection.
func (s *Subscriber) Close() {
	for _, cc := range s.consumes {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
