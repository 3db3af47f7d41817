package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the subject suffix for this event (e.g., "session.<id>.message.created").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Kinds of session change. They double as the websocket frame "type".
const (
	KindMessageCreated   = "message.created"
	KindNodeCreated      = "node.created"
	KindNodeUpdated      = "node.updated"
	KindNodeDeleted      = "node.deleted"
	KindEdgeCreated      = "edge.created"
	KindEdgeDeleted      = "edge.deleted"
	KindConceptExtracted = "concept.extracted"
	KindSessionEnded     = "session.ended"
	KindSummaryCreated   = "summary.created"
)

// BaseEvent is the shape events take after crossing the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SessionEvent is a change inside one session. Everyone in the session room receives it.
type SessionEvent struct {
	SessionID  uuid.UUID
	Kind       string
	Data       interface{}
	OccurredAt time.Time
}

func NewSessionEvent(sessionID uuid.UUID, kind string, data interface{}) SessionEvent {
	return SessionEvent{SessionID: sessionID, Kind: kind, Data: data, OccurredAt: time.Now()}
}

func (e SessionEvent) EventType() string {
	return fmt.Sprintf("session.%s.%s", e.SessionID, e.Kind)
}

func (e SessionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":  e.SessionID.String(),
		"type":        e.Kind,
		"data":        e.Data,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e SessionEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SessionOf extracts the session id and kind from a payload produced by SessionEvent.
func SessionOf(e Event) (uuid.UUID, string, bool) {
	p := e.Payload()
	raw, _ := p["session_id"].(string)
	kind, _ := p["type"].(string)
	id, err := uuid.Parse(raw)
	if err != nil || kind == "" {
		return uuid.Nil, "", false
	}
	return id, kind, true
}
