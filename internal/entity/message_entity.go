package entity

import (
	"time"

	"mindstorm-be/pkg/persona"

	"github.com/google/uuid"
)

type Message struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	Seq         int64
	Content     string
	Speaker     persona.Speaker
	AuthorId    *uuid.UUID
	AuthorName  *string
	IsAnonymous bool
	CreatedAt   time.Time
}

// FromPersona reports whether one of the AI personas wrote the message.
func (m *Message) FromPersona() bool {
	_, ok := m.Speaker.Persona()
	return ok
}
