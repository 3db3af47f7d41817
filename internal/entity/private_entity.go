package entity

import (
	"time"

	"github.com/google/uuid"
)

type PrivateMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	UserId    uuid.UUID
	Content   string
	Origin    string
	CreatedAt time.Time
}

type PrivateThread struct {
	SessionId   uuid.UUID
	UserId      uuid.UUID
	State       string
	PendingIdea *string
	UpdatedAt   time.Time
}
