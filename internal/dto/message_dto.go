package dto

import (
	"time"

	"github.com/google/uuid"
)

type PostMessageRequest struct {
	Content   string `json:"content" validate:"required,max=4000"`
	Anonymous bool   `json:"anonymous"`
}

// MessageResponse omits the author fields of anonymous messages.
type MessageResponse struct {
	Id          uuid.UUID  `json:"id"`
	SessionId   uuid.UUID  `json:"session_id"`
	Content     string     `json:"content"`
	Speaker     string     `json:"speaker"`
	AuthorId    *uuid.UUID `json:"author_id,omitempty"`
	AuthorName  *string    `json:"author_name,omitempty"`
	IsAnonymous bool       `json:"is_anonymous"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PostMessageResponse struct {
	Message MessageResponse  `json:"message"`
	Reply   *MessageResponse `json:"reply"`
	Warning *string          `json:"warning,omitempty"`
}
