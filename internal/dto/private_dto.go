package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendPrivateMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type PrivateMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

type PrivateThreadResponse struct {
	State    string                    `json:"state"`
	Messages []*PrivateMessageResponse `json:"messages"`
}

type SendPrivateMessageResponse struct {
	Reply string `json:"reply"`
	State string `json:"state"`
	// SharedMessageId is set when the idea was published to the group.
	SharedMessageId *uuid.UUID `json:"shared_message_id,omitempty"`
}
