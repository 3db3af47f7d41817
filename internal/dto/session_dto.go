package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string  `json:"title" validate:"required,max=200"`
	Goal  *string `json:"goal" validate:"omitempty,max=1000"`
}

type CreateSessionResponse struct {
	Id   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
}

type SessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Goal      *string    `json:"goal"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	CreatorId uuid.UUID  `json:"creator_id"`
	IsCreator bool       `json:"is_creator"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type ParticipantResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

type EndSessionResponse struct {
	Session SessionResponse  `json:"session"`
	Summary *SummaryResponse `json:"summary"`
	// Warning is set when a non-essential step failed; the session is ended regardless.
	Warning *string `json:"warning,omitempty"`
}
