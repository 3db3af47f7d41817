package dto

import (
	"time"

	"github.com/google/uuid"
)

type SummaryResponse struct {
	Id              uuid.UUID `json:"id"`
	SessionId       uuid.UUID `json:"session_id"`
	Summary         string    `json:"summary"`
	Insights        []string  `json:"insights"`
	Ideas           []string  `json:"ideas"`
	ActionItems     []string  `json:"action_items"`
	SnapshotURL     *string   `json:"snapshot_url"`
	IllustrationURL *string   `json:"illustration_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// ExtractConceptsMessage is the task payload of the concept extraction queue.
type ExtractConceptsMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	MessageId uuid.UUID `json:"message_id"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Attempt   int       `json:"attempt"`
}
