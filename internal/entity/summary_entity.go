package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionSummary struct {
	Id              uuid.UUID
	SessionId       uuid.UUID
	Summary         string
	Insights        []string
	Ideas           []string
	ActionItems     []string
	SnapshotURL     *string
	IllustrationURL *string
	CreatedAt       time.Time
}
