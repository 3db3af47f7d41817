package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConceptNode struct {
	Id              uuid.UUID
	SessionId       uuid.UUID
	Label           string
	X               float64
	Y               float64
	Persona         *string
	SourceMessageId *uuid.UUID
	IsCancelled     bool
	Highlight       *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

type ConceptEdge struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	SourceId  uuid.UUID
	TargetId  uuid.UUID
	CreatedAt time.Time
}
