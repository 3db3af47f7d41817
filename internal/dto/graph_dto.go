package dto

import (
	"time"

	"github.com/google/uuid"
)

type NodeResponse struct {
	Id              uuid.UUID  `json:"id"`
	SessionId       uuid.UUID  `json:"session_id"`
	Label           string     `json:"label"`
	X               float64    `json:"x"`
	Y               float64    `json:"y"`
	Persona         *string    `json:"persona"`
	SourceMessageId *uuid.UUID `json:"source_message_id"`
	IsCancelled     bool       `json:"is_cancelled"`
	Highlight       *string    `json:"highlight"`
	CreatedAt       time.Time  `json:"created_at"`
}

type EdgeResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId uuid.UUID `json:"session_id"`
	SourceId  uuid.UUID `json:"source_id"`
	TargetId  uuid.UUID `json:"target_id"`
}

type GraphResponse struct {
	Nodes []*NodeResponse `json:"nodes"`
	Edges []*EdgeResponse `json:"edges"`
}

type CreateNodeRequest struct {
	Label     string  `json:"label" validate:"required,max=200"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Highlight *string `json:"highlight" validate:"omitempty,max=32"`
}

// UpdateNodeRequest only touches the fields that are present.
type UpdateNodeRequest struct {
	Id          uuid.UUID
	Label       *string  `json:"label" validate:"omitempty,min=1,max=200"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	IsCancelled *bool    `json:"is_cancelled"`
	Highlight   *string  `json:"highlight" validate:"omitempty,max=32"`
}

type CreateEdgeRequest struct {
	SourceId uuid.UUID `json:"source_id" validate:"required"`
	TargetId uuid.UUID `json:"target_id" validate:"required,nefield=SourceId"`
}
