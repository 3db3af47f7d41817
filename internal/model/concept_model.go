package model

import (
	"time"

	"github.com/google/uuid"
)

type ConceptNode struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Label           string     `gorm:"type:varchar(255);not null"`
	X               float64    `gorm:"not null;default:0"`
	Y               float64    `gorm:"not null;default:0"`
	Persona         *string    `gorm:"type:varchar(20)"`
	SourceMessageId *uuid.UUID `gorm:"type:uuid;index"`
	IsCancelled     bool       `gorm:"not null;default:false"`
	Highlight       *string    `gorm:"type:varchar(32)"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`

	Session Session `gorm:"foreignKey:SessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ConceptNode) TableName() string {
	return "concept_nodes"
}

// ConceptEdge is directed. Parallel edges between the same pair are allowed.
type ConceptEdge struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	SourceId  uuid.UUID `gorm:"type:uuid;not null;index"`
	TargetId  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Source ConceptNode `gorm:"foreignKey:SourceId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Target ConceptNode `gorm:"foreignKey:TargetId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ConceptEdge) TableName() string {
	return "concept_edges"
}
