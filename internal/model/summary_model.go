package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionSummary struct {
	Id              uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId       uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Summary         string                      `gorm:"type:text;not null"`
	Insights        datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Ideas           datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	ActionItems     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	SnapshotURL     *string                     `gorm:"type:text"`
	IllustrationURL *string                     `gorm:"type:text"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`

	Session Session `gorm:"foreignKey:SessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (SessionSummary) TableName() string {
	return "session_summaries"
}
