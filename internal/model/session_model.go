package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Session struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string         `gorm:"type:varchar(255);not null"`
	Goal      *string        `gorm:"type:text"`
	Slug      string         `gorm:"type:varchar(16);uniqueIndex;not null"`
	Status    string         `gorm:"type:varchar(20);not null;default:'active';index"`
	CreatorId uuid.UUID      `gorm:"type:uuid;not null;index"`
	EndedAt   *time.Time
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}

type Participant struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_session_user"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_session_user"`
	DisplayName string    `gorm:"type:varchar(255);not null"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`

	Session Session `gorm:"foreignKey:SessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Participant) TableName() string {
	return "session_participants"
}

// SessionTrigger marks a threshold intervention that already fired in a session.
type SessionTrigger struct {
	SessionId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SessionTrigger) TableName() string {
	return "session_triggers"
}
