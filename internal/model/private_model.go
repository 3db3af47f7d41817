package model

import (
	"time"

	"github.com/google/uuid"
)

type PrivateMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_private_owner"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_private_owner"`
	Content   string    `gorm:"type:text;not null"`
	Origin    string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Session Session `gorm:"foreignKey:SessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (PrivateMessage) TableName() string {
	return "private_messages"
}

type PrivateThread struct {
	SessionId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId      uuid.UUID `gorm:"type:uuid;primaryKey"`
	State       string    `gorm:"type:varchar(32);not null;default:'idle'"`
	PendingIdea *string   `gorm:"type:text"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (PrivateThread) TableName() string {
	return "private_threads"
}
