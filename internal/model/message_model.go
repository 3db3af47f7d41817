package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only. Seq is the authoritative order inside a session.
type Message struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID  `gorm:"type:uuid;not null;index:idx_message_session_seq"`
	Seq         int64      `gorm:"type:bigserial;autoIncrement;not null;index:idx_message_session_seq"`
	Content     string     `gorm:"type:text;not null"`
	Speaker     string     `gorm:"type:varchar(20);not null"`
	AuthorId    *uuid.UUID `gorm:"type:uuid"`
	AuthorName  *string    `gorm:"type:varchar(255)"`
	IsAnonymous bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"not null"`

	Session Session `gorm:"foreignKey:SessionId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Message) TableName() string {
	return "messages"
}
