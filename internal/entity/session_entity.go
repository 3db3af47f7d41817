package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

type Session struct {
	Id        uuid.UUID
	Title     string
	Goal      *string
	Slug      string
	Status    string
	CreatorId uuid.UUID
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// GoalText returns the goal or an empty string.
func (s *Session) GoalText() string {
	if s.Goal == nil {
		return ""
	}
	return *s.Goal
}

type Participant struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	UserId      uuid.UUID
	DisplayName string
	JoinedAt    time.Time
}
