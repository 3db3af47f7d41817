package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySlug struct {
	Slug string
}

func (s BySlug) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug = ?", s.Slug)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type BySpeaker struct {
	Speaker string
}

func (s BySpeaker) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("speaker = ?", s.Speaker)
}

// Limit caps the number of rows.
type Limit struct {
	N int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.N)
}
