package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer credential minted on every successful
// authentication. A user may hold any number of concurrent sessions.
// Expired rows are never returned to callers; the worker sweeps them.
type Session struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "user_sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
