package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is one outstanding OTP. Several may exist per user; each row
// is independently valid until it expires or UsedAt is set. The unused→used
// transition happens exactly once and is terminal.
type PasswordReset struct {
	Base
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Code      string     `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}

func (p *PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && p.ExpiresAt.After(now)
}
