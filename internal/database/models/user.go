package models

type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	// Nil for accounts created through an identity provider; password login
	// is rejected for those.
	PasswordHash *string `json:"-"`

	Sessions       []Session       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PasswordResets []PasswordReset `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
