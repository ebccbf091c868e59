package models

import "github.com/google/uuid"

// Space is the top-level container. When Shared is set, access to the space
// flows down to the folders, dashboards and tasks it contains.
type Space struct {
	Base
	Name    string    `gorm:"not null" json:"name"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Shared  bool      `gorm:"default:false" json:"shared"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Space) TableName() string {
	return "spaces"
}
