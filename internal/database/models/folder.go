package models

import "github.com/google/uuid"

type Folder struct {
	Base
	Name    string    `gorm:"not null" json:"name"`
	SpaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"space_id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	Space *Space `gorm:"foreignKey:SpaceID" json:"-"`
}

func (Folder) TableName() string {
	return "folders"
}
