package models

import "github.com/google/uuid"

// Dashboard lives either directly in a space or inside one of its folders.
type Dashboard struct {
	Base
	Name     string     `gorm:"not null" json:"name"`
	OwnerID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	SpaceID  *uuid.UUID `gorm:"type:uuid;index" json:"space_id,omitempty"`
	FolderID *uuid.UUID `gorm:"type:uuid;index" json:"folder_id,omitempty"`

	Owner  *User   `gorm:"foreignKey:OwnerID" json:"-"`
	Space  *Space  `gorm:"foreignKey:SpaceID" json:"-"`
	Folder *Folder `gorm:"foreignKey:FolderID" json:"-"`
}

func (Dashboard) TableName() string {
	return "dashboards"
}
