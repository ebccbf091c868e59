package models

import "github.com/google/uuid"

// Role levels are ordered by capability. Access checks are currently binary;
// the column is kept so per-action authorization can be layered on later.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// RoleRank orders roles by capability. Unknown roles rank lowest.
func RoleRank(role string) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// ResourceMembership is an explicit grant of a user over one resource.
// Ownership of the resource implies the owner role without a row here.
type ResourceMembership struct {
	ResourceKind string    `gorm:"primaryKey" json:"resource_kind"`
	ResourceID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"resource_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role         string    `gorm:"not null;default:'viewer'" json:"role"`
}

func (ResourceMembership) TableName() string {
	return "resource_memberships"
}
