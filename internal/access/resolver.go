package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrAccessDenied = errors.New("access denied")
)

// Kind enumerates the closed set of permission-bearing resources.
type Kind string

const (
	KindSpace     Kind = "space"
	KindFolder    Kind = "folder"
	KindDashboard Kind = "dashboard"
	KindTask      Kind = "task"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSpace, KindFolder, KindDashboard, KindTask:
		return true
	}
	return false
}

// node is the uniform view the resolver needs of any resource: who owns it,
// where it hangs in the containment chain, and whether it shares access with
// its contents.
type node struct {
	ownerID    uuid.UUID
	parentKind Kind
	parentID   uuid.UUID
	hasParent  bool
	// sharesDown reports whether access to this container extends to what it
	// contains. Spaces gate this on their Shared flag; folders and dashboards
	// always pass access through to their contents.
	sharesDown bool
}

// Resolver answers whether a user may act on a resource by walking ownership,
// explicit membership, and the containment chain. Access is a monotonic OR
// across those paths.
type Resolver struct {
	db *database.Runner
}

func NewResolver(db *database.Runner) *Resolver {
	return &Resolver{db: db}
}

// HasAccess reports whether userID may act on the resource. A missing
// resource yields ErrNotFound so handlers can distinguish 404 from 403.
func (r *Resolver) HasAccess(ctx context.Context, userID, resourceID uuid.UUID, kind Kind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("unknown resource kind %q", kind)
	}

	n, err := r.lookup(ctx, kind, resourceID)
	if err != nil {
		return false, err
	}

	if n.ownerID == userID {
		return true, nil
	}

	member, err := r.hasMembership(ctx, userID, resourceID, kind)
	if err != nil {
		return false, err
	}
	if member {
		return true, nil
	}

	if !n.hasParent {
		return false, nil
	}

	parent, err := r.lookup(ctx, n.parentKind, n.parentID)
	if err != nil {
		// A dangling parent reference denies rather than 404s: the resource
		// itself exists.
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !parent.sharesDown {
		return false, nil
	}

	return r.HasAccess(ctx, userID, n.parentID, n.parentKind)
}

// Require is HasAccess folded into the error taxonomy: ErrNotFound for a
// missing resource, ErrAccessDenied for an existing-but-unauthorized one.
func (r *Resolver) Require(ctx context.Context, userID, resourceID uuid.UUID, kind Kind) error {
	ok, err := r.HasAccess(ctx, userID, resourceID, kind)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}

// Grant upserts an explicit membership row. Granting is idempotent; a second
// grant with a different role updates the role.
func (r *Resolver) Grant(ctx context.Context, userID, resourceID uuid.UUID, kind Kind, role string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown resource kind %q", kind)
	}
	if models.RoleRank(role) == 0 {
		return fmt.Errorf("unknown role %q", role)
	}
	if _, err := r.lookup(ctx, kind, resourceID); err != nil {
		return err
	}

	return r.db.Do(ctx, func(db *gorm.DB) error {
		m := models.ResourceMembership{
			ResourceKind: string(kind),
			ResourceID:   resourceID,
			UserID:       userID,
			Role:         role,
		}
		res := db.Model(&models.ResourceMembership{}).
			Where("resource_kind = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
			Update("role", role)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return db.Create(&m).Error
	})
}

// Revoke removes an explicit membership row; a no-op if none exists.
func (r *Resolver) Revoke(ctx context.Context, userID, resourceID uuid.UUID, kind Kind) error {
	return r.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("resource_kind = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
			Delete(&models.ResourceMembership{}).Error
	})
}

func (r *Resolver) hasMembership(ctx context.Context, userID, resourceID uuid.UUID, kind Kind) (bool, error) {
	var count int64
	err := r.db.Do(ctx, func(db *gorm.DB) error {
		return db.Model(&models.ResourceMembership{}).
			Where("resource_kind = ? AND resource_id = ? AND user_id = ?", kind, resourceID, userID).
			Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Resolver) lookup(ctx context.Context, kind Kind, id uuid.UUID) (*node, error) {
	var n node
	err := r.db.Do(ctx, func(db *gorm.DB) error {
		switch kind {
		case KindSpace:
			var space models.Space
			if err := db.First(&space, "id = ?", id).Error; err != nil {
				return err
			}
			n = node{ownerID: space.OwnerID, sharesDown: space.Shared}
		case KindFolder:
			var folder models.Folder
			if err := db.First(&folder, "id = ?", id).Error; err != nil {
				return err
			}
			n = node{
				ownerID:    folder.OwnerID,
				parentKind: KindSpace,
				parentID:   folder.SpaceID,
				hasParent:  true,
				sharesDown: true,
			}
		case KindDashboard:
			var dash models.Dashboard
			if err := db.First(&dash, "id = ?", id).Error; err != nil {
				return err
			}
			n = node{ownerID: dash.OwnerID, sharesDown: true}
			if dash.FolderID != nil {
				n.parentKind, n.parentID, n.hasParent = KindFolder, *dash.FolderID, true
			} else if dash.SpaceID != nil {
				n.parentKind, n.parentID, n.hasParent = KindSpace, *dash.SpaceID, true
			}
		case KindTask:
			var task models.Task
			if err := db.First(&task, "id = ?", id).Error; err != nil {
				return err
			}
			// Tasks have no owner of their own; visibility follows the dashboard.
			n = node{
				parentKind: KindDashboard,
				parentID:   task.DashboardID,
				hasParent:  true,
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
