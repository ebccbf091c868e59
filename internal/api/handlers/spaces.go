package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/api/middleware"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

type SpaceHandler struct {
	db       *database.Runner
	resolver *access.Resolver
}

func NewSpaceHandler(db *database.Runner, resolver *access.Resolver) *SpaceHandler {
	return &SpaceHandler{db: db, resolver: resolver}
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	space := models.Space{
		Name:    req.Name,
		OwnerID: middleware.GetUserID(r.Context()),
		Shared:  req.Shared,
	}
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Create(&space).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create space"})
		return
	}

	writeJSON(w, http.StatusCreated, space)
}

// List returns spaces the user owns or has an explicit membership on.
// Inherited access never surfaces here; it only answers point lookups.
func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var spaces []models.Space
	err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.
			Where("owner_id = ?", userID).
			Or("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.ResourceMembership{}).
				Select("resource_id").
				Where("resource_kind = ? AND user_id = ?", access.KindSpace, userID)).
			Order("created_at ASC").
			Find(&spaces).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list spaces"})
		return
	}

	writeJSON(w, http.StatusOK, spaces)
}

func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.require(w, r, id) {
		return
	}

	var space models.Space
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.First(&space, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Space not found"})
		return
	}

	writeJSON(w, http.StatusOK, space)
}

func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.require(w, r, id) {
		return
	}

	var req dto.CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Model(&models.Space{}).Where("id = ?", id).
			Updates(map[string]any{"name": req.Name, "shared": req.Shared}).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update space"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Space updated"})
}

func (h *SpaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.require(w, r, id) {
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Delete(&models.Space{}, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete space"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Space deleted"})
}

func (h *SpaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.require(w, r, id) {
		return
	}

	var req dto.MembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	memberID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	if err := h.resolver.Grant(r.Context(), memberID, id, access.KindSpace, req.Role); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to add member"})
		return
	}

	writeJSON(w, http.StatusCreated, dto.SuccessResponse{Message: "Member added"})
}

func (h *SpaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.require(w, r, id) {
		return
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	if err := h.resolver.Revoke(r.Context(), memberID, id, access.KindSpace); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to remove member"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}

func (h *SpaceHandler) require(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	return requireAccess(w, r, h.resolver, id, access.KindSpace)
}

// pathID parses the {id} route parameter.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// requireAccess runs the permission check every protected resource operation
// goes through: 404 when the resource is missing, 403 when it exists but the
// user has no path to it.
func requireAccess(w http.ResponseWriter, r *http.Request, resolver *access.Resolver, id uuid.UUID, kind access.Kind) bool {
	err := resolver.Require(r.Context(), middleware.GetUserID(r.Context()), id, kind)
	switch {
	case err == nil:
		return true
	case errors.Is(err, access.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
	case errors.Is(err, access.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Access denied"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Access check failed"})
	}
	return false
}
