package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/api/middleware"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db       *database.Runner
	resolver *access.Resolver
}

func NewDashboardHandler(db *database.Runner, resolver *access.Resolver) *DashboardHandler {
	return &DashboardHandler{db: db, resolver: resolver}
}

// Create places a dashboard in a folder or directly in a space; any named
// parent must already be accessible to the caller.
func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	dash := models.Dashboard{
		Name:    req.Name,
		OwnerID: middleware.GetUserID(r.Context()),
	}

	if req.FolderID != "" {
		folderID, err := uuid.Parse(req.FolderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid folder id"})
			return
		}
		if !requireAccess(w, r, h.resolver, folderID, access.KindFolder) {
			return
		}
		dash.FolderID = &folderID
	} else if req.SpaceID != "" {
		spaceID, err := uuid.Parse(req.SpaceID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid space id"})
			return
		}
		if !requireAccess(w, r, h.resolver, spaceID, access.KindSpace) {
			return
		}
		dash.SpaceID = &spaceID
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Create(&dash).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create dashboard"})
		return
	}

	writeJSON(w, http.StatusCreated, dash)
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindDashboard) {
		return
	}

	var dash models.Dashboard
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.First(&dash, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Dashboard not found"})
		return
	}

	writeJSON(w, http.StatusOK, dash)
}

func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindDashboard) {
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Delete(&models.Dashboard{}, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete dashboard"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Dashboard deleted"})
}

func (h *DashboardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindDashboard) {
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

	if err := h.resolver.Grant(r.Context(), memberID, id, access.KindDashboard, req.Role); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to add member"})
		return
	}

	writeJSON(w, http.StatusCreated, dto.SuccessResponse{Message: "Member added"})
}
