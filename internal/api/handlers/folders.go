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

type FolderHandler struct {
	db       *database.Runner
	resolver *access.Resolver
}

func NewFolderHandler(db *database.Runner, resolver *access.Resolver) *FolderHandler {
	return &FolderHandler{db: db, resolver: resolver}
}

// Create places a folder in a space the caller can already act on.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	spaceID, err := uuid.Parse(req.SpaceID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid space id"})
		return
	}
	if !requireAccess(w, r, h.resolver, spaceID, access.KindSpace) {
		return
	}

	folder := models.Folder{
		Name:    req.Name,
		SpaceID: spaceID,
		OwnerID: middleware.GetUserID(r.Context()),
	}
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Create(&folder).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create folder"})
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindFolder) {
		return
	}

	var folder models.Folder
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.First(&folder, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Folder not found"})
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindFolder) {
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Delete(&models.Folder{}, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete folder"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Folder deleted"})
}
