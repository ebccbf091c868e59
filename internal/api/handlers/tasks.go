package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db       *database.Runner
	resolver *access.Resolver
}

func NewTaskHandler(db *database.Runner, resolver *access.Resolver) *TaskHandler {
	return &TaskHandler{db: db, resolver: resolver}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	dashboardID, err := uuid.Parse(req.DashboardID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid dashboard id"})
		return
	}
	if !requireAccess(w, r, h.resolver, dashboardID, access.KindDashboard) {
		return
	}

	task := models.Task{
		DashboardID: dashboardID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
	}
	if req.AssigneeID != "" {
		assigneeID, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignee id"})
			return
		}
		task.AssigneeID = &assigneeID
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Create(&task).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// List returns tasks on one dashboard, paginated.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	dashboardID, err := uuid.Parse(r.URL.Query().Get("dashboard_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "dashboard_id is required"})
		return
	}
	if !requireAccess(w, r, h.resolver, dashboardID, access.KindDashboard) {
		return
	}

	params := dto.PaginationParams{}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	params.Normalize()

	var (
		tasks []models.Task
		total int64
	)
	err = h.db.Do(r.Context(), func(db *gorm.DB) error {
		q := db.Model(&models.Task{}).Where("dashboard_id = ?", dashboardID)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("position ASC, created_at ASC").
			Offset(params.Offset()).
			Limit(params.PerPage).
			Find(&tasks).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list tasks"})
		return
	}

	totalPages := int((total + int64(params.PerPage) - 1) / int64(params.PerPage))
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       tasks,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
	})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindTask) {
		return
	}

	var task models.Task
	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.First(&task, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindTask) {
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		switch *req.Status {
		case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
			updates["status"] = *req.Status
		default:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
			return
		}
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignee id"})
			return
		}
		updates["assignee_id"] = assigneeID
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if len(updates) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Nothing to update"})
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Task updated"})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !requireAccess(w, r, h.resolver, id, access.KindTask) {
		return
	}

	if err := h.db.Do(r.Context(), func(db *gorm.DB) error {
		return db.Delete(&models.Task{}, "id = ?", id).Error
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete task"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Task deleted"})
}
