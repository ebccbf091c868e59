package dto

import "github.com/taskloop/taskloop/internal/api/validation"

type CreateSpaceRequest struct {
	Name   string `json:"name"`
	Shared bool   `json:"shared"`
}

func (r CreateSpaceRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type CreateFolderRequest struct {
	Name    string `json:"name"`
	SpaceID string `json:"space_id"`
}

func (r CreateFolderRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.SpaceID == "" {
		errors["space_id"] = "Space is required"
	} else if !validation.IsValidUUID(r.SpaceID) {
		errors["space_id"] = "Space id is invalid"
	}
	return errors
}

type CreateDashboardRequest struct {
	Name     string `json:"name"`
	SpaceID  string `json:"space_id,omitempty"`
	FolderID string `json:"folder_id,omitempty"`
}

func (r CreateDashboardRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	return errors
}

type CreateTaskRequest struct {
	DashboardID string `json:"dashboard_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id,omitempty"`
}

func (r CreateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.DashboardID == "" {
		errors["dashboard_id"] = "Dashboard is required"
	}
	return errors
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

type MembershipRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r MembershipRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.UserID == "" {
		errors["user_id"] = "User is required"
	} else if !validation.IsValidUUID(r.UserID) {
		errors["user_id"] = "User id is invalid"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	}
	return errors
}
