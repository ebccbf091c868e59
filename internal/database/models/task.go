package models

import "github.com/google/uuid"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task carries no access data of its own; visibility follows its dashboard.
type Task struct {
	Base
	DashboardID uuid.UUID  `gorm:"type:uuid;not null;index" json:"dashboard_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"default:'todo'" json:"status"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	Position    int        `gorm:"default:0" json:"position"`

	Dashboard *Dashboard `gorm:"foreignKey:DashboardID" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}
