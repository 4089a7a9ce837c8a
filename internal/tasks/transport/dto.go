package transport

import (
	"time"

	"crm_dashboard_backend/internal/tasks/domain"
)

type CreateTaskRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	AgentID     string    `json:"agentId,omitempty" validate:"omitempty,max=128"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Priority    string    `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	AgentID     *string    `json:"agentId,omitempty" validate:"omitempty,max=128"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type ListTasksRequest struct {
	Status  string `form:"status" validate:"omitempty,oneof=pending in_progress completed"`
	AgentID string `form:"agentId" validate:"omitempty,max=128"`
}

type TaskResponse struct {
	domain.Task
	// AutoAssigned is set when the agent was chosen by the least-busy rule.
	AutoAssigned bool `json:"autoAssigned,omitempty"`
}

type TaskListResponse struct {
	Items []domain.Task `json:"items"`
	Total int           `json:"total"`
}
