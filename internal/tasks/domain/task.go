// Package domain holds the task record shared by the tasks module and the
// automation sweeps.
package domain

import (
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Stored field names written with merge updates.
const (
	FieldStatus      = "status"
	FieldAgentID     = "agentId"
	FieldUpdatedAt   = "updatedAt"
	FieldCompletedAt = "completedAt"
)

// PIIFields are encrypted at rest.
var PIIFields = fieldcipher.NewFieldSet("title", "description")

// Task is a unit of work assigned to an agent.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AgentID     string     `json:"agentId,omitempty"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	DeletedBy   string     `json:"deletedBy,omitempty"`
}

// ShouldStart reports whether a pending task has reached its start date.
func (t Task) ShouldStart(now time.Time) bool {
	return t.Status == StatusPending && !t.StartDate.IsZero() && !now.Before(t.StartDate)
}

// DueWithin reports whether an open task ends within window of now. Tasks
// that are already past their end date are not due soon.
func (t Task) DueWithin(now time.Time, window time.Duration) bool {
	if t.Status == StatusCompleted || t.EndDate.IsZero() {
		return false
	}
	return !t.EndDate.Before(now) && !t.EndDate.After(now.Add(window))
}

// Expired reports whether a completed task ended more than retention ago.
func (t Task) Expired(now time.Time, retention time.Duration) bool {
	return t.Status == StatusCompleted && !t.EndDate.IsZero() && t.EndDate.Before(now.Add(-retention))
}
