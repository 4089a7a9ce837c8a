// Package events defines the task lifecycle events exchanged between the
// tasks, automation and notification modules.
package events

import (
	"time"

	"crm_dashboard_backend/platform/events"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// TaskDueSoon is published by the status sweep when an open task ends within
// the due-soon window. It is published on every sweep that sees the task;
// subscribers must tolerate repeats.
type TaskDueSoon struct {
	BaseEvent
	TenantID string    `json:"tenantId"`
	TaskID   string    `json:"taskId"`
	AgentID  string    `json:"agentId,omitempty"`
	Title    string    `json:"title"`
	EndDate  time.Time `json:"endDate"`
	// FirstNotice is true when no due-soon notification existed before this
	// sweep.
	FirstNotice bool `json:"firstNotice"`
}

func (e TaskDueSoon) EventName() string { return "tasks.task.due_soon" }
func (e TaskDueSoon) Tenant() string { return e.TenantID }

// TaskAutoAssigned is published when a new task is given to the least busy
// agent.
type TaskAutoAssigned struct {
	BaseEvent
	TenantID  string    `json:"tenantId"`
	TaskID    string    `json:"taskId"`
	AgentID   string    `json:"agentId"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

func (e TaskAutoAssigned) EventName() string { return "tasks.task.auto_assigned" }
func (e TaskAutoAssigned) Tenant() string { return e.TenantID }

// TasksArchived is published by the cleanup sweep with the ids it moved to
// the backup collection.
type TasksArchived struct {
	BaseEvent
	TenantID string   `json:"tenantId"`
	TaskIDs  []string `json:"taskIds"`
}

func (e TasksArchived) EventName() string { return "tasks.archived" }
func (e TasksArchived) Tenant() string { return e.TenantID }

var (
	_ events.TenantScoped = TaskDueSoon{}
	_ events.TenantScoped = TaskAutoAssigned{}
	_ events.TenantScoped = TasksArchived{}
)
