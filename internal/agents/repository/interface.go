package repository

import (
	"context"
	"time"

	"crm_dashboard_backend/internal/allocation"
	"crm_dashboard_backend/internal/fieldcipher"
)

// Status values for agents. Agents are deactivated, never deleted.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Stored field names written with merge updates.
const (
	FieldStatus       = "status"
	FieldFrom         = "from"
	FieldTo           = "to"
	FieldLastAssigned = "lastAssigned"
	FieldUpdatedAt    = "updatedAt"
)

// PIIFields are encrypted at rest.
var PIIFields = fieldcipher.NewFieldSet("name", "email")

// Agent is a tenant-scoped user who works a range of the tenant's leads.
type Agent struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Status       string     `json:"status"`
	From         *int       `json:"from,omitempty"`
	To           *int       `json:"to,omitempty"`
	LastAssigned *time.Time `json:"lastAssigned,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Range returns the assigned range, or nil when the agent has none.
func (a Agent) Range() *allocation.Range {
	if a.From == nil || a.To == nil {
		return nil
	}
	return &allocation.Range{From: *a.From, To: *a.To}
}

// IsActive reports whether the agent can receive work.
func (a Agent) IsActive() bool {
	return a.Status != StatusInactive
}

// AgentReader provides read access to a tenant's agents.
type AgentReader interface {
	GetByID(ctx context.Context, tenantID, id string) (Agent, error)
	// List returns agents ordered by createdAt, then id.
	List(ctx context.Context, tenantID string) ([]Agent, error)
	AgentLimit(ctx context.Context, tenantID string) (int, error)
}

// AgentWriter provides write operations.
type AgentWriter interface {
	Save(ctx context.Context, tenantID string, agent Agent) error
	// UpdateFields merge-updates clear-text fields of an existing agent.
	UpdateFields(ctx context.Context, tenantID, id string, fields map[string]any) error
}

// Repository is the full agent persistence contract.
type Repository interface {
	AgentReader
	AgentWriter
}
