package transport

import (
	"time"

	"crm_dashboard_backend/internal/agents/repository"
	"crm_dashboard_backend/internal/allocation"
)

type CreateAgentRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateAgentRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// AssignRangeRequest takes free-text lead ids such as "Lead 001" or "#100".
type AssignRangeRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type AgentResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Status       string            `json:"status"`
	Range        *allocation.Range `json:"range,omitempty"`
	LastAssigned *time.Time        `json:"lastAssigned,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type AgentListResponse struct {
	Items []AgentResponse `json:"items"`
	Total int             `json:"total"`
}

// AssignRangeResponse carries the stored range, the part of it that
// currently maps onto leads, and any overlaps with other active agents.
type AssignRangeResponse struct {
	Agent     AgentResponse        `json:"agent"`
	Effective *allocation.Range    `json:"effective,omitempty"`
	Overlaps  []allocation.Overlap `json:"overlaps,omitempty"`
}

type StatsResponse struct {
	allocation.Stats
	ActiveAgents int                  `json:"activeAgents"`
	Overlaps     []allocation.Overlap `json:"overlaps,omitempty"`
}

func ToResponse(a repository.Agent) AgentResponse {
	return AgentResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Status:       a.Status,
		Range:        a.Range(),
		LastAssigned: a.LastAssigned,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
