package automation

import (
	"context"
	"time"

	agentsrepo "crm_dashboard_backend/internal/agents/repository"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/platform/logger"
)

// AgentPool is the slice of the agents module auto-assignment needs.
type AgentPool interface {
	ActiveAgents(ctx context.Context, tenantID string) ([]agentsrepo.Agent, error)
	MarkAssigned(ctx context.Context, tenantID, agentID string, at time.Time) error
}

// AutoAssigner picks the least busy active agent for unassigned tasks when
// the tenant turned auto-assignment on.
type AutoAssigner struct {
	settings *SettingsRepository
	agents   AgentPool
	tasks    *repository.Repository
	log      *logger.Logger
	now      func() time.Time
}

func NewAutoAssigner(settings *SettingsRepository, agents AgentPool, tasks *repository.Repository, log *logger.Logger) *AutoAssigner {
	if log == nil {
		log = logger.Discard()
	}
	return &AutoAssigner{settings: settings, agents: agents, tasks: tasks, log: log, now: time.Now}
}

// PickAgent returns "" when auto-assignment is off or nobody is active.
// The chosen agent's lastAssigned is bumped so the next tie goes elsewhere.
func (a *AutoAssigner) PickAgent(ctx context.Context, tenantID string) (string, error) {
	settings, err := a.settings.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !settings.AutoAssign {
		return "", nil
	}

	agents, err := a.agents.ActiveAgents(ctx, tenantID)
	if err != nil {
		return "", err
	}
	candidates := make([]Candidate, 0, len(agents))
	for _, ag := range agents {
		candidates = append(candidates, Candidate{ID: ag.ID, LastAssigned: ag.LastAssigned})
	}
	tasks, err := a.tasks.List(ctx, tenantID)
	if err != nil {
		return "", err
	}

	id, ok := SelectAgent(candidates, tasks)
	if !ok {
		return "", nil
	}
	if err := a.agents.MarkAssigned(ctx, tenantID, id, a.now().UTC()); err != nil {
		// Selection stays valid; only the tie-break hint is stale.
		a.log.WithTenant(tenantID).Warn("mark agent assigned failed", "agentId", id, "error", err)
	}
	return id, nil
}
