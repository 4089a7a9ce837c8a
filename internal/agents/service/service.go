// Package service implements agent management: the roster, range
// assignment and allocation statistics.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/agents/repository"
	"crm_dashboard_backend/internal/agents/transport"
	"crm_dashboard_backend/internal/allocation"
	"crm_dashboard_backend/internal/leads"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/sanitize"
	"crm_dashboard_backend/platform/session"

	"github.com/google/uuid"
)

const msgAgentNotFound = "agent not found"

// ActivityRecorder appends audit records.
type ActivityRecorder interface {
	Log(ctx context.Context, sess session.Session, e activity.Entry)
}

type Service struct {
	repo          repository.Repository
	leads         leads.Counter
	activity      ActivityRecorder
	rejectOverlap bool
	log           *logger.Logger
	now           func() time.Time
}

func New(repo repository.Repository, counter leads.Counter, act ActivityRecorder, cfg config.AllocationConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:     repo,
		leads:    counter,
		activity: act,
		log:      log,
		now:      time.Now,
	}
	if cfg != nil {
		s.rejectOverlap = cfg.GetAllocationRejectOverlap()
	}
	return s
}

// Create adds an agent after checking the tenant's agent limit and that the
// email is not already on the roster.
func (s *Service) Create(ctx context.Context, sess session.Session, req transport.CreateAgentRequest) (transport.AgentResponse, error) {
	if !sess.IsAdmin() {
		return transport.AgentResponse{}, apperr.Forbidden("only admins can create agents")
	}
	agents, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "list agents", err)
	}
	limit, err := s.repo.AgentLimit(ctx, sess.TenantID)
	if err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "read agent limit", err)
	}
	if limit > 0 && len(agents) >= limit {
		return transport.AgentResponse{}, apperr.LimitReached("agent limit reached").WithDetails(map[string]int{
			"limit":   limit,
			"current": len(agents),
		})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if emailTaken(agents, email, "") {
		return transport.AgentResponse{}, apperr.Conflict("an agent with this email already exists")
	}

	now := s.now().UTC()
	agent := repository.Agent{
		ID:        uuid.NewString(),
		Name:      sanitize.Line(req.Name),
		Email:     email,
		Status:    repository.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, sess.TenantID, agent); err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "create agent", err)
	}
	s.log.WithContext(ctx).Info("agent created", "agentId", agent.ID)
	return transport.ToResponse(agent), nil
}

// List returns the roster for admins; agents only see themselves.
func (s *Service) List(ctx context.Context, sess session.Session) (transport.AgentListResponse, error) {
	if !sess.IsAdmin() {
		agent, err := s.Get(ctx, sess, sess.AgentID)
		if err != nil {
			return transport.AgentListResponse{}, err
		}
		return transport.AgentListResponse{Items: []transport.AgentResponse{agent}, Total: 1}, nil
	}
	agents, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.AgentListResponse{}, s.storeFailure(ctx, "list agents", err)
	}
	items := make([]transport.AgentResponse, len(agents))
	for i, a := range agents {
		items[i] = transport.ToResponse(a)
	}
	return transport.AgentListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id string) (transport.AgentResponse, error) {
	if !sess.IsAdmin() && sess.AgentID != id {
		return transport.AgentResponse{}, apperr.Forbidden("agents can only view their own profile")
	}
	agent, err := s.repo.GetByID(ctx, sess.TenantID, id)
	if err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "get agent", err)
	}
	return transport.ToResponse(agent), nil
}

// Update changes an agent's name or email.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req transport.UpdateAgentRequest) (transport.AgentResponse, error) {
	if !sess.IsAdmin() {
		return transport.AgentResponse{}, apperr.Forbidden("only admins can update agents")
	}
	agent, err := s.repo.GetByID(ctx, sess.TenantID, id)
	if err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "get agent", err)
	}

	if req.Name != nil {
		agent.Name = sanitize.Line(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != agent.Email {
			agents, err := s.repo.List(ctx, sess.TenantID)
			if err != nil {
				return transport.AgentResponse{}, s.storeFailure(ctx, "list agents", err)
			}
			if emailTaken(agents, email, id) {
				return transport.AgentResponse{}, apperr.Conflict("an agent with this email already exists")
			}
		}
		agent.Email = email
	}
	agent.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, sess.TenantID, agent); err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "update agent", err)
	}
	return transport.ToResponse(agent), nil
}

// SetStatus activates or deactivates an agent. Agents are never deleted.
func (s *Service) SetStatus(ctx context.Context, sess session.Session, id string, req transport.SetStatusRequest) (transport.AgentResponse, error) {
	if !sess.IsAdmin() {
		return transport.AgentResponse{}, apperr.Forbidden("only admins can change agent status")
	}
	if req.Status != repository.StatusActive && req.Status != repository.StatusInactive {
		return transport.AgentResponse{}, apperr.Validation("status must be active or inactive")
	}
	now := s.now().UTC()
	err := s.repo.UpdateFields(ctx, sess.TenantID, id, map[string]any{
		repository.FieldStatus:    req.Status,
		repository.FieldUpdatedAt: now,
	})
	if err != nil {
		return transport.AgentResponse{}, s.storeFailure(ctx, "set agent status", err)
	}
	return s.Get(ctx, sess, id)
}

// AssignRange parses free-text lead ids into a range and stores it on the
// agent. Overlaps with other active agents are rejected when the tenant is
// configured to, and reported otherwise.
func (s *Service) AssignRange(ctx context.Context, sess session.Session, id string, req transport.AssignRangeRequest) (transport.AssignRangeResponse, error) {
	if !sess.IsAdmin() {
		return transport.AssignRangeResponse{}, apperr.Forbidden("only admins can assign lead ranges")
	}
	r, err := allocation.ParseRange(req.From, req.To)
	if err != nil {
		return transport.AssignRangeResponse{}, apperr.Validation(err.Error())
	}

	agents, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.AssignRangeResponse{}, s.storeFailure(ctx, "list agents", err)
	}
	agent, ok := findAgent(agents, id)
	if !ok {
		return transport.AssignRangeResponse{}, apperr.NotFound(msgAgentNotFound)
	}
	total, err := s.leads.Count(ctx, sess.TenantID)
	if err != nil {
		return transport.AssignRangeResponse{}, s.storeFailure(ctx, "count leads", err)
	}

	effective := allocation.Clamp(r, total)
	overlaps := allocation.OverlapsWith(id, effective, clampedRanges(agents, total))
	if len(overlaps) > 0 && s.rejectOverlap {
		return transport.AssignRangeResponse{}, apperr.Conflict("lead range overlaps another agent").WithDetails(overlaps)
	}

	now := s.now().UTC()
	err = s.repo.UpdateFields(ctx, sess.TenantID, id, map[string]any{
		repository.FieldFrom:      r.From,
		repository.FieldTo:        r.To,
		repository.FieldUpdatedAt: now,
	})
	if err != nil {
		return transport.AssignRangeResponse{}, s.storeFailure(ctx, "assign range", err)
	}
	agent.From, agent.To, agent.UpdatedAt = &r.From, &r.To, now

	s.record(ctx, sess, activity.Entry{
		AgentID: id,
		Action:  activity.ActionAssigned,
		Summary: r.Key(),
	})

	res := transport.AssignRangeResponse{Agent: transport.ToResponse(agent), Overlaps: overlaps}
	if effective.Len() > 0 {
		res.Effective = &effective
	}
	return res, nil
}

// Stats summarizes how much of the lead list is covered by active agents.
func (s *Service) Stats(ctx context.Context, sess session.Session) (transport.StatsResponse, error) {
	if !sess.IsAdmin() {
		return transport.StatsResponse{}, apperr.Forbidden("only admins can view allocation stats")
	}
	agents, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.StatsResponse{}, s.storeFailure(ctx, "list agents", err)
	}
	total, err := s.leads.Count(ctx, sess.TenantID)
	if err != nil {
		return transport.StatsResponse{}, s.storeFailure(ctx, "count leads", err)
	}

	// Totals use the ranges as stored; only overlap detection works on the
	// positions that map onto existing leads.
	stored := make([]*allocation.Range, 0, len(agents))
	active := 0
	for _, a := range agents {
		if !a.IsActive() {
			continue
		}
		active++
		stored = append(stored, a.Range())
	}

	return transport.StatsResponse{
		Stats:        allocation.Summarize(total, stored),
		ActiveAgents: active,
		Overlaps:     allocation.Overlaps(clampedRanges(agents, total)),
	}, nil
}

// AgentRange returns the stored range of an active agent, or nil when the
// agent has none or is inactive.
func (s *Service) AgentRange(ctx context.Context, tenantID, agentID string) (*allocation.Range, error) {
	agent, err := s.repo.GetByID(ctx, tenantID, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !agent.IsActive() {
		return nil, nil
	}
	return agent.Range(), nil
}

// ActiveAgents lists agents eligible for task assignment.
func (s *Service) ActiveAgents(ctx context.Context, tenantID string) ([]repository.Agent, error) {
	agents, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := agents[:0]
	for _, a := range agents {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkAssigned records that a task was just given to the agent.
func (s *Service) MarkAssigned(ctx context.Context, tenantID, agentID string, at time.Time) error {
	return s.repo.UpdateFields(ctx, tenantID, agentID, map[string]any{
		repository.FieldLastAssigned: at.UTC(),
	})
}

// Contact returns the decrypted name and email of an agent.
func (s *Service) Contact(ctx context.Context, tenantID, agentID string) (string, string, error) {
	agent, err := s.repo.GetByID(ctx, tenantID, agentID)
	if err != nil {
		return "", "", err
	}
	return agent.Name, agent.Email, nil
}

// Exists reports whether agentID is on the tenant's roster.
func (s *Service) Exists(ctx context.Context, tenantID, agentID string) (bool, error) {
	_, err := s.repo.GetByID(ctx, tenantID, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) record(ctx context.Context, sess session.Session, e activity.Entry) {
	if s.activity != nil {
		s.activity.Log(ctx, sess, e)
	}
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgAgentNotFound)
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.log.WithContext(ctx).StoreError(op, "agents", err)
	return apperr.Unavailable("data store unavailable", err).WithOp(op)
}

// clampedRanges maps active agents to their range bounded by the current
// lead count, leaving out agents whose range maps onto no lead.
func clampedRanges(agents []repository.Agent, total int) map[string]allocation.Range {
	out := make(map[string]allocation.Range, len(agents))
	for _, a := range agents {
		r := a.Range()
		if r == nil || !a.IsActive() {
			continue
		}
		if c := allocation.Clamp(*r, total); c.Len() > 0 {
			out[a.ID] = c
		}
	}
	return out
}

func findAgent(agents []repository.Agent, id string) (repository.Agent, bool) {
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	return repository.Agent{}, false
}

func emailTaken(agents []repository.Agent, email, exceptID string) bool {
	for _, a := range agents {
		if a.ID != exceptID && strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}
