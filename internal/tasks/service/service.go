// Package service implements task management for admins and agents.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/tasks/domain"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/internal/tasks/transport"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/sanitize"
	"crm_dashboard_backend/platform/session"

	"github.com/google/uuid"
)

const msgTaskNotFound = "task not found"

// AgentDirectory checks agent ids supplied by callers.
type AgentDirectory interface {
	Exists(ctx context.Context, tenantID, agentID string) (bool, error)
}

// AgentPicker chooses an agent for a task created without one. It returns
// an empty id when auto-assignment is off or no agent is eligible.
type AgentPicker interface {
	PickAgent(ctx context.Context, tenantID string) (string, error)
}

// TenantEnroller registers a tenant for the periodic task sweeps.
type TenantEnroller interface {
	Enrol(ctx context.Context, tenantID string) error
}

type Service struct {
	repo     *repository.Repository
	agents   AgentDirectory
	picker   AgentPicker
	enroller TenantEnroller
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo *repository.Repository, agents AgentDirectory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, agents: agents, log: log, now: time.Now}
}

// SetAgentPicker wires auto-assignment once the automation module exists.
func (s *Service) SetAgentPicker(p AgentPicker) {
	s.picker = p
}

// SetEnroller makes task creation enrol the tenant for sweeps.
func (s *Service) SetEnroller(e TenantEnroller) {
	s.enroller = e
}

// SetEventBus enables TaskAutoAssigned events.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// Create adds a task. Agents may only create tasks for themselves; an admin
// task without an agent is auto-assigned when the tenant enabled it.
func (s *Service) Create(ctx context.Context, sess session.Session, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if !sess.IsAdmin() {
		if agentID != "" && agentID != sess.AgentID {
			return transport.TaskResponse{}, apperr.Forbidden("agents can only create tasks for themselves")
		}
		agentID = sess.AgentID
	}
	if req.EndDate.Before(req.StartDate) {
		return transport.TaskResponse{}, apperr.Validation("endDate must not be before startDate")
	}

	autoAssigned := false
	if agentID == "" && s.picker != nil {
		picked, err := s.picker.PickAgent(ctx, sess.TenantID)
		if err != nil {
			return transport.TaskResponse{}, s.storeFailure(ctx, "pick agent", err)
		}
		agentID, autoAssigned = picked, picked != ""
	} else if agentID != "" && sess.IsAdmin() {
		if err := s.checkAgent(ctx, sess.TenantID, agentID); err != nil {
			return transport.TaskResponse{}, err
		}
	}

	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	now := s.now().UTC()
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       sanitize.Line(req.Title),
		Description: sanitize.Text(req.Description),
		AgentID:     agentID,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		Priority:    priority,
		Status:      domain.StatusPending,
		CreatedBy:   sess.ActorID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Save(ctx, sess.TenantID, task); err != nil {
		return transport.TaskResponse{}, s.storeFailure(ctx, "create task", err)
	}

	if s.enroller != nil {
		if err := s.enroller.Enrol(ctx, sess.TenantID); err != nil {
			s.log.WithContext(ctx).Warn("enrol tenant for sweeps failed", "error", err)
		}
	}

	if autoAssigned && s.bus != nil {
		s.bus.Publish(ctx, events.TaskAutoAssigned{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  sess.TenantID,
			TaskID:    task.ID,
			AgentID:   agentID,
			Title:     task.Title,
			StartDate: task.StartDate,
			EndDate:   task.EndDate,
		})
	}

	s.log.WithContext(ctx).Info("task created", "taskId", task.ID, "agentId", agentID, "autoAssigned", autoAssigned)
	return transport.TaskResponse{Task: task, AutoAssigned: autoAssigned}, nil
}

// List returns active tasks; agents only see their own.
func (s *Service) List(ctx context.Context, sess session.Session, req transport.ListTasksRequest) (transport.TaskListResponse, error) {
	tasks, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.TaskListResponse{}, s.storeFailure(ctx, "list tasks", err)
	}
	agentID := req.AgentID
	if !sess.IsAdmin() {
		agentID = sess.AgentID
	}
	items := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if agentID != "" && t.AgentID != agentID {
			continue
		}
		if req.Status != "" && string(t.Status) != req.Status {
			continue
		}
		items = append(items, t)
	}
	return transport.TaskListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id string) (domain.Task, error) {
	task, err := s.repo.GetByID(ctx, sess.TenantID, id)
	if err != nil {
		return domain.Task{}, s.storeFailure(ctx, "get task", err)
	}
	if !sess.IsAdmin() && task.AgentID != sess.AgentID {
		// Other agents' tasks are reported as missing.
		return domain.Task{}, apperr.NotFound(msgTaskNotFound)
	}
	return task, nil
}

func (s *Service) Update(ctx context.Context, sess session.Session, id string, req transport.UpdateTaskRequest) (domain.Task, error) {
	task, err := s.Get(ctx, sess, id)
	if err != nil {
		return domain.Task{}, err
	}

	if req.Title != nil {
		task.Title = sanitize.Line(*req.Title)
	}
	if req.Description != nil {
		task.Description = sanitize.Text(*req.Description)
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		task.EndDate = req.EndDate.UTC()
	}
	if req.Priority != nil {
		task.Priority = domain.Priority(*req.Priority)
	}
	if req.AgentID != nil && *req.AgentID != task.AgentID {
		if !sess.IsAdmin() {
			return domain.Task{}, apperr.Forbidden("agents cannot reassign tasks")
		}
		if *req.AgentID != "" {
			if err := s.checkAgent(ctx, sess.TenantID, *req.AgentID); err != nil {
				return domain.Task{}, err
			}
		}
		task.AgentID = *req.AgentID
	}
	if task.EndDate.Before(task.StartDate) {
		return domain.Task{}, apperr.Validation("endDate must not be before startDate")
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, sess.TenantID, task); err != nil {
		return domain.Task{}, s.storeFailure(ctx, "update task", err)
	}
	return task, nil
}

// SetStatus moves a task between states. Completion is only ever manual.
func (s *Service) SetStatus(ctx context.Context, sess session.Session, id string, req transport.SetStatusRequest) (domain.Task, error) {
	status := domain.Status(req.Status)
	if !status.Valid() {
		return domain.Task{}, apperr.Validation("status must be pending, in_progress or completed")
	}
	task, err := s.Get(ctx, sess, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status == status {
		return task, nil
	}

	now := s.now().UTC()
	fields := map[string]any{
		domain.FieldStatus:    status,
		domain.FieldUpdatedAt: now,
	}
	task.Status, task.UpdatedAt = status, now
	if status == domain.StatusCompleted {
		fields[domain.FieldCompletedAt] = now
		task.CompletedAt = &now
	} else {
		fields[domain.FieldCompletedAt] = nil
		task.CompletedAt = nil
	}
	if err := s.repo.UpdateFields(ctx, sess.TenantID, id, fields); err != nil {
		return domain.Task{}, s.storeFailure(ctx, "set task status", err)
	}
	return task, nil
}

// Delete moves the task to the backup collection.
func (s *Service) Delete(ctx context.Context, sess session.Session, id string) error {
	task, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	if _, err := s.repo.MoveToBackup(ctx, sess.TenantID, task, s.now(), sess.ActorID()); err != nil {
		return s.storeFailure(ctx, "delete task", err)
	}
	return nil
}

func (s *Service) ListBackups(ctx context.Context, sess session.Session) (transport.TaskListResponse, error) {
	if !sess.IsAdmin() {
		return transport.TaskListResponse{}, apperr.Forbidden("only admins can view deleted tasks")
	}
	tasks, err := s.repo.ListBackups(ctx, sess.TenantID)
	if err != nil {
		return transport.TaskListResponse{}, s.storeFailure(ctx, "list task backups", err)
	}
	return transport.TaskListResponse{Items: tasks, Total: len(tasks)}, nil
}

func (s *Service) Restore(ctx context.Context, sess session.Session, id string) (domain.Task, error) {
	if !sess.IsAdmin() {
		return domain.Task{}, apperr.Forbidden("only admins can restore tasks")
	}
	task, err := s.repo.Restore(ctx, sess.TenantID, id, s.now())
	if err != nil {
		return domain.Task{}, s.storeFailure(ctx, "restore task", err)
	}
	return task, nil
}

func (s *Service) Purge(ctx context.Context, sess session.Session, id string) error {
	if !sess.IsAdmin() {
		return apperr.Forbidden("only admins can purge tasks")
	}
	if err := s.repo.Purge(ctx, sess.TenantID, id); err != nil {
		return s.storeFailure(ctx, "purge task", err)
	}
	return nil
}

func (s *Service) checkAgent(ctx context.Context, tenantID, agentID string) error {
	if s.agents == nil {
		return nil
	}
	ok, err := s.agents.Exists(ctx, tenantID, agentID)
	if err != nil {
		return s.storeFailure(ctx, "check agent", err)
	}
	if !ok {
		return apperr.FieldErrors(map[string]string{"agentId": "unknown agent"})
	}
	return nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTaskNotFound)
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.log.WithContext(ctx).StoreError(op, "tasks", err)
	return apperr.Unavailable("data store unavailable", err).WithOp(op)
}
