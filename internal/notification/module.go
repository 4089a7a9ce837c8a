// Package notification provides event handlers for sending notifications
// (in-app records, live SSE pushes, email) in response to domain events.
// This module subscribes to events and inverts the dependency: the task
// sweeps do not need to know about email providers or templates.
package notification

import (
	"context"
	"fmt"

	"crm_dashboard_backend/internal/email"
	"crm_dashboard_backend/internal/events"
	apphttp "crm_dashboard_backend/internal/http"
	notifhandler "crm_dashboard_backend/internal/notification/handler"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/notification/sse"
	"crm_dashboard_backend/platform/logger"
)

// AgentContacts resolves where to email an agent.
type AgentContacts interface {
	Contact(ctx context.Context, tenantID, agentID string) (name string, emailAddr string, err error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	inapp   *inapp.Service
	sse     *sse.Service
	handler *notifhandler.HTTPHandler
	sender  email.Sender
	agents  AgentContacts
	log     *logger.Logger
}

// New creates a new notification module.
func New(repo *inapp.Repository, sender email.Sender, agents AgentContacts, log *logger.Logger) *Module {
	if log == nil {
		log = logger.Discard()
	}
	if sender == nil {
		sender = email.NoopSender{}
	}
	sseSvc := sse.New(log)
	inappSvc := inapp.NewService(repo, log)
	inappSvc.SetSSE(sseSvc)
	return &Module{
		inapp:   inappSvc,
		sse:     sseSvc,
		handler: notifhandler.NewHTTPHandler(inappSvc),
		sender:  sender,
		agents:  agents,
		log:     log,
	}
}

func (m *Module) Name() string {
	return "notifications"
}

// Notifier is the in-app service the status sweep writes through.
func (m *Module) Notifier() *inapp.Service {
	return m.inapp
}

// SSE returns the live event stream service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
	ctx.Protected.GET("/notifications/stream", m.sse.Handler())
}

// RegisterHandlers subscribes the module to the task events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	events.On(bus, m.handleTaskDueSoon)
	events.On(bus, m.handleTaskAutoAssigned)
	events.On(bus, m.handleTasksArchived)
}

// handleTaskDueSoon emails the assigned agent the first time a task enters
// the due-soon window. Later sweeps only refresh the in-app record.
func (m *Module) handleTaskDueSoon(ctx context.Context, e events.TaskDueSoon) error {
	if !e.FirstNotice || e.AgentID == "" || m.agents == nil {
		return nil
	}
	name, addr, err := m.agents.Contact(ctx, e.TenantID, e.AgentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", e.AgentID, err)
	}
	if addr == "" {
		return nil
	}
	if err := m.sender.SendTaskDueSoonEmail(ctx, addr, name, e.Title, e.EndDate); err != nil {
		m.log.Error("due-soon email failed", "tenantId", e.TenantID, "taskId", e.TaskID, "error", err)
		return err
	}
	m.log.Info("due-soon email sent", "tenantId", e.TenantID, "taskId", e.TaskID)
	return nil
}

func (m *Module) handleTaskAutoAssigned(ctx context.Context, e events.TaskAutoAssigned) error {
	m.sse.Publish(e.TenantID, e.AgentID, sse.Event{
		Type:    sse.EventTaskAssigned,
		TaskID:  e.TaskID,
		Message: e.Title,
	})
	if m.agents == nil {
		return nil
	}
	name, addr, err := m.agents.Contact(ctx, e.TenantID, e.AgentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", e.AgentID, err)
	}
	if addr == "" {
		return nil
	}
	return m.sender.SendTaskAssignedEmail(ctx, addr, name, e.Title, e.StartDate, e.EndDate)
}

func (m *Module) handleTasksArchived(_ context.Context, e events.TasksArchived) error {
	if len(e.TaskIDs) == 0 {
		return nil
	}
	m.sse.PublishToAdmins(e.TenantID, sse.Event{
		Type:    sse.EventTasksArchived,
		Message: fmt.Sprintf("%d completed tasks archived", len(e.TaskIDs)),
		Data:    e.TaskIDs,
	})
	return nil
}

var _ apphttp.Module = (*Module)(nil)
