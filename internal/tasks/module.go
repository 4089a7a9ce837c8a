// Package tasks provides the task management bounded context module.
package tasks

import (
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/fieldcipher"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/tasks/handler"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/internal/tasks/service"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

func NewModule(s store.Store, cipher *fieldcipher.Cipher, agents service.AgentDirectory, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(s, cipher).WithLogger(log)
	svc := service.New(repo, agents, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

func (m *Module) Name() string {
	return "tasks"
}

// SetAgentPicker wires auto-assignment from the automation module.
func (m *Module) SetAgentPicker(p service.AgentPicker) {
	m.service.SetAgentPicker(p)
}

// SetEnroller registers tenants for sweeps when they create tasks.
func (m *Module) SetEnroller(e service.TenantEnroller) {
	m.service.SetEnroller(e)
}

// SetEventBus publishes auto-assignment events on bus.
func (m *Module) SetEventBus(bus events.Bus) {
	m.service.SetEventBus(bus)
}

// Repository is shared with the automation sweeps.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/tasks", m.handler.List)
	ctx.Protected.POST("/tasks", m.handler.Create)
	ctx.Protected.GET("/tasks/:id", m.handler.GetByID)
	ctx.Protected.PATCH("/tasks/:id", m.handler.Update)
	ctx.Protected.PUT("/tasks/:id/status", m.handler.SetStatus)
	ctx.Protected.DELETE("/tasks/:id", m.handler.Delete)

	adminGroup := ctx.Admin.Group("/tasks/backups")
	adminGroup.GET("", m.handler.ListBackups)
	adminGroup.POST("/:id/restore", m.handler.Restore)
	adminGroup.DELETE("/:id", m.handler.Purge)
}

var _ apphttp.Module = (*Module)(nil)
