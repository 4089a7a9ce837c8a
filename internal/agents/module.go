// Package agents provides the agent roster bounded context module.
package agents

import (
	"crm_dashboard_backend/internal/agents/handler"
	"crm_dashboard_backend/internal/agents/repository"
	"crm_dashboard_backend/internal/agents/service"
	"crm_dashboard_backend/internal/fieldcipher"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/leads"
	"crm_dashboard_backend/internal/leads/management"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(s store.Store, cipher *fieldcipher.Cipher, counter leads.Counter, act service.ActivityRecorder, cfg config.AllocationConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(s, cipher)
	svc := service.New(repo, counter, act, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "agents"
}

// Service exposes the roster to the leads and tasks modules.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/agents", m.handler.List)
	ctx.Protected.GET("/agents/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/agents")
	adminGroup.POST("", m.handler.Create)
	adminGroup.GET("/stats", m.handler.Stats)
	adminGroup.PATCH("/:id", m.handler.Update)
	adminGroup.PUT("/:id/status", m.handler.SetStatus)
	adminGroup.PUT("/:id/range", m.handler.AssignRange)
}

var (
	_ apphttp.Module         = (*Module)(nil)
	_ management.RangeReader = (*service.Service)(nil)
)
