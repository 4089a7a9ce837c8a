// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"crm_dashboard_backend/internal/adapters/storage"
	"crm_dashboard_backend/internal/fieldcipher"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/leads/handler"
	"crm_dashboard_backend/internal/leads/management"
	"crm_dashboard_backend/internal/leads/repository"
	"crm_dashboard_backend/internal/leads/scoring"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	repo       *repository.Repository
}

// Deps are the collaborators owned by other modules.
type Deps struct {
	Ranges   management.RangeReader
	Activity management.ActivityRecorder
	Exports  storage.Exports
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(s store.Store, cipher *fieldcipher.Cipher, scorer *scoring.Scorer, deps Deps, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(s, cipher).WithLogger(log)
	svc := management.New(repo, scorer, deps.Ranges, deps.Activity, log)
	if deps.Exports != nil {
		svc.WithExports(deps.Exports)
	}

	return &Module{
		handler:    handler.New(svc, val),
		management: svc,
		repo:       repo,
	}
}

// SetRangeReader wires the agents module after both modules exist.
func (m *Module) SetRangeReader(ranges management.RangeReader) {
	m.management.SetRangeReader(ranges)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead service for cross-module use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Counter returns the lead counter other modules clamp against.
func (m *Module) Counter() Counter {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/export", m.handler.Export)
	ctx.Protected.GET("/leads/position/:position", m.handler.GetByPosition)
	ctx.Protected.GET("/leads/:id", m.handler.GetByID)
	ctx.Protected.PATCH("/leads/:id", m.handler.Update)

	adminGroup := ctx.Admin.Group("/leads")
	adminGroup.POST("", m.handler.Create)
	adminGroup.POST("/import", m.handler.Import)
	adminGroup.POST("/bulk-delete", m.handler.BulkDelete)
	adminGroup.POST("/recalculate-scores", m.handler.RecalculateScores)
	adminGroup.DELETE("/:id", m.handler.Delete)
	adminGroup.GET("/deleted", m.handler.ListDeleted)
	adminGroup.POST("/deleted/:id/restore", m.handler.Restore)
	adminGroup.DELETE("/deleted/:id", m.handler.Purge)

	ctx.Admin.GET("/settings/cipher-status", m.handler.CipherStatus)
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ Rescorer       = (*management.Service)(nil)
)
