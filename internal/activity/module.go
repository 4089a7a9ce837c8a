package activity

import (
	"crm_dashboard_backend/internal/fieldcipher"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Module exposes the activity log over HTTP and to the other modules as a
// recorder.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the activity log. sensitive lists the lead fields whose
// change values are encrypted at rest.
func NewModule(s store.Store, cipher *fieldcipher.Cipher, sensitive fieldcipher.FieldSet, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(s, cipher, sensitive), log)
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/activity", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
