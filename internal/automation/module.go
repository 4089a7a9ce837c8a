package automation

import (
	"time"

	"crm_dashboard_backend/internal/events"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Module wires the sweeps, the auto-assigner and the settings endpoints.
type Module struct {
	handler  *Handler
	service  *Service
	settings *SettingsRepository
	runner   *Runner
	assigner *AutoAssigner
	cfg      config.AutomationConfig
}

func NewModule(
	s store.Store,
	tasks *repository.Repository,
	agents AgentPool,
	notifier Notifier,
	bus events.Bus,
	locker Locker,
	cfg config.AutomationConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	settings := NewSettingsRepository(s, cfg.GetAutomationDefaultCleanupDays())
	sweeper := NewSweeper(tasks, settings, notifier, bus, log)
	runner := NewRunner(sweeper, settings, locker, cfg.GetAutomationTenantConcurrency(), log)
	svc := NewService(settings, runner, log)
	return &Module{
		handler:  NewHandler(svc, val),
		service:  svc,
		settings: settings,
		runner:   runner,
		assigner: NewAutoAssigner(settings, agents, tasks, log),
		cfg:      cfg,
	}
}

func (m *Module) Name() string {
	return "automation"
}

// Runner is used by the scheduler worker and the in-process loop.
func (m *Module) Runner() *Runner {
	return m.runner
}

// Assigner implements the tasks module's agent picker.
func (m *Module) Assigner() *AutoAssigner {
	return m.assigner
}

// Settings doubles as the tenant enroller for the tasks module.
func (m *Module) Settings() *SettingsRepository {
	return m.settings
}

// SetEnqueuer sends manual runs to the job queue.
func (m *Module) SetEnqueuer(e Enqueuer) {
	m.service.SetEnqueuer(e)
}

// Intervals returns the configured sweep cadence.
func (m *Module) Intervals() (status, cleanup time.Duration) {
	return m.cfg.GetAutomationStatusInterval(), m.cfg.GetAutomationCleanupInterval()
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/settings/automation", m.handler.GetSettings)
	ctx.Admin.PUT("/settings/automation", m.handler.SaveSettings)
	ctx.Admin.POST("/automation/run", m.handler.Run)
}

var _ apphttp.Module = (*Module)(nil)
