package automation

import (
	"context"
	"errors"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/session"
)

// Enqueuer hands sweeps to the background worker.
type Enqueuer interface {
	EnqueueSweep(ctx context.Context, kind Kind, tenantID string) error
}

// RunRequest triggers sweeps for the caller's tenant.
type RunRequest struct {
	Kind string `json:"kind" validate:"omitempty,oneof=status cleanup"`
}

// RunResponse reports either queued sweeps or the results of inline runs.
type RunResponse struct {
	Queued  bool     `json:"queued"`
	Results []Result `json:"results,omitempty"`
}

// Service manages tenant automation settings and manual sweep runs.
type Service struct {
	settings *SettingsRepository
	runner   *Runner
	enqueuer Enqueuer
	log      *logger.Logger
}

func NewService(settings *SettingsRepository, runner *Runner, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{settings: settings, runner: runner, log: log}
}

// SetEnqueuer routes manual runs through the job queue instead of running
// them inline.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

func (s *Service) GetSettings(ctx context.Context, sess session.Session) (Settings, error) {
	if !sess.IsAdmin() {
		return Settings{}, apperr.Forbidden("admin access required")
	}
	settings, err := s.settings.Get(ctx, sess.TenantID)
	if err != nil {
		return Settings{}, s.storeFailure(ctx, "get automation settings", err)
	}
	return settings, nil
}

// SaveSettings replaces the tenant's settings and enrols it for sweeps.
func (s *Service) SaveSettings(ctx context.Context, sess session.Session, settings Settings) (Settings, error) {
	if !sess.IsAdmin() {
		return Settings{}, apperr.Forbidden("admin access required")
	}
	if err := s.settings.Save(ctx, sess.TenantID, settings); err != nil {
		return Settings{}, s.storeFailure(ctx, "save automation settings", err)
	}
	s.log.WithContext(ctx).Info("automation settings saved",
		"autoStatus", settings.AutoStatus,
		"autoCleanup", settings.AutoCleanup,
		"autoCleanupDays", settings.AutoCleanupDays,
		"autoAssign", settings.AutoAssign,
	)
	return settings, nil
}

// Run sweeps the caller's tenant now. An empty kind runs both sweeps.
func (s *Service) Run(ctx context.Context, sess session.Session, req RunRequest) (RunResponse, error) {
	if !sess.IsAdmin() {
		return RunResponse{}, apperr.Forbidden("admin access required")
	}
	kinds := []Kind{KindStatus, KindCleanup}
	if req.Kind != "" {
		kind, err := ParseKind(req.Kind)
		if err != nil {
			return RunResponse{}, apperr.Validation(err.Error())
		}
		kinds = []Kind{kind}
	}

	if s.enqueuer != nil {
		for _, kind := range kinds {
			if err := s.enqueuer.EnqueueSweep(ctx, kind, sess.TenantID); err != nil {
				return RunResponse{}, apperr.Unavailable("job queue unavailable", err).WithOp("enqueue sweep")
			}
		}
		return RunResponse{Queued: true}, nil
	}

	resp := RunResponse{Results: make([]Result, 0, len(kinds))}
	var errs []error
	for _, kind := range kinds {
		res, err := s.runner.RunTenant(ctx, kind, sess.TenantID)
		resp.Results = append(resp.Results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return resp, s.storeFailure(ctx, "run sweeps", err)
	}
	return resp, nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	s.log.WithContext(ctx).StoreError(op, "automation", err)
	return apperr.Unavailable("data store unavailable", err).WithOp(op)
}
