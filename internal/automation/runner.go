package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/metrics"

	"golang.org/x/sync/errgroup"
)

const defaultTenantConcurrency = 4

// Runner fans a sweep out over every enrolled tenant.
type Runner struct {
	sweeper     *Sweeper
	settings    *SettingsRepository
	locker      Locker
	concurrency int
	log         *logger.Logger
}

func NewRunner(sweeper *Sweeper, settings *SettingsRepository, locker Locker, concurrency int, log *logger.Logger) *Runner {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if concurrency < 1 {
		concurrency = defaultTenantConcurrency
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{
		sweeper:     sweeper,
		settings:    settings,
		locker:      locker,
		concurrency: concurrency,
		log:         log,
	}
}

// RunTenant sweeps one tenant under its lock. A sweep that finds the lock
// taken is reported as skipped.
func (r *Runner) RunTenant(ctx context.Context, kind Kind, tenantID string) (Result, error) {
	release, ok, err := r.locker.Acquire(ctx, LockKey(kind, tenantID))
	if err != nil {
		err = fmt.Errorf("acquire %s lock for %s: %w", kind, tenantID, err)
		r.observe(kind, tenantID, Result{}, err)
		return Result{TenantID: tenantID, Kind: kind}, err
	}
	if !ok {
		return Result{TenantID: tenantID, Kind: kind, Skipped: true}, nil
	}
	defer release()

	res, err := r.sweeper.Sweep(ctx, kind, tenantID)
	r.observe(kind, tenantID, res, err)
	return res, err
}

// RunAll sweeps every enrolled tenant. A failing tenant does not stop the
// others; their errors are joined.
func (r *Runner) RunAll(ctx context.Context, kind Kind) ([]Result, error) {
	tenants, err := r.settings.Tenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list automation tenants: %w", err)
	}

	var (
		mu      sync.Mutex
		errs    []error
		results = make([]Result, len(tenants))
	)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, tenantID := range tenants {
		g.Go(func() error {
			res, err := r.RunTenant(ctx, kind, tenantID)
			results[i] = res
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Loop runs both sweeps on their intervals until ctx is done. Failed runs
// are logged and retried on the next tick.
func (r *Runner) Loop(ctx context.Context, statusEvery, cleanupEvery time.Duration) {
	status := time.NewTicker(statusEvery)
	defer status.Stop()
	cleanup := time.NewTicker(cleanupEvery)
	defer cleanup.Stop()

	r.log.Info("automation loop started", "statusInterval", statusEvery.String(), "cleanupInterval", cleanupEvery.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-status.C:
			r.runLogged(ctx, KindStatus)
		case <-cleanup.C:
			r.runLogged(ctx, KindCleanup)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context, kind Kind) {
	if _, err := r.RunAll(ctx, kind); err != nil && ctx.Err() == nil {
		r.log.Error("automation sweep failed", "kind", string(kind), "error", err)
	}
}

func (r *Runner) observe(kind Kind, tenantID string, res Result, err error) {
	metrics.ObserveSweep(string(kind), res.Changed(), err)
	r.log.SweepResult(string(kind), tenantID, res.Changed(), err)
}
