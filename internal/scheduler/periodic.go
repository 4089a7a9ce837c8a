package scheduler

import (
	"context"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/automation"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the all-tenant sweeps on their cadence. Exactly one
// process should run it.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, statusEvery, cleanupEvery time.Duration, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	queue := queueName(cfg)
	entries := []struct {
		kind  automation.Kind
		every time.Duration
	}{
		{automation.KindStatus, statusEvery},
		{automation.KindCleanup, cleanupEvery},
	}
	for _, e := range entries {
		task, err := NewSweepTask(e.kind, SweepPayload{})
		if err != nil {
			return nil, err
		}
		spec := "@every " + e.every.String()
		if _, err := s.Register(spec, task, asynq.Queue(queue), asynq.Timeout(e.every)); err != nil {
			return nil, fmt.Errorf("register %s sweep: %w", e.kind, err)
		}
		log.Info("sweep scheduled", "kind", string(e.kind), "spec", spec)
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Run blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
