package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"crm_dashboard_backend/internal/automation"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultConcurrency = 10
	shutdownTimeout    = 20 * time.Second
	retryBaseDelay     = 10 * time.Second
	retryMaxDelay      = 10 * time.Minute
)

// SweepRunner executes sweeps for the worker.
type SweepRunner interface {
	RunTenant(ctx context.Context, kind automation.Kind, tenantID string) (automation.Result, error)
	RunAll(ctx context.Context, kind automation.Kind) ([]automation.Result, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner SweepRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner SweepRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	w := &Worker{
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queueName(cfg): 1},
		ShutdownTimeout: shutdownTimeout,
		RetryDelayFunc:  retryDelay,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.reportFailure),
		Logger:          asynqLogger{log: log},
	})
	w.mux.HandleFunc(TaskAutomationStatus, w.sweepHandler(automation.KindStatus))
	w.mux.HandleFunc(TaskAutomationCleanup, w.sweepHandler(automation.KindCleanup))

	return w, nil
}

// retryDelay doubles from retryBaseDelay per attempt up to retryMaxDelay.
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	delay := retryBaseDelay
	for i := 0; i < n && delay < retryMaxDelay; i++ {
		delay *= 2
	}
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

func (w *Worker) reportFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	tenantID := ""
	if payload, perr := ParseSweepPayload(task); perr == nil {
		tenantID = payload.TenantID
	}
	w.log.Warn("scheduler task failed",
		"type", task.Type(),
		"tenant_id", tenantID,
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func (w *Worker) sweepHandler(kind automation.Kind) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		return w.handleSweep(ctx, kind, task)
	}
}

func (w *Worker) handleSweep(ctx context.Context, kind automation.Kind, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}

	if payload.TenantID != "" {
		_, err = w.runner.RunTenant(ctx, kind, payload.TenantID)
		return err
	}

	results, err := w.runner.RunAll(ctx, kind)
	summary := summarize(results)
	w.log.Info("scheduler sweep finished",
		"kind", string(kind),
		"tenants", summary.tenants,
		"skipped", summary.skipped,
		"changed", summary.changed,
		"failed", summary.failed,
	)
	return err
}

type sweepSummary struct {
	tenants int
	skipped int
	changed int
	failed  int
}

func summarize(results []automation.Result) sweepSummary {
	s := sweepSummary{tenants: len(results)}
	for _, r := range results {
		if r.Skipped {
			s.skipped++
		}
		s.changed += r.Changed()
		s.failed += r.Failed
	}
	return s
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// asynqLogger routes the queue server's own logging through slog.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Info(args ...interface{}) { l.log.Info(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Warn(args ...interface{}) { l.log.Warn(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...), "component", "asynq") }

func (l asynqLogger) Fatal(args ...interface{}) {
	l.log.Error(fmt.Sprint(args...), "component", "asynq")
	os.Exit(1)
}
