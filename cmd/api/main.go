package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/adapters/storage"
	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/automation"
	"crm_dashboard_backend/internal/email"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/fieldcipher"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/http/router"
	"crm_dashboard_backend/internal/leads"
	leaddomain "crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/scoring"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/scheduler"
	"crm_dashboard_backend/internal/store/backend"
	"crm_dashboard_backend/internal/tasks"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	infra, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer infra.Close()

	cipher, err := fieldcipher.New(cfg.GetFieldCipherSecret())
	if err != nil {
		log.Error("failed to initialize field cipher", "error", err)
		panic("failed to initialize field cipher: " + err.Error())
	}

	scorer, err := loadScorer(cfg, log)
	if err != nil {
		log.Error("failed to load scoring weights", "error", err)
		panic("failed to load scoring weights: " + err.Error())
	}

	verifier, err := initVerifier(ctx, cfg, infra)
	if err != nil {
		log.Error("failed to initialize token verifier", "error", err)
		panic("failed to initialize token verifier: " + err.Error())
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg, log)
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP not configured; notification email disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	exports := initExports(ctx, cfg, log)

	queue, locker, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	st := infra.Store

	activityModule := activity.NewModule(st, cipher, leaddomain.PIIFields, val, log)

	leadsModule := leads.NewModule(st, cipher, scorer, leads.Deps{
		Activity: activityModule.Service(),
		Exports:  exports,
	}, val, log)

	agentsModule := agents.NewModule(st, cipher, leadsModule.Counter(), activityModule.Service(), cfg, val, log)

	// Ranges live in the agents module; set after both exist
	leadsModule.SetRangeReader(agentsModule.Service())

	tasksModule := tasks.NewModule(st, cipher, agentsModule.Service(), val, log)
	tasksModule.SetEventBus(eventBus)

	notificationModule := notification.New(inapp.NewRepository(st, cipher), sender, agentsModule.Service(), log)
	defer notificationModule.SSE().Close()

	automationModule := automation.NewModule(
		st,
		tasksModule.Repository(),
		agentsModule.Service(),
		notificationModule.Notifier(),
		eventBus,
		locker,
		cfg,
		val,
		log,
	)
	tasksModule.SetAgentPicker(automationModule.Assigner())
	tasksModule.SetEnroller(automationModule.Settings())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   infra.Health,
		Verifier: verifier,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			agentsModule,
			tasksModule,
			activityModule,
			notificationModule,
			automationModule,
		},
	}
	log.Info("event handlers registered", "modules", app.Subscribe())

	if queue != nil {
		automationModule.SetEnqueuer(queue)
		log.Info("automation sweeps delegated to the scheduler worker")
	} else {
		statusEvery, cleanupEvery := automationModule.Intervals()
		go automationModule.Runner().Loop(ctx, statusEvery, cleanupEvery)
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func loadScorer(cfg config.ScoringConfig, log *logger.Logger) (*scoring.Scorer, error) {
	path := cfg.GetScoringWeightsFile()
	if path == "" {
		return scoring.Default, nil
	}
	weights, err := scoring.LoadWeights(path)
	if err != nil {
		return nil, err
	}
	log.Info("scoring weights loaded", "file", path)
	return scoring.New(weights), nil
}

func initVerifier(ctx context.Context, cfg *config.Config, infra *backend.Backend) (httpkit.TokenVerifier, error) {
	if cfg.IsFirebaseAuthEnabled() && infra.Firebase != nil {
		return infra.Firebase.Verifier(ctx)
	}
	return httpkit.NewJWTVerifier(cfg), nil
}

// initExports enables export uploads when MinIO is configured. Exports
// still stream directly to the caller without it.
func initExports(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.Exports {
	if !cfg.IsMinIOEnabled() {
		log.Info("MinIO not configured; lead exports are streamed only")
		return nil
	}
	exports, err := storage.NewMinIOExports(cfg)
	if err != nil {
		log.Error("failed to initialize export storage", "error", err)
		return nil
	}
	if err := backend.WithRetry(ctx, log, "ensure lead-exports bucket", 5, 2*time.Second, func() error {
		return exports.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to prepare export bucket", "error", err, "bucket", exports.Bucket())
		return nil
	}
	log.Info("export storage initialized", "bucket", exports.Bucket(), "retentionDays", storage.RetentionDays)
	return exports
}

// initScheduler returns the job queue client and a Redis-backed sweep lock
// when REDIS_URL is set. Without Redis the sweeps run in-process.
func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, automation.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; automation sweeps run in-process")
		return nil, automation.NewLocalLocker(), nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, automation.NewLocalLocker(), nil
	}
	redisClient, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		_ = client.Close()
		return nil, automation.NewLocalLocker(), nil
	}

	return client, automation.NewRedisLocker(redisClient, automation.DefaultLockTTL), func() {
		_ = client.Close()
		_ = redisClient.Close()
	}
}
