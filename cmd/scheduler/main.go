package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/agents"
	"crm_dashboard_backend/internal/automation"
	"crm_dashboard_backend/internal/email"
	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/leads"
	leaddomain "crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/scheduler"
	"crm_dashboard_backend/internal/store/backend"
	"crm_dashboard_backend/internal/tasks"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "store", cfg.StoreBackend)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	st := infra.Store

	// Worker-side wiring: the sweeps need tasks, agents for email contacts
	// and notifications; no HTTP handlers are mounted.
	activityModule := activity.NewModule(st, cipher, leaddomain.PIIFields, val, log)
	leadsModule := leads.NewModule(st, cipher, nil, leads.Deps{Activity: activityModule.Service()}, val, log)
	agentsModule := agents.NewModule(st, cipher, leadsModule.Counter(), activityModule.Service(), cfg, val, log)
	tasksModule := tasks.NewModule(st, cipher, agentsModule.Service(), val, log)

	notificationModule := notification.New(inapp.NewRepository(st, cipher), email.NewSender(cfg, log), agentsModule.Service(), log)
	notificationModule.RegisterHandlers(eventBus)

	redisClient, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	automationModule := automation.NewModule(
		st,
		tasksModule.Repository(),
		agentsModule.Service(),
		notificationModule.Notifier(),
		eventBus,
		automation.NewRedisLocker(redisClient, automation.DefaultLockTTL),
		cfg,
		val,
		log,
	)

	statusEvery, cleanupEvery := automationModule.Intervals()
	periodic, err := scheduler.NewPeriodic(cfg, statusEvery, cleanupEvery, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, automationModule.Runner(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
