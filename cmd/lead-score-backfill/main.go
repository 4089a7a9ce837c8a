package main

import (
	"context"
	"os"
	"strings"

	"crm_dashboard_backend/internal/automation"
	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/leads"
	"crm_dashboard_backend/internal/leads/scoring"
	"crm_dashboard_backend/internal/store/backend"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
)

// Recomputes stored lead scores after a weights change. Tenants come from
// the command line, then TENANT_IDS, then the automation tenant index.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead score backfill")

	ctx := context.Background()
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

	scorer := scoring.Default
	if path := cfg.GetScoringWeightsFile(); path != "" {
		weights, err := scoring.LoadWeights(path)
		if err != nil {
			log.Error("failed to load scoring weights", "error", err, "file", path)
			panic("failed to load scoring weights: " + err.Error())
		}
		scorer = scoring.New(weights)
	}

	leadsModule := leads.NewModule(infra.Store, cipher, scorer, leads.Deps{}, validator.New(), log)
	var rescorer leads.Rescorer = leadsModule.ManagementService()

	tenants := tenantIDs()
	if len(tenants) == 0 {
		settings := automation.NewSettingsRepository(infra.Store, cfg.GetAutomationDefaultCleanupDays())
		tenants, err = settings.Tenants(ctx)
		if err != nil {
			log.Error("failed to list tenants", "error", err)
			return
		}
	}
	if len(tenants) == 0 {
		log.Info("no tenants to backfill")
		return
	}

	failed := 0
	for _, tenantID := range tenants {
		updated, err := rescorer.RecalculateAll(ctx, tenantID)
		if err != nil {
			failed++
			log.Error("score backfill failed", "tenantId", tenantID, "error", err)
			continue
		}
		log.Info("scores recalculated", "tenantId", tenantID, "updated", updated)
	}

	if failed > 0 {
		log.Error("score backfill finished with failures", "failed", failed, "tenants", len(tenants))
		os.Exit(1)
	}
	log.Info("score backfill complete", "tenants", len(tenants))
}

func tenantIDs() []string {
	raw := os.Args[1:]
	if len(raw) == 0 {
		raw = strings.Split(os.Getenv("TENANT_IDS"), ",")
	}
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
