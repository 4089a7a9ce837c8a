// Package backend opens the store.Store selected by STORE_BACKEND together
// with the clients it depends on.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/store/firebasestore"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/internal/store/pgstore"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/db"
	"crm_dashboard_backend/platform/firebase"
	"crm_dashboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config combines the settings every backend may need.
type Config interface {
	config.StoreConfig
	config.FirebaseConfig
	config.DatabaseConfig
}

// Backend is an opened store plus its health check.
type Backend struct {
	Store    store.Store
	Health   HealthChecker
	Firebase *firebase.App
	pool     *pgxpool.Pool
}

// HealthChecker matches the router's readiness check.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Open connects to the configured backend. Connections are retried with a
// quadratic backoff; Postgres migrations run before the store is returned.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Backend, error) {
	b := &Backend{}

	if cfg.GetStoreBackend() == config.StoreBackendFirebase || cfg.IsFirebaseAuthEnabled() {
		app, err := firebase.NewApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.Firebase = app
	}

	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory:
		log.Warn("using in-memory store; data is lost on restart")
		b.Store = memstore.New()

	case config.StoreBackendFirebase:
		client, err := b.Firebase.Database(ctx)
		if err != nil {
			return nil, err
		}
		st := firebasestore.New(client, cfg.GetStoreWatchInterval(), log)
		b.Store = st
		b.Health = pinger{store: st}

	case config.StoreBackendPostgres:
		if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			b.pool = p
			return nil
		}); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, b.pool)
		}); err != nil {
			b.pool.Close()
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
		log.Info("database migrations complete")
		b.Store = pgstore.New(b.pool, log)
		b.Health = db.NewPoolAdapter(b.pool)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.GetStoreBackend())
	}

	log.Info("store opened", "backend", cfg.GetStoreBackend())
	return b, nil
}

// Close releases backend connections.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// pinger checks reachability by listing the small automation index.
type pinger struct {
	store store.Store
}

func (p pinger) Ping(ctx context.Context) error {
	_, err := p.store.List(ctx, store.AutomationTenants())
	return err
}

// WithRetry runs fn up to attempts times, sleeping attempt²·baseDelay
// between failures.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
