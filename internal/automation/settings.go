// Package automation runs the periodic task sweeps (status advance,
// due-soon notices, cleanup of old completed tasks) and the least-busy
// agent selection used for auto-assignment.
package automation

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"crm_dashboard_backend/internal/store"
)

// DefaultCleanupDays applies when a tenant never saved a threshold.
const DefaultCleanupDays = 30

// Settings are the per-tenant switches stored at
// users/{tenant}/settings/automation.
type Settings struct {
	AutoStatus           bool `json:"autoStatus"`
	AutoCleanup          bool `json:"autoCleanup"`
	AutoCleanupDays      int  `json:"autoCleanupDays" validate:"min=1,max=3650"`
	AutoAssign           bool `json:"autoAssign"`
	DueSoonNotifications bool `json:"dueSoonNotifications"`
}

// DefaultSettings enables the status sweep and due-soon notices; cleanup
// and auto-assignment are opt-in.
func DefaultSettings(cleanupDays int) Settings {
	if cleanupDays < 1 {
		cleanupDays = DefaultCleanupDays
	}
	return Settings{
		AutoStatus:           true,
		AutoCleanupDays:      cleanupDays,
		DueSoonNotifications: true,
	}
}

// SettingsRepository reads and writes tenant settings and the enrolment
// index the sweeps iterate.
type SettingsRepository struct {
	store       store.Store
	cleanupDays int
}

func NewSettingsRepository(s store.Store, defaultCleanupDays int) *SettingsRepository {
	return &SettingsRepository{store: s, cleanupDays: defaultCleanupDays}
}

// Get returns the tenant's settings, or the defaults when none are stored.
func (r *SettingsRepository) Get(ctx context.Context, tenantID string) (Settings, error) {
	settings := DefaultSettings(r.cleanupDays)
	err := r.store.Get(ctx, store.AutomationSettings(tenantID), &settings)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultSettings(r.cleanupDays), nil
	}
	if err != nil {
		return Settings{}, err
	}
	if settings.AutoCleanupDays < 1 {
		settings.AutoCleanupDays = DefaultSettings(r.cleanupDays).AutoCleanupDays
	}
	return settings, nil
}

// Save stores settings and enrols the tenant for sweeps in one batch.
func (r *SettingsRepository) Save(ctx context.Context, tenantID string, s Settings) error {
	return r.store.Batch(ctx, map[string]any{
		store.AutomationSettings(tenantID):               s,
		store.Join(store.AutomationTenants(), tenantID): true,
	})
}

// Enrol adds a tenant to the sweep index without touching its settings.
func (r *SettingsRepository) Enrol(ctx context.Context, tenantID string) error {
	return r.store.Set(ctx, store.Join(store.AutomationTenants(), tenantID), true)
}

// Tenants lists enrolled tenants in id order.
func (r *SettingsRepository) Tenants(ctx context.Context) ([]string, error) {
	children, err := r.store.List(ctx, store.AutomationTenants())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(children))
	for id, raw := range children {
		var enrolled bool
		if err := json.Unmarshal(raw, &enrolled); err == nil && !enrolled {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
