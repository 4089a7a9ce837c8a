// Package http holds the composition types shared by the API binary and
// its router.
package http

import (
	"context"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/events"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/logger"
)

type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker reports whether the data store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the router needs, assembled in cmd/api.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	Verifier httpkit.TokenVerifier
	EventBus events.Bus
	Modules  []Module
}

// Subscribe registers the event handlers of every module that has any and
// returns the names of those modules.
func (a *App) Subscribe() []string {
	if a.EventBus == nil {
		return nil
	}
	var names []string
	for _, m := range a.Modules {
		sub, ok := m.(Subscriber)
		if !ok {
			continue
		}
		sub.RegisterHandlers(a.EventBus)
		names = append(names, m.Name())
	}
	return names
}
