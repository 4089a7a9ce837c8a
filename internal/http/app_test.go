package http

import (
	"context"
	"testing"

	"crm_dashboard_backend/platform/events"
)

type routesOnly struct{ name string }

func (m routesOnly) Name() string { return m.name }
func (m routesOnly) RegisterRoutes(ctx *RouterContext) {}

type subscribing struct {
	routesOnly
	subscribed *int
}

func (m subscribing) RegisterHandlers(bus events.Bus) {
	*m.subscribed++
	bus.Subscribe("noop", events.HandlerFunc(func(context.Context, events.Event) error { return nil }))
}

func TestSubscribeOnlyCallsSubscribers(t *testing.T) {
	count := 0
	app := &App{
		EventBus: events.NewInMemoryBus(nil),
		Modules: []Module{
			routesOnly{name: "leads"},
			subscribing{routesOnly: routesOnly{name: "notification"}, subscribed: &count},
		},
	}

	names := app.Subscribe()
	if count != 1 {
		t.Fatalf("expected one subscription, got %d", count)
	}
	if len(names) != 1 || names[0] != "notification" {
		t.Fatalf("expected [notification], got %v", names)
	}
}

func TestSubscribeWithoutBus(t *testing.T) {
	app := &App{Modules: []Module{routesOnly{name: "leads"}}}
	if names := app.Subscribe(); names != nil {
		t.Fatalf("expected nil without a bus, got %v", names)
	}
}
