package events

import (
	"context"

	platformevents "crm_dashboard_backend/platform/events"
	"crm_dashboard_backend/platform/logger"
)

// InMemoryBus is the bus used by both binaries.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// On subscribes fn to events of type E. The name is taken from E's zero
// value, and events of any other concrete type are ignored.
func On[E Event](bus Bus, fn func(ctx context.Context, event E) error) {
	var zero E
	bus.Subscribe(zero.EventName(), HandlerFunc(func(ctx context.Context, event Event) error {
		typed, ok := event.(E)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	}))
}
