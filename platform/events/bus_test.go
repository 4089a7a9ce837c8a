package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncRunsHandlersInOrderAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var order []int
	boom := errors.New("boom")

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return boom
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected handlers to run in order [1 2], got %v", order)
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(nil)
	done := make(chan struct{})

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

type scopedEvent struct {
	BaseEvent
	tenant string
}

func (scopedEvent) EventName() string { return "test.scoped" }
func (e scopedEvent) Tenant() string { return e.tenant }

func TestTenantOf(t *testing.T) {
	if got := TenantOf(scopedEvent{tenant: "acme"}); got != "acme" {
		t.Fatalf("expected acme, got %q", got)
	}
	if got := TenantOf(pingEvent{}); got != "" {
		t.Fatalf("expected empty tenant for unscoped event, got %q", got)
	}
}

func TestNewBaseEventAtUsesUTC(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	ev := NewBaseEventAt(at)
	if !ev.OccurredAt().Equal(at) || ev.OccurredAt().Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", at, ev.OccurredAt())
	}
}
