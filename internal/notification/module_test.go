package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/platform/logger"
)

type sentEmail struct {
	kind  string
	to    string
	title string
}

type fakeSender struct {
	sent []sentEmail
	err  error
}

func (s *fakeSender) SendTaskDueSoonEmail(_ context.Context, to, _, title string, _ time.Time) error {
	s.sent = append(s.sent, sentEmail{kind: "due_soon", to: to, title: title})
	return s.err
}

func (s *fakeSender) SendTaskAssignedEmail(_ context.Context, to, _, title string, _, _ time.Time) error {
	s.sent = append(s.sent, sentEmail{kind: "assigned", to: to, title: title})
	return s.err
}

type contacts map[string]string

func (c contacts) Contact(_ context.Context, _, agentID string) (string, string, error) {
	addr, ok := c[agentID]
	if !ok {
		return "", "", errors.New("agent not found")
	}
	return "Agent " + agentID, addr, nil
}

func newModule(t *testing.T, sender *fakeSender) (*Module, events.Bus) {
	t.Helper()
	cipher, err := fieldcipher.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	m := New(inapp.NewRepository(memstore.New(), cipher), sender, contacts{"a1": "a1@example.com", "a2": ""}, nil)
	bus := events.NewInMemoryBus(logger.Discard())
	m.RegisterHandlers(bus)
	return m, bus
}

func TestDueSoonEmailOnlyOnFirstNotice(t *testing.T) {
	tests := []struct {
		name  string
		event events.TaskDueSoon
		want  int
	}{
		{name: "first notice", event: events.TaskDueSoon{TenantID: "t", TaskID: "x", AgentID: "a1", Title: "Call", FirstNotice: true}, want: 1},
		{name: "repeat notice", event: events.TaskDueSoon{TenantID: "t", TaskID: "x", AgentID: "a1", Title: "Call"}},
		{name: "unassigned task", event: events.TaskDueSoon{TenantID: "t", TaskID: "x", Title: "Call", FirstNotice: true}},
		{name: "agent without email", event: events.TaskDueSoon{TenantID: "t", TaskID: "x", AgentID: "a2", Title: "Call", FirstNotice: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			_, bus := newModule(t, sender)
			if err := bus.PublishSync(context.Background(), tt.event); err != nil {
				t.Fatalf("PublishSync: %v", err)
			}
			if len(sender.sent) != tt.want {
				t.Fatalf("emails = %d, want %d", len(sender.sent), tt.want)
			}
		})
	}
}

func TestAutoAssignedSendsEmail(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newModule(t, sender)
	err := bus.PublishSync(context.Background(), events.TaskAutoAssigned{TenantID: "t", TaskID: "x", AgentID: "a1", Title: "Demo"})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != (sentEmail{kind: "assigned", to: "a1@example.com", title: "Demo"}) {
		t.Fatalf("sent = %+v", sender.sent)
	}

	err = bus.PublishSync(context.Background(), events.TaskAutoAssigned{TenantID: "t", TaskID: "y", AgentID: "ghost", Title: "Demo"})
	if err == nil {
		t.Fatalf("unknown agent should surface an error")
	}
}

func TestSenderFailureIsReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	_, bus := newModule(t, sender)
	err := bus.PublishSync(context.Background(), events.TaskDueSoon{TenantID: "t", TaskID: "x", AgentID: "a1", FirstNotice: true})
	if err == nil {
		t.Fatalf("expected sender error")
	}
}
