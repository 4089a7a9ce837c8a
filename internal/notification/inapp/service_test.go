package inapp

import (
	"context"
	"testing"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/session"
)

const tenant = "tenant-1"

var (
	admin  = session.Session{TenantID: tenant, UserID: tenant, Role: session.RoleAdmin}
	agentA = session.Session{TenantID: tenant, UserID: "u-a", AgentID: "a1", Role: session.RoleAgent}
	agentB = session.Session{TenantID: tenant, UserID: "u-b", AgentID: "a2", Role: session.RoleAgent}
	t0     = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
)

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	cipher, err := fieldcipher.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	st := memstore.New()
	svc := NewService(NewRepository(st, cipher), nil)
	tick := t0
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, st
}

func dueSoon(taskID, agentID string) Notification {
	end := t0.Add(6 * time.Hour)
	return Notification{ID: DueSoonKey(taskID), Kind: KindDueSoon, TaskID: taskID, AgentID: agentID, Title: "Send proposal", EndDate: &end}
}

func TestPushUpsertKeepsReadState(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	created, err := svc.Push(ctx, tenant, dueSoon("t1", "a1"))
	if err != nil || !created {
		t.Fatalf("first Push = (%v, %v)", created, err)
	}

	var raw map[string]any
	if err := st.Get(ctx, store.Join(store.Notifications(tenant), DueSoonKey("t1")), &raw); err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if raw["title"] == "Send proposal" {
		t.Fatalf("title stored in clear")
	}

	if err := svc.MarkRead(ctx, agentA, DueSoonKey("t1")); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	first, _ := svc.repo.Get(ctx, tenant, DueSoonKey("t1"))

	created, err = svc.Push(ctx, tenant, dueSoon("t1", "a1"))
	if err != nil || created {
		t.Fatalf("second Push = (%v, %v), want existing record", created, err)
	}
	again, _ := svc.repo.Get(ctx, tenant, DueSoonKey("t1"))
	if !again.Read || !again.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert lost state: read=%v createdAt %v -> %v", again.Read, first.CreatedAt, again.CreatedAt)
	}
	if again.Title != "Send proposal" {
		t.Fatalf("title = %q", again.Title)
	}
}

func TestVisibilityAndBulkRead(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, n := range []Notification{dueSoon("t1", "a1"), dueSoon("t2", "a1"), dueSoon("t3", "a2")} {
		if _, err := svc.Push(ctx, tenant, n); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	tests := []struct {
		name string
		sess session.Session
		want int
	}{
		{name: "admin sees all", sess: admin, want: 3},
		{name: "agent sees own", sess: agentA, want: 2},
		{name: "other agent", sess: agentB, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.List(ctx, tt.sess, false)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(items) != tt.want {
				t.Fatalf("items = %d, want %d", len(items), tt.want)
			}
		})
	}

	if err := svc.MarkRead(ctx, agentB, DueSoonKey("t1")); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign MarkRead err = %v", err)
	}
	if err := svc.Delete(ctx, agentB, DueSoonKey("t1")); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign Delete err = %v", err)
	}

	n, err := svc.MarkAllRead(ctx, agentA)
	if err != nil || n != 2 {
		t.Fatalf("MarkAllRead = (%d, %v), want 2", n, err)
	}
	if unread, _ := svc.CountUnread(ctx, admin); unread != 1 {
		t.Fatalf("admin unread = %d, want 1", unread)
	}

	if err := svc.Delete(ctx, agentB, DueSoonKey("t3")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, agentB, DueSoonKey("t3")); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
}
