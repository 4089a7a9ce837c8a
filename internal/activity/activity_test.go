package activity

import (
	"context"
	"strings"
	"testing"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/platform/session"
)

const tenant = "tenant-1"

type record struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Score   int    `json:"score"`
	Active  bool   `json:"active"`
	Updated string `json:"updatedAt"`
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		before record
		after  record
		want   []string
	}{
		{name: "no change", before: record{Name: "a"}, after: record{Name: "a"}},
		{name: "ignored fields", before: record{Name: "a", Score: 1, Updated: "x"}, after: record{Name: "a", Score: 9, Updated: "y"}},
		{name: "sorted fields", before: record{Name: "a"}, after: record{Name: "b", Active: true}, want: []string{"active", "name"}},
		{name: "field added", before: record{Name: "a"}, after: record{Name: "a", Email: "a@x.io"}, want: []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := Diff(tt.before, tt.after, "score", "updatedAt")
			if err != nil {
				t.Fatalf("diff: %v", err)
			}
			if len(changes) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, changes)
			}
			for i, field := range tt.want {
				if changes[i].Field != field {
					t.Fatalf("expected field %s at %d, got %s", field, i, changes[i].Field)
				}
			}
		})
	}
}

func TestDiffMissingSideIsNil(t *testing.T) {
	changes, err := Diff(record{Name: "a"}, record{Name: "a", Email: "a@x.io"})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, ch := range changes {
		if ch.Field == "email" && (ch.From != nil || ch.To != "a@x.io") {
			t.Fatalf("unexpected email change: %+v", ch)
		}
	}
}

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	cipher, err := fieldcipher.New([]byte("activity-test-secret"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	st := memstore.New()
	svc := NewService(NewRepository(st, cipher, fieldcipher.NewFieldSet("email")), nil)
	return svc, st
}

func TestAppendSealsSensitiveChanges(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	admin := session.Session{TenantID: tenant, UserID: "owner", Role: session.RoleAdmin}

	svc.Log(ctx, admin, Entry{
		LeadID:  "lead-1",
		Action:  ActionUpdated,
		Changes: []Change{{Field: "email", From: "old@x.io", To: "new@x.io"}, {Field: "score", From: 1.0, To: 2.0}},
	})

	children, err := st.List(ctx, store.Activity(tenant))
	if err != nil || len(children) != 1 {
		t.Fatalf("expected one stored record, got %d (%v)", len(children), err)
	}
	for _, raw := range children {
		if string(raw) == "" || containsAny(string(raw), "old@x.io", "new@x.io") {
			t.Fatalf("sensitive change stored in clear: %s", raw)
		}
	}

	records, err := svc.List(ctx, admin, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	rec := records[0]
	if rec.ActorID != "owner" || rec.ActorRole != "admin" {
		t.Fatalf("unexpected actor: %+v", rec)
	}
	if rec.Changes[0].From != "old@x.io" || rec.Changes[0].To != "new@x.io" {
		t.Fatalf("expected decrypted change, got %+v", rec.Changes[0])
	}
}

func TestLogSkipsEmptyUpdate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := session.Session{TenantID: tenant, UserID: "owner", Role: session.RoleAdmin}
	svc.Log(ctx, admin, Entry{LeadID: "lead-1", Action: ActionUpdated})

	records, err := svc.List(ctx, admin, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected nothing recorded, got %+v", records)
	}
}

func TestListOrderAndFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := session.Session{TenantID: tenant, UserID: "owner", Role: session.RoleAdmin}
	agent := session.Session{TenantID: tenant, UserID: "u", AgentID: "a1", Role: session.RoleAgent}

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	svc.Log(ctx, admin, Entry{LeadID: "lead-1", Action: ActionCreated})
	svc.Log(ctx, agent, Entry{LeadID: "lead-1", Action: ActionDeleted})
	svc.Log(ctx, admin, Entry{LeadID: "lead-2", Action: ActionCreated})

	all, err := svc.List(ctx, admin, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].LeadID != "lead-2" || all[2].Action != ActionCreated {
		t.Fatalf("expected newest first, got %+v", all)
	}

	byLead, _ := svc.List(ctx, admin, Filter{LeadID: "lead-1"})
	if len(byLead) != 2 {
		t.Fatalf("expected 2 records for lead-1, got %d", len(byLead))
	}

	// Agents only see their own records, whatever filter they send.
	own, _ := svc.List(ctx, agent, Filter{ActorID: "owner"})
	if len(own) != 1 || own[0].ActorID != "a1" {
		t.Fatalf("expected only the agent's record, got %+v", own)
	}

	limited, _ := svc.List(ctx, admin, Filter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
