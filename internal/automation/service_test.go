package automation

import (
	"context"
	"errors"
	"testing"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/session"
)

type fakeEnqueuer struct {
	kinds []Kind
	err   error
}

func (e *fakeEnqueuer) EnqueueSweep(_ context.Context, kind Kind, _ string) error {
	e.kinds = append(e.kinds, kind)
	return e.err
}

var (
	adminSess = session.Session{TenantID: tenant, UserID: tenant, Role: session.RoleAdmin}
	agentSess = session.Session{TenantID: tenant, UserID: "u1", AgentID: "a1", Role: session.RoleAgent}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	f := newFixture(t)
	return NewService(f.settings, NewRunner(f.sweeper, f.settings, nil, 1, nil), nil)
}

func TestSettingsRoundTripAndDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.GetSettings(ctx, adminSess)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got != DefaultSettings(DefaultCleanupDays) {
		t.Fatalf("defaults = %+v", got)
	}

	want := Settings{AutoCleanup: true, AutoCleanupDays: 7, AutoAssign: true}
	if _, err := svc.SaveSettings(ctx, adminSess, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, _ = svc.GetSettings(ctx, adminSess)
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}

	tenants, err := svc.settings.Tenants(ctx)
	if err != nil || len(tenants) != 1 || tenants[0] != tenant {
		t.Fatalf("enrolled tenants = %v (%v)", tenants, err)
	}

	if _, err := svc.GetSettings(ctx, agentSess); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("agent GetSettings err = %v", err)
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t)
	resp, err := svc.Run(ctx, adminSess, RunRequest{})
	if err != nil {
		t.Fatalf("Run inline: %v", err)
	}
	if resp.Queued || len(resp.Results) != 2 {
		t.Fatalf("inline response = %+v", resp)
	}

	if _, err := svc.Run(ctx, adminSess, RunRequest{Kind: "purge"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown kind err = %v", err)
	}
	if _, err := svc.Run(ctx, agentSess, RunRequest{}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("agent Run err = %v", err)
	}

	q := &fakeEnqueuer{}
	svc.SetEnqueuer(q)
	resp, err = svc.Run(ctx, adminSess, RunRequest{Kind: "cleanup"})
	if err != nil || !resp.Queued {
		t.Fatalf("queued Run = (%+v, %v)", resp, err)
	}
	if len(q.kinds) != 1 || q.kinds[0] != KindCleanup {
		t.Fatalf("enqueued = %v", q.kinds)
	}

	q.err = errors.New("redis down")
	if _, err := svc.Run(ctx, adminSess, RunRequest{}); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("enqueue failure err = %v", err)
	}
}
