package automation

import (
	"context"
	"testing"
	"time"

	"crm_dashboard_backend/internal/tasks/domain"
)

func TestRunAllSweepsEveryEnrolledTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"t-b", "t-a"} {
		if err := f.settings.Enrol(ctx, id); err != nil {
			t.Fatalf("enrol %s: %v", id, err)
		}
		task := domain.Task{ID: "p-" + id, Title: "x", Status: domain.StatusPending, StartDate: now.Add(-time.Hour), EndDate: now.Add(72 * time.Hour)}
		if err := f.tasks.Save(ctx, id, task); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	runner := NewRunner(f.sweeper, f.settings, nil, 2, nil)
	results, err := runner.RunAll(ctx, KindStatus)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 2 || results[0].TenantID != "t-a" || results[1].TenantID != "t-b" {
		t.Fatalf("results = %+v", results)
	}
	for _, res := range results {
		if res.Started != 1 {
			t.Fatalf("tenant %s started %d, want 1", res.TenantID, res.Started)
		}
	}
}

func TestRunTenantSkipsWhenLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	locker := NewLocalLocker()
	release, _, _ := locker.Acquire(ctx, LockKey(KindStatus, tenant))
	defer release()

	runner := NewRunner(f.sweeper, f.settings, locker, 1, nil)
	res, err := runner.RunTenant(ctx, KindStatus, tenant)
	if err != nil || !res.Skipped {
		t.Fatalf("RunTenant = (%+v, %v), want skipped", res, err)
	}
	if _, err := runner.RunTenant(ctx, KindCleanup, tenant); err != nil {
		t.Fatalf("cleanup should not be blocked by the status lock: %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"status", "cleanup"} {
		if _, err := ParseKind(s); err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("purge"); err == nil {
		t.Fatalf("ParseKind accepted an unknown kind")
	}
}
