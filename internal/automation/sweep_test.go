package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/internal/tasks/domain"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/platform/session"
)

const tenant = "tenant-1"

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fixture struct {
	store    *memstore.Store
	tasks    *repository.Repository
	settings *SettingsRepository
	notices  *inapp.Repository
	bus      *recordingBus
	sweeper  *Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cipher, err := fieldcipher.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	st := memstore.New()
	f := &fixture{
		store:    st,
		tasks:    repository.New(st, cipher),
		settings: NewSettingsRepository(st, DefaultCleanupDays),
		notices:  inapp.NewRepository(st, cipher),
		bus:      &recordingBus{},
	}
	f.sweeper = NewSweeper(f.tasks, f.settings, inapp.NewService(f.notices, nil), f.bus, nil)
	f.sweeper.now = func() time.Time { return now }
	return f
}

func (f *fixture) seed(t *testing.T, tasks ...domain.Task) {
	t.Helper()
	for _, task := range tasks {
		if task.Title == "" {
			task.Title = "task " + task.ID
		}
		task.CreatedAt = now.Add(-72 * time.Hour)
		if err := f.tasks.Save(context.Background(), tenant, task); err != nil {
			t.Fatalf("seed %s: %v", task.ID, err)
		}
	}
}

func (f *fixture) status(t *testing.T, id string) domain.Status {
	t.Helper()
	task, err := f.tasks.GetByID(context.Background(), tenant, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return task.Status
}

func TestStatusSweep(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		domain.Task{ID: "started", AgentID: "a1", Status: domain.StatusPending, StartDate: now.Add(-time.Hour), EndDate: now.Add(72 * time.Hour)},
		domain.Task{ID: "future", AgentID: "a1", Status: domain.StatusPending, StartDate: now.Add(time.Hour), EndDate: now.Add(72 * time.Hour)},
		domain.Task{ID: "due", AgentID: "a2", Title: "Send proposal", Status: domain.StatusInProgress, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(2 * time.Hour)},
		domain.Task{ID: "done", AgentID: "a2", Status: domain.StatusCompleted, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(2 * time.Hour)},
		domain.Task{ID: "overdue", AgentID: "a2", Status: domain.StatusInProgress, StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Hour)},
	)
	ctx := context.Background()

	res, err := f.sweeper.StatusSweep(ctx, tenant)
	if err != nil {
		t.Fatalf("StatusSweep: %v", err)
	}
	if res.Started != 1 || res.DueSoon != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if got := f.status(t, "started"); got != domain.StatusInProgress {
		t.Fatalf("started status = %s", got)
	}
	if got := f.status(t, "future"); got != domain.StatusPending {
		t.Fatalf("future status = %s", got)
	}

	n, err := f.notices.Get(ctx, tenant, inapp.DueSoonKey("due"))
	if err != nil {
		t.Fatalf("due-soon notification: %v", err)
	}
	if n.Title != "Send proposal" || n.AgentID != "a2" || n.Kind != inapp.KindDueSoon {
		t.Fatalf("notification = %+v", n)
	}

	if _, err := f.sweeper.StatusSweep(ctx, tenant); err != nil {
		t.Fatalf("second StatusSweep: %v", err)
	}
	all, err := f.notices.List(ctx, tenant, inapp.ListFilter{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("notifications = %d, want 1 after repeated sweeps", len(all))
	}

	var first []bool
	for _, e := range f.bus.events {
		if due, ok := e.(events.TaskDueSoon); ok {
			first = append(first, due.FirstNotice)
		}
	}
	if len(first) != 2 || !first[0] || first[1] {
		t.Fatalf("FirstNotice sequence = %v, want [true false]", first)
	}
}

func TestStatusSweepSkippedWhenDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.settings.Save(ctx, tenant, Settings{AutoCleanupDays: 30}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	f.seed(t, domain.Task{ID: "t", Status: domain.StatusPending, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)})

	res, err := f.sweeper.StatusSweep(ctx, tenant)
	if err != nil || !res.Skipped {
		t.Fatalf("StatusSweep = (%+v, %v), want skipped", res, err)
	}
	if got := f.status(t, "t"); got != domain.StatusPending {
		t.Fatalf("status = %s", got)
	}
}

func TestCleanupSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t,
		domain.Task{ID: "old", Status: domain.StatusCompleted, StartDate: now.Add(-40 * 24 * time.Hour), EndDate: now.Add(-31 * 24 * time.Hour)},
		domain.Task{ID: "recent", Status: domain.StatusCompleted, StartDate: now.Add(-20 * 24 * time.Hour), EndDate: now.Add(-10 * 24 * time.Hour)},
		domain.Task{ID: "open", Status: domain.StatusInProgress, StartDate: now.Add(-90 * 24 * time.Hour), EndDate: now.Add(-60 * 24 * time.Hour)},
	)

	res, err := f.sweeper.CleanupSweep(ctx, tenant)
	if err != nil || !res.Skipped {
		t.Fatalf("cleanup with defaults = (%+v, %v), want skipped", res, err)
	}

	if err := f.settings.Save(ctx, tenant, Settings{AutoCleanup: true, AutoCleanupDays: 30}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	res, err = f.sweeper.CleanupSweep(ctx, tenant)
	if err != nil {
		t.Fatalf("CleanupSweep: %v", err)
	}
	if res.Archived != 1 {
		t.Fatalf("archived = %d, want 1", res.Archived)
	}

	if _, err := f.tasks.GetByID(ctx, tenant, "old"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("old task still active: %v", err)
	}
	backup, err := f.tasks.GetBackup(ctx, tenant, "old")
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if backup.DeletedBy != session.SystemActor || backup.DeletedAt == nil {
		t.Fatalf("backup marks = %q %v", backup.DeletedBy, backup.DeletedAt)
	}
	for _, id := range []string{"recent", "open"} {
		if _, err := f.tasks.GetByID(ctx, tenant, id); err != nil {
			t.Fatalf("%s should stay active: %v", id, err)
		}
	}

	if len(f.bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(f.bus.events))
	}
	archived, ok := f.bus.events[0].(events.TasksArchived)
	if !ok || len(archived.TaskIDs) != 1 || archived.TaskIDs[0] != "old" {
		t.Fatalf("event = %+v", f.bus.events[0])
	}
}

func TestCleanupSweepWriteFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.settings.Save(ctx, tenant, Settings{AutoCleanup: true, AutoCleanupDays: 1}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	f.seed(t, domain.Task{ID: "old", Status: domain.StatusCompleted, StartDate: now.Add(-10 * 24 * time.Hour), EndDate: now.Add(-5 * 24 * time.Hour)})
	f.store.FailWrites(errors.New("write rejected"))

	res, err := f.sweeper.CleanupSweep(ctx, tenant)
	if err == nil {
		t.Fatalf("expected partial failure")
	}
	if res.Failed != 1 || res.Archived != 0 {
		t.Fatalf("result = %+v", res)
	}

	f.store.FailWrites(nil)
	if _, err := f.tasks.GetByID(ctx, tenant, "old"); err != nil {
		t.Fatalf("task lost after failed cleanup: %v", err)
	}
	if len(f.bus.events) != 0 {
		t.Fatalf("archived event published for a failed cleanup")
	}
}
