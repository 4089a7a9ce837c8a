package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/events"
	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/internal/tasks/domain"
	"crm_dashboard_backend/internal/tasks/repository"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/session"
)

// DueSoonWindow is how far ahead of its end date a task raises a notice.
const DueSoonWindow = 24 * time.Hour

// Kind names a sweep.
type Kind string

const (
	KindStatus  Kind = "status"
	KindCleanup Kind = "cleanup"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStatus, KindCleanup:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown sweep kind %q", s)
}

// Result counts what one sweep of one tenant changed.
type Result struct {
	TenantID string `json:"tenantId"`
	Kind     Kind   `json:"kind"`
	Skipped  bool   `json:"skipped,omitempty"`
	Started  int    `json:"started,omitempty"`
	DueSoon  int    `json:"dueSoon,omitempty"`
	Archived int    `json:"archived,omitempty"`
	Failed   int    `json:"failed,omitempty"`
}

// Changed is the number of records the sweep wrote.
func (r Result) Changed() int {
	return r.Started + r.DueSoon + r.Archived
}

// Notifier persists due-soon notifications.
type Notifier interface {
	Push(ctx context.Context, tenantID string, n inapp.Notification) (bool, error)
}

// Sweeper applies the automation rules to one tenant at a time.
type Sweeper struct {
	tasks    *repository.Repository
	settings *SettingsRepository
	notifier Notifier
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func NewSweeper(tasks *repository.Repository, settings *SettingsRepository, notifier Notifier, bus events.Bus, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.Discard()
	}
	return &Sweeper{
		tasks:    tasks,
		settings: settings,
		notifier: notifier,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Sweep runs one kind of sweep for one tenant.
func (s *Sweeper) Sweep(ctx context.Context, kind Kind, tenantID string) (Result, error) {
	switch kind {
	case KindStatus:
		return s.StatusSweep(ctx, tenantID)
	case KindCleanup:
		return s.CleanupSweep(ctx, tenantID)
	}
	return Result{}, fmt.Errorf("unknown sweep kind %q", kind)
}

// StatusSweep moves pending tasks whose start date has arrived to
// in_progress and raises a due-soon notice for open tasks ending within the
// next day. Per-task failures are counted and logged; the sweep continues.
func (s *Sweeper) StatusSweep(ctx context.Context, tenantID string) (Result, error) {
	res := Result{TenantID: tenantID, Kind: KindStatus}
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return res, err
	}
	if !settings.AutoStatus && !settings.DueSoonNotifications {
		res.Skipped = true
		return res, nil
	}

	tasks, err := s.tasks.List(ctx, tenantID)
	if err != nil {
		return res, err
	}
	now := s.now().UTC()
	log := s.log.WithTenant(tenantID)

	var errs []error
	for _, task := range tasks {
		if settings.AutoStatus && task.ShouldStart(now) {
			err := s.tasks.UpdateFields(ctx, tenantID, task.ID, map[string]any{
				domain.FieldStatus:    domain.StatusInProgress,
				domain.FieldUpdatedAt: now,
			})
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				res.Failed++
				errs = append(errs, err)
				log.Warn("task start failed", "taskId", task.ID, "error", err)
			} else if err == nil {
				task.Status = domain.StatusInProgress
				res.Started++
			}
		}

		if settings.DueSoonNotifications && task.DueWithin(now, DueSoonWindow) {
			if err := s.notifyDueSoon(ctx, tenantID, task, now); err != nil {
				res.Failed++
				errs = append(errs, err)
				log.Warn("due-soon notice failed", "taskId", task.ID, "error", err)
				continue
			}
			res.DueSoon++
		}
	}
	return res, partialFailure(res, errs)
}

func (s *Sweeper) notifyDueSoon(ctx context.Context, tenantID string, task domain.Task, now time.Time) error {
	if s.notifier == nil {
		return nil
	}
	end := task.EndDate
	created, err := s.notifier.Push(ctx, tenantID, inapp.Notification{
		ID:        inapp.DueSoonKey(task.ID),
		Kind:      inapp.KindDueSoon,
		TaskID:    task.ID,
		AgentID:   task.AgentID,
		Title:     task.Title,
		EndDate:   &end,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.TaskDueSoon{
			BaseEvent:   events.NewBaseEventAt(now),
			TenantID:    tenantID,
			TaskID:      task.ID,
			AgentID:     task.AgentID,
			Title:       task.Title,
			EndDate:     task.EndDate,
			FirstNotice: created,
		})
	}
	return nil
}

// CleanupSweep moves completed tasks whose end date is older than the
// tenant's retention into the backup collection, one atomic batch per task.
func (s *Sweeper) CleanupSweep(ctx context.Context, tenantID string) (Result, error) {
	res := Result{TenantID: tenantID, Kind: KindCleanup}
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return res, err
	}
	if !settings.AutoCleanup {
		res.Skipped = true
		return res, nil
	}

	tasks, err := s.tasks.List(ctx, tenantID)
	if err != nil {
		return res, err
	}
	now := s.now().UTC()
	retention := time.Duration(settings.AutoCleanupDays) * 24 * time.Hour
	log := s.log.WithTenant(tenantID)

	var (
		errs     []error
		archived []string
	)
	for _, task := range tasks {
		if !task.Expired(now, retention) {
			continue
		}
		if _, err := s.tasks.MoveToBackup(ctx, tenantID, task, now, session.SystemActor); err != nil {
			res.Failed++
			errs = append(errs, err)
			log.Warn("task cleanup failed", "taskId", task.ID, "error", err)
			continue
		}
		archived = append(archived, task.ID)
	}
	res.Archived = len(archived)

	if len(archived) > 0 && s.bus != nil {
		s.bus.Publish(ctx, events.TasksArchived{
			BaseEvent: events.NewBaseEventAt(now),
			TenantID:  tenantID,
			TaskIDs:   archived,
		})
	}
	return res, partialFailure(res, errs)
}

func partialFailure(res Result, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s sweep: %d of %d writes failed: %w", res.Kind, res.Failed, res.Failed+res.Changed(), errors.Join(errs...))
}
