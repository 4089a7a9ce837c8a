// Package repository persists tasks and their backups in the tenant tree.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/tasks/domain"
	"crm_dashboard_backend/platform/logger"
)

var ErrNotFound = errors.New("task not found")

// Repository keeps active tasks under users/{tenant}/tasks and deleted ones
// under users/{tenant}/backups/tasks.
type Repository struct {
	store  store.Store
	cipher *fieldcipher.Cipher
	log    *logger.Logger
}

func New(s store.Store, c *fieldcipher.Cipher) *Repository {
	return &Repository{store: s, cipher: c, log: logger.Discard()}
}

// WithLogger sets where unreadable records are reported.
func (r *Repository) WithLogger(log *logger.Logger) *Repository {
	if log != nil {
		r.log = log
	}
	return r
}

func coerceTimes(record map[string]any) {
	store.CoerceTimes(record, "startDate", "endDate", "createdAt", "updatedAt", "completedAt", "deletedAt")
}

func (r *Repository) decode(id string, raw json.RawMessage) (domain.Task, error) {
	var task domain.Task
	if _, err := r.cipher.Unseal(raw, domain.PIIFields, coerceTimes, &task); err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	if task.ID == "" {
		task.ID = id
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	return task, nil
}

func (r *Repository) get(ctx context.Context, path, id string) (domain.Task, error) {
	var raw json.RawMessage
	if err := r.store.Get(ctx, store.Join(path, id), &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return r.decode(id, raw)
}

func (r *Repository) list(ctx context.Context, path string) ([]domain.Task, error) {
	children, err := r.store.List(ctx, path)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(children))
	for id, raw := range children {
		task, err := r.decode(id, raw)
		if err != nil {
			r.log.WithContext(ctx).Warn("skipping unreadable task", "path", path, "id", id, "error", err)
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (domain.Task, error) {
	return r.get(ctx, store.Tasks(tenantID), id)
}

func (r *Repository) GetBackup(ctx context.Context, tenantID, id string) (domain.Task, error) {
	return r.get(ctx, store.TaskBackups(tenantID), id)
}

// List returns active tasks ordered by createdAt, then id.
func (r *Repository) List(ctx context.Context, tenantID string) ([]domain.Task, error) {
	return r.list(ctx, store.Tasks(tenantID))
}

func (r *Repository) ListBackups(ctx context.Context, tenantID string) ([]domain.Task, error) {
	return r.list(ctx, store.TaskBackups(tenantID))
}

func (r *Repository) Save(ctx context.Context, tenantID string, task domain.Task) error {
	record, err := r.cipher.Seal(task, domain.PIIFields)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, store.Join(store.Tasks(tenantID), task.ID), record)
}

// UpdateFields merge-updates clear-text fields of an active task.
func (r *Repository) UpdateFields(ctx context.Context, tenantID, id string, fields map[string]any) error {
	path := store.Join(store.Tasks(tenantID), id)
	ok, err := store.Exists(ctx, r.store, path)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Update(ctx, path, fields)
}

// MoveToBackup removes the task from the active collection and writes the
// backup copy in one atomic batch.
func (r *Repository) MoveToBackup(ctx context.Context, tenantID string, task domain.Task, at time.Time, by string) (domain.Task, error) {
	deletedAt := at.UTC()
	task.DeletedAt = &deletedAt
	task.DeletedBy = by

	record, err := r.cipher.Seal(task, domain.PIIFields)
	if err != nil {
		return domain.Task{}, err
	}
	err = r.store.Batch(ctx, map[string]any{
		store.Join(store.Tasks(tenantID), task.ID):       nil,
		store.Join(store.TaskBackups(tenantID), task.ID): record,
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Restore moves a backup back into the active collection, clearing the
// deletion marks.
func (r *Repository) Restore(ctx context.Context, tenantID, id string, at time.Time) (domain.Task, error) {
	task, err := r.GetBackup(ctx, tenantID, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.DeletedAt = nil
	task.DeletedBy = ""
	task.UpdatedAt = at.UTC()

	record, err := r.cipher.Seal(task, domain.PIIFields)
	if err != nil {
		return domain.Task{}, err
	}
	err = r.store.Batch(ctx, map[string]any{
		store.Join(store.TaskBackups(tenantID), id): nil,
		store.Join(store.Tasks(tenantID), id):       record,
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Purge permanently removes a backup.
func (r *Repository) Purge(ctx context.Context, tenantID, id string) error {
	path := store.Join(store.TaskBackups(tenantID), id)
	ok, err := store.Exists(ctx, r.store, path)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Delete(ctx, path)
}
