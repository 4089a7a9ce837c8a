package inapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
)

// KindDueSoon marks notifications raised by the status sweep.
const KindDueSoon = "due_soon"

const (
	fieldRead   = "read"
	fieldReadAt = "readAt"
)

var ErrNotFound = errors.New("notification not found")

// piiFields mirrors the task fields copied into a notification.
var piiFields = fieldcipher.NewFieldSet("title")

// Notification is stored under users/{tenant}/notifications/{id}. Due-soon
// notifications use the key {taskId}_due_soon so repeated sweeps overwrite
// one record.
type Notification struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId,omitempty"`
	AgentID   string     `json:"agentId,omitempty"`
	Title     string     `json:"title"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// DueSoonKey is the notification id for a task's due-soon notice.
func DueSoonKey(taskID string) string {
	return taskID + "_" + KindDueSoon
}

type Repository struct {
	store  store.Store
	cipher *fieldcipher.Cipher
}

func NewRepository(s store.Store, c *fieldcipher.Cipher) *Repository {
	return &Repository{store: s, cipher: c}
}

func (r *Repository) path(tenantID, id string) string {
	return store.Join(store.Notifications(tenantID), id)
}

// Upsert writes n under its id. An existing record keeps its createdAt and
// read state so an acknowledged notice stays acknowledged. It reports
// whether the record is new.
func (r *Repository) Upsert(ctx context.Context, tenantID string, n Notification) (bool, error) {
	existing, err := r.Get(ctx, tenantID, n.ID)
	created := errors.Is(err, ErrNotFound)
	switch {
	case created:
	case err != nil:
		return false, err
	default:
		n.CreatedAt = existing.CreatedAt
		n.Read = existing.Read
		n.ReadAt = existing.ReadAt
	}

	record, err := r.cipher.Seal(n, piiFields)
	if err != nil {
		return false, err
	}
	if err := r.store.Set(ctx, r.path(tenantID, n.ID), record); err != nil {
		return false, err
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Notification, error) {
	var raw json.RawMessage
	if err := r.store.Get(ctx, r.path(tenantID, id), &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, err
	}
	return r.decode(id, raw)
}

func (r *Repository) decode(id string, raw json.RawMessage) (Notification, error) {
	var n Notification
	if _, err := r.cipher.Unseal(raw, piiFields, nil, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification %s: %w", id, err)
	}
	if n.ID == "" {
		n.ID = id
	}
	return n, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	AgentID    string
	UnreadOnly bool
}

// List returns notifications newest first.
func (r *Repository) List(ctx context.Context, tenantID string, f ListFilter) ([]Notification, error) {
	children, err := r.store.List(ctx, store.Notifications(tenantID))
	if err != nil {
		return nil, err
	}
	items := make([]Notification, 0, len(children))
	for id, raw := range children {
		n, err := r.decode(id, raw)
		if err != nil {
			return nil, err
		}
		if f.AgentID != "" && n.AgentID != f.AgentID {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		items = append(items, n)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *Repository) MarkRead(ctx context.Context, tenantID, id string, at time.Time) error {
	ok, err := store.Exists(ctx, r.store, r.path(tenantID, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Update(ctx, r.path(tenantID, id), map[string]any{
		fieldRead:   true,
		fieldReadAt: at.UTC(),
	})
}

// MarkManyRead flags every id in one batch.
func (r *Repository) MarkManyRead(ctx context.Context, tenantID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	writes := make(map[string]any, 2*len(ids))
	for _, id := range ids {
		writes[store.Join(r.path(tenantID, id), fieldRead)] = true
		writes[store.Join(r.path(tenantID, id), fieldReadAt)] = at.UTC()
	}
	return r.store.Batch(ctx, writes)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	ok, err := store.Exists(ctx, r.store, r.path(tenantID, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Delete(ctx, r.path(tenantID, id))
}
