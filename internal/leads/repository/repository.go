package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/logger"
)

var ErrNotFound = errors.New("lead not found")

// Repository persists leads in the tenant tree with PII fields sealed.
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

func (r *Repository) seal(lead domain.Lead) (map[string]any, error) {
	return r.cipher.Seal(lead, domain.PIIFields)
}

func (r *Repository) open(id string, raw json.RawMessage) (domain.Lead, int, error) {
	var lead domain.Lead
	fallbacks, err := r.cipher.Unseal(raw, domain.PIIFields, normalize, &lead)
	if err != nil {
		return domain.Lead{}, fallbacks, fmt.Errorf("decode lead %s: %w", id, err)
	}
	if lead.ID == "" {
		lead.ID = id
	}
	return lead, fallbacks, nil
}

func normalize(record map[string]any) {
	domain.NormalizeRecord(record)
	store.CoerceTimes(record, domain.FieldCreatedAt, domain.FieldUpdatedAt, domain.FieldDeletedAt, domain.FieldScheduledCall)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (domain.Lead, error) {
	return r.get(ctx, store.Join(store.Leads(tenantID), id), id)
}

func (r *Repository) get(ctx context.Context, path, id string) (domain.Lead, error) {
	var raw json.RawMessage
	if err := r.store.Get(ctx, path, &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Lead{}, ErrNotFound
		}
		return domain.Lead{}, err
	}
	lead, _, err := r.open(id, raw)
	return lead, err
}

func (r *Repository) List(ctx context.Context, tenantID string) ([]domain.Lead, error) {
	leads, _, err := r.list(ctx, store.Leads(tenantID))
	return leads, err
}

func (r *Repository) ListDeleted(ctx context.Context, tenantID string) ([]domain.Lead, error) {
	leads, _, err := r.list(ctx, store.DeletedLeads(tenantID))
	return leads, err
}

func (r *Repository) list(ctx context.Context, path string) ([]domain.Lead, CipherStatus, error) {
	children, err := r.store.List(ctx, path)
	if err != nil {
		return nil, CipherStatus{}, err
	}

	var status CipherStatus
	leads := make([]domain.Lead, 0, len(children))
	for id, raw := range children {
		lead, fallbacks, err := r.open(id, raw)
		if err != nil {
			// Undecodable documents are counted and left out of the listing.
			status.RecordsSkipped++
			r.log.WithContext(ctx).Warn("skipping unreadable lead", "path", path, "id", id, "error", err)
			continue
		}
		status.LeadsChecked++
		if fallbacks > 0 {
			status.LeadsAffected++
			status.FieldFallbacks += fallbacks
		}
		leads = append(leads, lead)
	}
	domain.SortByCreation(leads)
	return leads, status, nil
}

func (r *Repository) Count(ctx context.Context, tenantID string) (int, error) {
	children, err := r.store.List(ctx, store.Leads(tenantID))
	if err != nil {
		return 0, err
	}
	return len(children), nil
}

func (r *Repository) Save(ctx context.Context, tenantID string, lead domain.Lead) error {
	record, err := r.seal(lead)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, store.Join(store.Leads(tenantID), lead.ID), record)
}

// SaveMany writes every lead in one batch.
func (r *Repository) SaveMany(ctx context.Context, tenantID string, leads []domain.Lead) error {
	writes := make(map[string]any, len(leads))
	for _, lead := range leads {
		record, err := r.seal(lead)
		if err != nil {
			return err
		}
		writes[store.Join(store.Leads(tenantID), lead.ID)] = record
	}
	return r.store.Batch(ctx, writes)
}

// UpdateScores writes only the score field of each lead that is still
// active and returns how many it wrote. A lead moved to the deleted
// collection since the scores were computed is skipped.
func (r *Repository) UpdateScores(ctx context.Context, tenantID string, scores map[string]int) (int, error) {
	updates := make(map[string]map[string]any, len(scores))
	for id, score := range scores {
		updates[store.Join(store.Leads(tenantID), id)] = map[string]any{domain.FieldScore: score}
	}
	skipped, err := r.store.UpdateExisting(ctx, updates)
	if err != nil {
		return 0, err
	}
	return len(scores) - len(skipped), nil
}

// SoftDelete moves the given leads to the deleted collection in a single
// batch: either every lead moves or none does. Missing ids are skipped.
func (r *Repository) SoftDelete(ctx context.Context, tenantID string, ids []string, at time.Time) ([]domain.Lead, error) {
	writes := make(map[string]any, len(ids)*2)
	moved := make([]domain.Lead, 0, len(ids))
	for _, id := range ids {
		lead, err := r.GetByID(ctx, tenantID, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		deletedAt := at
		lead.IsDeleted = true
		lead.DeletedAt = &deletedAt
		record, err := r.seal(lead)
		if err != nil {
			return nil, err
		}
		writes[store.Join(store.Leads(tenantID), id)] = nil
		writes[store.Join(store.DeletedLeads(tenantID), id)] = record
		moved = append(moved, lead)
	}
	if len(moved) == 0 {
		return moved, nil
	}
	if err := r.store.Batch(ctx, writes); err != nil {
		return nil, err
	}
	return moved, nil
}

// Restore moves a lead back from the deleted collection with its lifecycle
// flags cleared.
func (r *Repository) Restore(ctx context.Context, tenantID, id string) (domain.Lead, error) {
	lead, err := r.get(ctx, store.Join(store.DeletedLeads(tenantID), id), id)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.IsDeleted = false
	lead.DeletedAt = nil
	record, err := r.seal(lead)
	if err != nil {
		return domain.Lead{}, err
	}

	err = r.store.Batch(ctx, map[string]any{
		store.Join(store.DeletedLeads(tenantID), id): nil,
		store.Join(store.Leads(tenantID), id):        record,
	})
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// Purge removes a lead from the deleted collection for good.
func (r *Repository) Purge(ctx context.Context, tenantID, id string) error {
	path := store.Join(store.DeletedLeads(tenantID), id)
	ok, err := store.Exists(ctx, r.store, path)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Delete(ctx, path)
}

func (r *Repository) LeadLimit(ctx context.Context, tenantID string) (int, error) {
	var limit int
	err := r.store.Get(ctx, store.LeadLimit(tenantID), &limit)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return limit, err
}

func (r *Repository) CipherStatus(ctx context.Context, tenantID string) (CipherStatus, error) {
	_, status, err := r.list(ctx, store.Leads(tenantID))
	return status, err
}

var _ LeadsRepository = (*Repository)(nil)
