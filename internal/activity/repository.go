package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
)

// Repository stores activity records under users/{tenant}/agentactivity.
// Change values of sensitive fields are sealed like the records they
// describe.
type Repository struct {
	store     store.Store
	cipher    *fieldcipher.Cipher
	sensitive fieldcipher.FieldSet
}

func NewRepository(s store.Store, c *fieldcipher.Cipher, sensitive fieldcipher.FieldSet) *Repository {
	return &Repository{store: s, cipher: c, sensitive: sensitive}
}

func (r *Repository) Append(ctx context.Context, tenantID string, rec Record) error {
	sealed := rec
	sealed.Changes = make([]Change, len(rec.Changes))
	for i, ch := range rec.Changes {
		if r.sensitive.Has(ch.Field) {
			var err error
			if ch.From, err = r.sealValue(ch.From); err != nil {
				return err
			}
			if ch.To, err = r.sealValue(ch.To); err != nil {
				return err
			}
		}
		sealed.Changes[i] = ch
	}
	return r.store.Set(ctx, store.Join(store.Activity(tenantID), rec.ID), sealed)
}

func (r *Repository) sealValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return v, nil
	}
	return r.cipher.Encrypt(s)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	LeadID  string
	ActorID string
	Limit   int
}

// List returns records newest first.
func (r *Repository) List(ctx context.Context, tenantID string, f Filter) ([]Record, error) {
	children, err := r.store.List(ctx, store.Activity(tenantID))
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(children))
	for id, raw := range children {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode activity %s: %w", id, err)
		}
		if f.LeadID != "" && rec.LeadID != f.LeadID {
			continue
		}
		if f.ActorID != "" && rec.ActorID != f.ActorID {
			continue
		}
		if rec.ID == "" {
			rec.ID = id
		}
		for i, ch := range rec.Changes {
			if r.sensitive.Has(ch.Field) {
				rec.Changes[i].From = r.openValue(ch.From)
				rec.Changes[i].To = r.openValue(ch.To)
			}
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].At.Equal(records[j].At) {
			return records[i].At.After(records[j].At)
		}
		return records[i].ID > records[j].ID
	})
	if f.Limit > 0 && len(records) > f.Limit {
		records = records[:f.Limit]
	}
	return records, nil
}

func (r *Repository) openValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return r.cipher.Decrypt(s)
}
