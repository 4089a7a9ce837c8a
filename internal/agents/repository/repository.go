package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/store"
)

var ErrNotFound = errors.New("agent not found")

// StoreRepository keeps agents under users/{tenant}/agents.
type StoreRepository struct {
	store  store.Store
	cipher *fieldcipher.Cipher
}

func New(s store.Store, c *fieldcipher.Cipher) *StoreRepository {
	return &StoreRepository{store: s, cipher: c}
}

func (r *StoreRepository) path(tenantID, id string) string {
	return store.Join(store.Agents(tenantID), id)
}

func (r *StoreRepository) decode(id string, raw json.RawMessage) (Agent, error) {
	var agent Agent
	if _, err := r.cipher.Unseal(raw, PIIFields, nil, &agent); err != nil {
		return Agent{}, fmt.Errorf("decode agent %s: %w", id, err)
	}
	if agent.ID == "" {
		agent.ID = id
	}
	if agent.Status == "" {
		agent.Status = StatusActive
	}
	return agent, nil
}

func (r *StoreRepository) GetByID(ctx context.Context, tenantID, id string) (Agent, error) {
	var raw json.RawMessage
	if err := r.store.Get(ctx, r.path(tenantID, id), &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return r.decode(id, raw)
}

func (r *StoreRepository) List(ctx context.Context, tenantID string) ([]Agent, error) {
	children, err := r.store.List(ctx, store.Agents(tenantID))
	if err != nil {
		return nil, err
	}
	agents := make([]Agent, 0, len(children))
	for id, raw := range children {
		agent, err := r.decode(id, raw)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
	return agents, nil
}

func (r *StoreRepository) AgentLimit(ctx context.Context, tenantID string) (int, error) {
	var limit int
	err := r.store.Get(ctx, store.AgentLimit(tenantID), &limit)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return limit, err
}

func (r *StoreRepository) Save(ctx context.Context, tenantID string, agent Agent) error {
	record, err := r.cipher.Seal(agent, PIIFields)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.path(tenantID, agent.ID), record)
}

func (r *StoreRepository) UpdateFields(ctx context.Context, tenantID, id string, fields map[string]any) error {
	for key := range fields {
		if PIIFields.Has(key) {
			return fmt.Errorf("field %q must be written through Save", key)
		}
	}
	ok, err := store.Exists(ctx, r.store, r.path(tenantID, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.Update(ctx, r.path(tenantID, id), fields)
}

var _ Repository = (*StoreRepository)(nil)
