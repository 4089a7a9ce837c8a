// Package store defines the hierarchical document tree every service
// persists into. Paths are slash separated ("users/{tenant}/leads/{id}").
// Values are JSON documents; backends differ only in where the tree lives.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no value exists at the path.
var ErrNotFound = errors.New("store: not found")

// Change describes a mutation observed by Watch.
type Change struct {
	Path    string
	Deleted bool
}

// Store is the persistence contract. Batch applies every write or none;
// a nil value in Batch or Update deletes that path.
//
// UpdateExisting merges fields into each document of updates that still
// holds a value and returns the paths it skipped. A document deleted
// concurrently is never recreated by it.
type Store interface {
	Get(ctx context.Context, path string, dst any) error
	List(ctx context.Context, path string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Batch(ctx context.Context, writes map[string]any) error
	UpdateExisting(ctx context.Context, updates map[string]map[string]any) ([]string, error)
	Watch(ctx context.Context, path string) (<-chan Change, error)
}

// Decode unmarshals every child of a List result into a map of T.
func Decode[T any](children map[string]json.RawMessage) (map[string]T, error) {
	out := make(map[string]T, len(children))
	for key, raw := range children {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out[key] = item
	}
	return out, nil
}

// Exists reports whether path holds a value.
func Exists(ctx context.Context, s Store, path string) (bool, error) {
	var raw json.RawMessage
	err := s.Get(ctx, path, &raw)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
