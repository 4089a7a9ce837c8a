// Package firebasestore implements store.Store on the Firebase Realtime
// Database through the Admin SDK.
package firebasestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/logger"

	"firebase.google.com/go/v4/db"
)

const defaultPollInterval = 5 * time.Second

var nullJSON = []byte("null")

// Store wraps a Realtime Database client.
type Store struct {
	client       *db.Client
	pollInterval time.Duration
	log          *logger.Logger
}

// New creates a store. The Admin SDK has no streaming listeners, so Watch
// polls with ETags every pollInterval.
func New(client *db.Client, pollInterval time.Duration, log *logger.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Store{client: client, pollInterval: pollInterval, log: log}
}

func (s *Store) ref(path string) *db.Ref {
	return s.client.NewRef("/" + store.Join(path))
}

func (s *Store) Get(ctx context.Context, path string, dst any) error {
	var raw json.RawMessage
	if err := s.ref(path).Get(ctx, &raw); err != nil {
		return fmt.Errorf("firebase get %s: %w", path, err)
	}
	if isNull(raw) {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (s *Store) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.ref(path).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("firebase list %s: %w", path, err)
	}
	if isNull(raw) {
		return map[string]json.RawMessage{}, nil
	}
	// Realtime Database returns dense integer-keyed collections as arrays.
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make(map[string]json.RawMessage, len(items))
		for i, item := range items {
			if !isNull(item) {
				out[fmt.Sprint(i)] = item
			}
		}
		return out, nil
	}
	children := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, fmt.Errorf("firebase list %s: node is not a collection: %w", path, err)
	}
	return children, nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	if value == nil {
		return s.Delete(ctx, path)
	}
	if err := s.ref(path).Set(ctx, value); err != nil {
		return fmt.Errorf("firebase set %s: %w", path, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.ref(path).Update(ctx, fields); err != nil {
		return fmt.Errorf("firebase update %s: %w", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.ref(path).Delete(ctx); err != nil {
		return fmt.Errorf("firebase delete %s: %w", path, err)
	}
	return nil
}

// Batch issues one multi-path update against the root, which the database
// applies atomically.
func (s *Store) Batch(ctx context.Context, writes map[string]any) error {
	if len(writes) == 0 {
		return nil
	}
	if err := store.CheckBatch(writes); err != nil {
		return err
	}
	payload := make(map[string]interface{}, len(writes))
	for path, value := range writes {
		payload[store.Join(path)] = value
	}
	if err := s.client.NewRef("/").Update(ctx, payload); err != nil {
		return fmt.Errorf("firebase batch (%d paths): %w", len(writes), err)
	}
	return nil
}

// UpdateExisting runs one Realtime Database transaction per document so the
// merge sees the current value and a deleted document stays deleted. The
// documents are not updated atomically with each other.
func (s *Store) UpdateExisting(ctx context.Context, updates map[string]map[string]any) ([]string, error) {
	paths := make([]string, 0, len(updates))
	for path := range updates {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var skipped []string
	for _, path := range paths {
		fields := updates[path]
		present := false
		err := s.ref(path).Transaction(ctx, func(node db.TransactionNode) (interface{}, error) {
			var current map[string]interface{}
			if err := node.Unmarshal(&current); err != nil {
				return nil, err
			}
			present = current != nil
			if !present {
				return nil, nil
			}
			for key, value := range fields {
				if value == nil {
					delete(current, key)
					continue
				}
				current[key] = value
			}
			return current, nil
		})
		if err != nil {
			return skipped, fmt.Errorf("firebase guarded update %s: %w", path, err)
		}
		if !present {
			skipped = append(skipped, store.Join(path))
		}
	}
	return skipped, nil
}

// Watch polls path and emits a Change whenever its ETag moves. Poll errors
// are logged and retried on the next interval.
func (s *Store) Watch(ctx context.Context, path string) (<-chan store.Change, error) {
	ref := s.ref(path)
	var discard json.RawMessage
	etag, err := ref.GetWithETag(ctx, &discard)
	if err != nil {
		return nil, fmt.Errorf("firebase watch %s: %w", path, err)
	}

	out := make(chan store.Change, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			var raw json.RawMessage
			changed, next, err := ref.GetIfChanged(ctx, etag, &raw)
			if err != nil {
				if ctx.Err() == nil && s.log != nil {
					s.log.Warn("firebase watch poll failed", "path", path, "error", err)
				}
				continue
			}
			if !changed {
				continue
			}
			etag = next
			select {
			case out <- store.Change{Path: store.Join(path), Deleted: isNull(raw)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, nullJSON)
}

var _ store.Store = (*Store)(nil)
