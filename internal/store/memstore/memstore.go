// Package memstore is a process-local implementation of store.Store. It
// backs the test suites and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"crm_dashboard_backend/internal/store"
)

const watchBuffer = 64

type watcher struct {
	root string
	ch   chan store.Change
}

// Store keeps the whole tree in memory behind a single mutex.
type Store struct {
	mu       sync.RWMutex
	root     map[string]any
	watchers map[*watcher]struct{}
	// failWrites, when set, makes every mutation return it. Tests use it to
	// simulate a rejected write.
	failWrites error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		root:     make(map[string]any),
		watchers: make(map[*watcher]struct{}),
	}
}

// FailWrites makes subsequent mutations fail with err (nil restores writes).
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	s.failWrites = err
	s.mu.Unlock()
}

func (s *Store) Get(_ context.Context, path string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := store.Lookup(s.root, store.Split(path))
	if !ok {
		return store.ErrNotFound
	}
	return store.Assign(node, dst)
}

func (s *Store) List(_ context.Context, path string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := store.Lookup(s.root, store.Split(path))
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	return store.Children(node)
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	return s.Batch(ctx, map[string]any{path: value})
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	writes := make(map[string]any, len(fields))
	for key, value := range fields {
		writes[store.Join(path, key)] = value
	}
	return s.Batch(ctx, writes)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.Batch(ctx, map[string]any{path: nil})
}

// Batch applies every write to a copy of the tree and swaps it in only when
// all of them succeeded.
func (s *Store) Batch(_ context.Context, writes map[string]any) error {
	if len(writes) == 0 {
		return nil
	}

	if err := store.CheckBatch(writes); err != nil {
		return err
	}

	normalized := make(map[string]any, len(writes))
	for path, value := range writes {
		v, err := store.Normalize(value)
		if err != nil {
			return fmt.Errorf("memstore: encode %s: %w", path, err)
		}
		normalized[path] = v
	}

	s.mu.Lock()
	if s.failWrites != nil {
		err := s.failWrites
		s.mu.Unlock()
		return err
	}
	next := store.Clone(s.root).(map[string]any)
	for path, value := range normalized {
		store.Place(next, store.Split(path), value)
	}
	s.root = next
	s.notify(normalized)
	s.mu.Unlock()
	return nil
}

// UpdateExisting applies all field updates for documents that exist in one
// swap, so a concurrent delete either wins entirely or happens after.
func (s *Store) UpdateExisting(_ context.Context, updates map[string]map[string]any) ([]string, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	writes := make(map[string]any)
	for path, fields := range updates {
		for key, value := range fields {
			v, err := store.Normalize(value)
			if err != nil {
				return nil, fmt.Errorf("memstore: encode %s: %w", store.Join(path, key), err)
			}
			writes[store.Join(path, key)] = v
		}
	}
	if err := store.CheckBatch(writes); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return nil, s.failWrites
	}

	var skipped []string
	applied := make(map[string]any, len(writes))
	next := store.Clone(s.root).(map[string]any)
	for path, fields := range updates {
		if _, ok := store.Lookup(next, store.Split(path)); !ok {
			skipped = append(skipped, store.Join(path))
			continue
		}
		for key := range fields {
			full := store.Join(path, key)
			store.Place(next, store.Split(full), writes[full])
			applied[full] = writes[full]
		}
	}
	s.root = next
	s.notify(applied)
	sort.Strings(skipped)
	return skipped, nil
}

// notify must run with s.mu held so a watcher cannot be closed mid-send.
func (s *Store) notify(writes map[string]any) {
	for w := range s.watchers {
		for path, value := range writes {
			if !store.IsWithin(path, w.root) && !store.IsWithin(w.root, path) {
				continue
			}
			select {
			case w.ch <- store.Change{Path: store.Join(path), Deleted: value == nil}:
			default:
			}
		}
	}
}

// Watch delivers changes at or below path until ctx is done. Slow readers
// drop notifications rather than blocking writers.
func (s *Store) Watch(ctx context.Context, path string) (<-chan store.Change, error) {
	w := &watcher{root: store.Join(path), ch: make(chan store.Change, watchBuffer)}

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, w)
		s.mu.Unlock()
		close(w.ch)
	}()
	return w.ch, nil
}

var _ store.Store = (*Store)(nil)
