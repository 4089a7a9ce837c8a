// Package pgstore implements store.Store on Postgres. Each write creates a
// document row keyed by (parent_path, node_key); writes below an existing
// document are applied inside its JSONB value.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "tree_nodes_changed"

const findAncestorQuery = `
SELECT parent_path, node_key
FROM tree_nodes
WHERE (parent_path, node_key) IN (SELECT * FROM unnest($1::text[], $2::text[]))
ORDER BY length(parent_path) DESC
LIMIT 1`

const selectSubtreeQuery = `
SELECT parent_path, node_key, value::text
FROM tree_nodes
WHERE parent_path = $1 OR parent_path LIKE $2`

const selectDocumentQuery = `
SELECT value #> $3::text[]
FROM tree_nodes
WHERE parent_path = $1 AND node_key = $2`

const lockDocumentQuery = `
SELECT value #> $3::text[]
FROM tree_nodes
WHERE parent_path = $1 AND node_key = $2
FOR UPDATE`

const subtreeExistsQuery = `
SELECT EXISTS (SELECT 1 FROM tree_nodes WHERE parent_path = $1 OR parent_path LIKE $2)`

const upsertDocumentQuery = `
INSERT INTO tree_nodes (parent_path, node_key, value, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (parent_path, node_key)
DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

const setInDocumentQuery = `
UPDATE tree_nodes
SET value = jsonb_set(value, $3::text[], $4::jsonb, true), updated_at = now()
WHERE parent_path = $1 AND node_key = $2`

const removeFromDocumentQuery = `
UPDATE tree_nodes
SET value = value #- $3::text[], updated_at = now()
WHERE parent_path = $1 AND node_key = $2`

const deleteSubtreeQuery = `
DELETE FROM tree_nodes
WHERE (parent_path = $1 AND node_key = $2) OR parent_path = $3 OR parent_path LIKE $4`

// Store persists the tree in the tree_nodes table.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New creates a store on an existing pool. Migrations must have run.
func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, log: log}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// anchor is the document row that holds a path, with the remaining segments
// inside its JSON value.
type anchor struct {
	parent string
	key    string
	inner  []string
}

func findAnchor(ctx context.Context, q querier, segments []string) (*anchor, error) {
	parents := make([]string, 0, len(segments))
	keys := make([]string, 0, len(segments))
	for i := 1; i <= len(segments); i++ {
		parents = append(parents, strings.Join(segments[:i-1], "/"))
		keys = append(keys, segments[i-1])
	}

	var a anchor
	err := q.QueryRow(ctx, findAncestorQuery, parents, keys).Scan(&a.parent, &a.key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	depth := len(store.Split(store.Join(a.parent, a.key)))
	a.inner = append([]string{}, segments[depth:]...)
	return &a, nil
}

// read returns the value at path, assembling it from descendant rows when
// no single document holds it.
func (s *Store) read(ctx context.Context, path string) (any, bool, error) {
	segments := store.Split(path)
	a, err := findAnchor(ctx, s.pool, segments)
	if err != nil {
		return nil, false, err
	}
	if a != nil {
		var raw []byte
		if err := s.pool.QueryRow(ctx, selectDocumentQuery, a.parent, a.key, a.inner).Scan(&raw); err != nil {
			return nil, false, err
		}
		if raw == nil {
			return nil, false, nil
		}
		node, err := store.Normalize(json.RawMessage(raw))
		return node, node != nil, err
	}

	joined := store.Join(path)
	rows, err := s.pool.Query(ctx, selectSubtreeQuery, joined, likePrefix(joined))
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	root := make(map[string]any)
	found := false
	for rows.Next() {
		var parent, key, value string
		if err := rows.Scan(&parent, &key, &value); err != nil {
			return nil, false, err
		}
		node, err := store.Normalize(json.RawMessage(value))
		if err != nil {
			return nil, false, err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(parent, joined), "/")
		store.Place(root, append(store.Split(rel), key), node)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return root, found, nil
}

func (s *Store) Get(ctx context.Context, path string, dst any) error {
	node, ok, err := s.read(ctx, path)
	if err != nil {
		return fmt.Errorf("pg get %s: %w", path, err)
	}
	if !ok {
		return store.ErrNotFound
	}
	return store.Assign(node, dst)
}

func (s *Store) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	node, ok, err := s.read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pg list %s: %w", path, err)
	}
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

// Batch applies every write in one transaction.
func (s *Store) Batch(ctx context.Context, writes map[string]any) error {
	if len(writes) == 0 {
		return nil
	}
	if err := store.CheckBatch(writes); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for path, value := range writes {
			if err := write(ctx, tx, path, value); err != nil {
				return fmt.Errorf("pg write %s: %w", path, err)
			}
		}
		return nil
	})
}

// UpdateExisting locks each target document row and applies its fields in
// one transaction; paths with no value are skipped.
func (s *Store) UpdateExisting(ctx context.Context, updates map[string]map[string]any) ([]string, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	writes := make(map[string]any)
	for path, fields := range updates {
		for key, value := range fields {
			writes[store.Join(path, key)] = value
		}
	}
	if err := store.CheckBatch(writes); err != nil {
		return nil, err
	}

	var skipped []string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		skipped = skipped[:0]
		for path, fields := range updates {
			ok, err := exists(ctx, tx, path)
			if err != nil {
				return fmt.Errorf("pg lock %s: %w", path, err)
			}
			if !ok {
				skipped = append(skipped, store.Join(path))
				continue
			}
			for key, value := range fields {
				if err := write(ctx, tx, store.Join(path, key), value); err != nil {
					return fmt.Errorf("pg write %s: %w", store.Join(path, key), err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(skipped)
	return skipped, nil
}

// exists reports whether path holds a value, locking its document row when
// one holds it.
func exists(ctx context.Context, q querier, path string) (bool, error) {
	segments := store.Split(path)
	a, err := findAnchor(ctx, q, segments)
	if err != nil {
		return false, err
	}
	if a != nil {
		var raw []byte
		if err := q.QueryRow(ctx, lockDocumentQuery, a.parent, a.key, a.inner).Scan(&raw); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		return raw != nil && string(raw) != "null", nil
	}
	joined := store.Join(path)
	var found bool
	err = q.QueryRow(ctx, subtreeExistsQuery, joined, likePrefix(joined)).Scan(&found)
	return found, err
}

func write(ctx context.Context, q querier, path string, value any) error {
	segments := store.Split(path)
	a, err := findAnchor(ctx, q, segments)
	if err != nil {
		return err
	}

	if value == nil {
		if a != nil && len(a.inner) > 0 {
			_, err = q.Exec(ctx, removeFromDocumentQuery, a.parent, a.key, a.inner)
			return err
		}
		parent, key := store.Parent(path)
		joined := store.Join(path)
		_, err = q.Exec(ctx, deleteSubtreeQuery, parent, key, joined, likePrefix(joined))
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if a != nil && len(a.inner) > 0 {
		_, err = q.Exec(ctx, setInDocumentQuery, a.parent, a.key, a.inner, string(data))
		return err
	}

	// The new document replaces anything previously stored below it.
	parent, key := store.Parent(path)
	joined := store.Join(path)
	if _, err := q.Exec(ctx, deleteSubtreeQuery, parent, key, joined, likePrefix(joined)); err != nil {
		return err
	}
	_, err = q.Exec(ctx, upsertDocumentQuery, parent, key, string(data))
	return err
}

type notification struct {
	Parent string `json:"parent"`
	Key    string `json:"key"`
	Op     string `json:"op"`
}

// Watch listens for row changes at or below path. The trigger only knows
// document rows, so a change inside a document is reported at the
// document's path.
func (s *Store) Watch(ctx context.Context, path string) (<-chan store.Change, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg watch acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("pg watch listen: %w", err)
	}

	root := store.Join(path)
	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer conn.Release()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil && s.log != nil {
					s.log.Warn("pg watch stopped", "path", root, "error", err)
				}
				return
			}
			var payload notification
			if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil {
				continue
			}
			changed := store.Join(payload.Parent, payload.Key)
			if !store.IsWithin(changed, root) && !store.IsWithin(root, changed) {
				continue
			}
			select {
			case out <- store.Change{Path: changed, Deleted: payload.Op == "DELETE"}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func likePrefix(path string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(path)
	return escaped + "/%"
}

var _ store.Store = (*Store)(nil)
