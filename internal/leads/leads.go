// Package leads is the lead-record module of a tenant: CRUD, imports,
// exports and scoring live in its subpackages. Other modules depend only on
// the narrow interfaces below.
package leads

import (
	"context"
)

// Counter reports how many active leads a tenant has. Agent ranges are
// clamped against it.
type Counter interface {
	Count(ctx context.Context, tenantID string) (int, error)
}

// Rescorer recomputes stored lead scores.
type Rescorer interface {
	RecalculateAll(ctx context.Context, tenantID string) (int, error)
}
