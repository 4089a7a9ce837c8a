package repository

import (
	"context"
	"time"

	"crm_dashboard_backend/internal/leads/domain"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to a tenant's active leads.
type LeadReader interface {
	GetByID(ctx context.Context, tenantID, id string) (domain.Lead, error)
	// List returns active leads ordered by createdAt ascending.
	List(ctx context.Context, tenantID string) ([]domain.Lead, error)
	Count(ctx context.Context, tenantID string) (int, error)
}

// LeadWriter provides write operations for active leads.
type LeadWriter interface {
	Save(ctx context.Context, tenantID string, lead domain.Lead) error
	SaveMany(ctx context.Context, tenantID string, leads []domain.Lead) error
	UpdateScores(ctx context.Context, tenantID string, scores map[string]int) (int, error)
}

// DeletedLeadStore moves leads between the active and deleted collections.
type DeletedLeadStore interface {
	SoftDelete(ctx context.Context, tenantID string, ids []string, at time.Time) ([]domain.Lead, error)
	Restore(ctx context.Context, tenantID, id string) (domain.Lead, error)
	Purge(ctx context.Context, tenantID, id string) error
	ListDeleted(ctx context.Context, tenantID string) ([]domain.Lead, error)
}

// LimitReader reads the tenant's lead quota. Zero means unlimited.
type LimitReader interface {
	LeadLimit(ctx context.Context, tenantID string) (int, error)
}

// CipherAuditor reports how many stored fields fail to decrypt.
type CipherAuditor interface {
	CipherStatus(ctx context.Context, tenantID string) (CipherStatus, error)
}

// LeadsRepository is the full lead persistence contract.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	DeletedLeadStore
	LimitReader
	CipherAuditor
}

// CipherStatus summarizes decryption fallbacks over a tenant's leads.
type CipherStatus struct {
	LeadsChecked   int `json:"leadsChecked"`
	LeadsAffected  int `json:"leadsAffected"`
	FieldFallbacks int `json:"fieldFallbacks"`
	// RecordsSkipped counts documents that could not be decoded at all and
	// are left out of every listing.
	RecordsSkipped int `json:"recordsSkipped"`
}
