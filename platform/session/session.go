// Package session carries the caller's tenant and agent identity as an
// explicit value. Services take a Session argument instead of reading
// ambient state.
package session

import (
	"context"
	"errors"
)

// Role is the caller's role inside a tenant.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
	// RoleSystem is used for writes made by automation sweeps.
	RoleSystem Role = "system"
)

// SystemActor is the actor id recorded on rows mutated by automation.
const SystemActor = "system"

var (
	ErrMissingTenant = errors.New("session has no tenant")
	ErrMissingAgent  = errors.New("agent session has no agent id")
	ErrUnknownRole   = errors.New("session role is not recognised")
)

// Session identifies who is acting on which tenant.
type Session struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
	AgentID  string `json:"agentId,omitempty"`
	Role     Role   `json:"role"`
}

// System returns the session automation sweeps act under.
func System(tenantID string) Session {
	return Session{TenantID: tenantID, UserID: SystemActor, Role: RoleSystem}
}

// Validate checks the invariants every protected operation relies on.
func (s Session) Validate() error {
	if s.TenantID == "" {
		return ErrMissingTenant
	}
	switch s.Role {
	case RoleAdmin, RoleSystem:
		return nil
	case RoleAgent:
		if s.AgentID == "" {
			return ErrMissingAgent
		}
		return nil
	default:
		return ErrUnknownRole
	}
}

// IsAdmin reports whether the session may manage the whole tenant.
// System sessions count as admin.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin || s.Role == RoleSystem
}

// ActorID is the id written to activity and deletion records.
func (s Session) ActorID() string {
	if s.Role == RoleAgent {
		return s.AgentID
	}
	return s.UserID
}

type contextKey struct{}

// WithContext stores the session on ctx.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored on ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
