package activity

import (
	"context"
	"time"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/session"

	"github.com/google/uuid"
)

const defaultListLimit = 200

// Service writes and reads activity records.
type Service struct {
	repo *Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Entry is what callers describe; the service fills in identity and time.
type Entry struct {
	LeadID  string
	AgentID string
	Action  Action
	Summary string
	Changes []Change
}

// Log appends a record for the session's actor. Failures are logged and
// swallowed: losing an audit line must not undo the mutation it describes.
func (s *Service) Log(ctx context.Context, sess session.Session, e Entry) {
	if s == nil || s.repo == nil {
		return
	}
	if e.Action == ActionUpdated && len(e.Changes) == 0 {
		return
	}

	rec := Record{
		ID:        uuid.NewString(),
		ActorID:   sess.ActorID(),
		ActorRole: string(sess.Role),
		LeadID:    e.LeadID,
		AgentID:   e.AgentID,
		Action:    e.Action,
		Summary:   e.Summary,
		Changes:   e.Changes,
		At:        s.now().UTC(),
	}
	if err := s.repo.Append(ctx, sess.TenantID, rec); err != nil && s.log != nil {
		s.log.WithContext(ctx).Warn("activity append failed", "leadId", e.LeadID, "action", e.Action, "error", err)
	}
}

// List returns the tenant's activity. Agents only see their own records.
func (s *Service) List(ctx context.Context, sess session.Session, f Filter) ([]Record, error) {
	if !sess.IsAdmin() {
		f.ActorID = sess.ActorID()
	}
	if f.Limit <= 0 || f.Limit > defaultListLimit {
		f.Limit = defaultListLimit
	}
	records, err := s.repo.List(ctx, sess.TenantID, f)
	if err != nil {
		if s.log != nil {
			s.log.WithContext(ctx).StoreError("list activity", "agentactivity", err)
		}
		return nil, apperr.Unavailable("data store unavailable", err).WithOp("list activity")
	}
	return records, nil
}
