package inapp

import (
	"context"
	"errors"
	"time"

	"crm_dashboard_backend/internal/notification/sse"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/session"
)

const msgNotFound = "notification not found"

type Service struct {
	repo *Repository
	sse  *sse.Service
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// SetSSE injects the SSE service (circular dependency avoidance).
func (s *Service) SetSSE(sseSvc *sse.Service) {
	s.sse = sseSvc
}

// Push persists n and streams it to the assigned agent and the tenant's
// admins when they are connected.
func (s *Service) Push(ctx context.Context, tenantID string, n Notification) (bool, error) {
	now := s.now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	created, err := s.repo.Upsert(ctx, tenantID, n)
	if err != nil {
		return false, err
	}
	if s.sse != nil && created {
		s.sse.Publish(tenantID, n.AgentID, sse.Event{
			Type:    sse.EventNotification,
			TaskID:  n.TaskID,
			Message: n.Title,
			Data:    n,
		})
	}
	return created, nil
}

// List returns the caller's notifications; admins see the whole tenant.
func (s *Service) List(ctx context.Context, sess session.Session, unreadOnly bool) ([]Notification, error) {
	f := ListFilter{UnreadOnly: unreadOnly}
	if !sess.IsAdmin() {
		f.AgentID = sess.AgentID
	}
	items, err := s.repo.List(ctx, sess.TenantID, f)
	if err != nil {
		return nil, s.storeFailure(ctx, "list notifications", err)
	}
	return items, nil
}

func (s *Service) CountUnread(ctx context.Context, sess session.Session) (int, error) {
	items, err := s.List(ctx, sess, true)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) MarkRead(ctx context.Context, sess session.Session, id string) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, sess.TenantID, id, s.now()); err != nil {
		return s.storeFailure(ctx, "mark notification read", err)
	}
	return nil
}

// MarkAllRead acknowledges every unread notification visible to the caller
// and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, sess session.Session) (int, error) {
	unread, err := s.List(ctx, sess, true)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(unread))
	for i, n := range unread {
		ids[i] = n.ID
	}
	if err := s.repo.MarkManyRead(ctx, sess.TenantID, ids, s.now()); err != nil {
		return 0, s.storeFailure(ctx, "mark notifications read", err)
	}
	return len(ids), nil
}

func (s *Service) Delete(ctx context.Context, sess session.Session, id string) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sess.TenantID, id); err != nil {
		return s.storeFailure(ctx, "delete notification", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, sess session.Session, id string) (Notification, error) {
	n, err := s.repo.Get(ctx, sess.TenantID, id)
	if err != nil {
		return Notification{}, s.storeFailure(ctx, "get notification", err)
	}
	if !sess.IsAdmin() && n.AgentID != sess.AgentID {
		return Notification{}, apperr.NotFound(msgNotFound)
	}
	return n, nil
}

func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	s.log.WithContext(ctx).StoreError(op, "notifications", err)
	return apperr.Unavailable("data store unavailable", err).WithOp(op)
}
