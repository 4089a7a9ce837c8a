// Package management handles lead CRUD operations.
// This is a vertically sliced feature package containing service logic
// for creating, reading, updating, and deleting leads, plus the
// spreadsheet import and export flows.
package management

import (
	"context"
	"errors"
	"time"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/adapters/storage"
	"crm_dashboard_backend/internal/allocation"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/repository"
	"crm_dashboard_backend/internal/leads/scoring"
	"crm_dashboard_backend/internal/leads/transport"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/phone"
	"crm_dashboard_backend/platform/session"

	"github.com/google/uuid"
)

const msgLeadNotFound = "lead not found"

// RangeReader resolves the lead range assigned to an agent. A nil range
// means the agent has none.
type RangeReader interface {
	AgentRange(ctx context.Context, tenantID, agentID string) (*allocation.Range, error)
}

// ActivityRecorder appends audit records.
type ActivityRecorder interface {
	Log(ctx context.Context, sess session.Session, e activity.Entry)
}

// Service handles lead management operations (CRUD).
type Service struct {
	repo     repository.LeadsRepository
	scorer   *scoring.Scorer
	ranges   RangeReader
	activity ActivityRecorder
	exports  storage.Exports
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new lead management service.
func New(repo repository.LeadsRepository, scorer *scoring.Scorer, ranges RangeReader, act ActivityRecorder, log *logger.Logger) *Service {
	if scorer == nil {
		scorer = scoring.Default
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:     repo,
		scorer:   scorer,
		ranges:   ranges,
		activity: act,
		log:      log,
		now:      time.Now,
	}
}

// Create adds a lead after checking the tenant's lead limit.
func (s *Service) Create(ctx context.Context, sess session.Session, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if !sess.IsAdmin() {
		return transport.LeadResponse{}, apperr.Forbidden("only admins can create leads")
	}
	if err := s.checkLimit(ctx, sess.TenantID, 1); err != nil {
		return transport.LeadResponse{}, err
	}

	now := s.now().UTC()
	lead := leadFromCreate(req)
	lead.ID = uuid.NewString()
	lead.CreatedBy = sess.ActorID()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	lead.Score = s.scorer.Score(lead)

	if err := s.repo.Save(ctx, sess.TenantID, lead); err != nil {
		return transport.LeadResponse{}, s.storeFailure(ctx, "create lead", err)
	}

	s.record(ctx, sess, activity.Entry{LeadID: lead.ID, Action: activity.ActionCreated, Summary: lead.FullName()})
	s.log.WithContext(ctx).Info("lead created", "leadId", lead.ID)
	return transport.LeadResponse{Lead: lead}, nil
}

// Get returns one lead the caller is allowed to see.
func (s *Service) Get(ctx context.Context, sess session.Session, id string) (transport.LeadResponse, error) {
	list, err := s.List(ctx, sess)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	for _, item := range list.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
}

// GetByPosition returns the lead at a 1-based position of the tenant's
// ordered lead list. Agents may only address positions inside their range.
func (s *Service) GetByPosition(ctx context.Context, sess session.Session, position int) (transport.LeadResponse, error) {
	if position < 1 {
		return transport.LeadResponse{}, apperr.Validation("position must be 1 or greater")
	}
	list, err := s.List(ctx, sess)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	for _, item := range list.Items {
		if item.Position == position {
			return item, nil
		}
	}
	return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
}

// List returns every active lead for admins and the assigned slice for
// agents. Positions are always positions in the full tenant list.
func (s *Service) List(ctx context.Context, sess session.Session) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx, sess.TenantID)
	if err != nil {
		return transport.LeadListResponse{}, s.storeFailure(ctx, "list leads", err)
	}

	if sess.IsAdmin() {
		items := positioned(leads, 1)
		return transport.LeadListResponse{Items: items, Total: len(items)}, nil
	}

	r, err := s.agentRange(ctx, sess)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	if r == nil {
		return transport.LeadListResponse{Items: []transport.LeadResponse{}}, nil
	}

	visible := allocation.Visible(domain.IDs(leads), *r)
	if len(visible) == 0 {
		return transport.LeadListResponse{Items: []transport.LeadResponse{}, Range: r}, nil
	}
	from := allocation.Clamp(*r, len(leads)).From
	items := positioned(leads[from-1:from-1+len(visible)], from)
	return transport.LeadListResponse{Items: items, Total: len(items), Range: r}, nil
}

func (s *Service) agentRange(ctx context.Context, sess session.Session) (*allocation.Range, error) {
	if s.ranges == nil {
		return nil, nil
	}
	r, err := s.ranges.AgentRange(ctx, sess.TenantID, sess.AgentID)
	if err != nil {
		return nil, s.storeFailure(ctx, "read agent range", err)
	}
	return r, nil
}

// Update applies a patch, rescoring the lead and logging the changed fields.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	current, err := s.Get(ctx, sess, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	before := current.Lead
	after := before
	applyUpdate(&after, req)
	after.Score = s.scorer.Score(after)

	changes, err := activity.Diff(before, after, domain.FieldScore, domain.FieldUpdatedAt)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if len(changes) == 0 {
		return current, nil
	}

	after.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, sess.TenantID, after); err != nil {
		return transport.LeadResponse{}, s.storeFailure(ctx, "update lead", err)
	}

	s.record(ctx, sess, activity.Entry{LeadID: id, Action: activity.ActionUpdated, Changes: changes})
	return transport.LeadResponse{Lead: after, Position: current.Position}, nil
}

// Delete soft-deletes one lead.
func (s *Service) Delete(ctx context.Context, sess session.Session, id string) error {
	res, err := s.BulkDelete(ctx, sess, transport.BulkDeleteRequest{IDs: []string{id}})
	if err != nil {
		return err
	}
	if len(res.Deleted) == 0 {
		return apperr.NotFound(msgLeadNotFound)
	}
	return nil
}

// BulkDelete moves the given leads to the deleted collection in one write.
func (s *Service) BulkDelete(ctx context.Context, sess session.Session, req transport.BulkDeleteRequest) (transport.BulkDeleteResponse, error) {
	if !sess.IsAdmin() {
		return transport.BulkDeleteResponse{}, apperr.Forbidden("only admins can delete leads")
	}

	moved, err := s.repo.SoftDelete(ctx, sess.TenantID, unique(req.IDs), s.now().UTC())
	if err != nil {
		return transport.BulkDeleteResponse{}, s.storeFailure(ctx, "delete leads", err)
	}

	res := transport.BulkDeleteResponse{Deleted: domain.IDs(moved)}
	deleted := make(map[string]struct{}, len(moved))
	for _, lead := range moved {
		deleted[lead.ID] = struct{}{}
		s.record(ctx, sess, activity.Entry{LeadID: lead.ID, Action: activity.ActionDeleted, Summary: lead.FullName()})
	}
	for _, id := range unique(req.IDs) {
		if _, ok := deleted[id]; !ok {
			res.NotFound = append(res.NotFound, id)
		}
	}
	return res, nil
}

// ListDeleted returns the tenant's soft-deleted leads.
func (s *Service) ListDeleted(ctx context.Context, sess session.Session) (transport.LeadListResponse, error) {
	if !sess.IsAdmin() {
		return transport.LeadListResponse{}, apperr.Forbidden("only admins can view deleted leads")
	}
	leads, err := s.repo.ListDeleted(ctx, sess.TenantID)
	if err != nil {
		return transport.LeadListResponse{}, s.storeFailure(ctx, "list deleted leads", err)
	}
	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = transport.LeadResponse{Lead: lead}
	}
	return transport.LeadListResponse{Items: items, Total: len(items)}, nil
}

// Restore moves a deleted lead back to the active collection.
func (s *Service) Restore(ctx context.Context, sess session.Session, id string) (transport.LeadResponse, error) {
	if !sess.IsAdmin() {
		return transport.LeadResponse{}, apperr.Forbidden("only admins can restore leads")
	}
	lead, err := s.repo.Restore(ctx, sess.TenantID, id)
	if err != nil {
		return transport.LeadResponse{}, s.storeFailure(ctx, "restore lead", err)
	}
	s.record(ctx, sess, activity.Entry{LeadID: id, Action: activity.ActionRestored, Summary: lead.FullName()})
	return transport.LeadResponse{Lead: lead}, nil
}

// Purge permanently removes a deleted lead.
func (s *Service) Purge(ctx context.Context, sess session.Session, id string) error {
	if !sess.IsAdmin() {
		return apperr.Forbidden("only admins can purge leads")
	}
	if err := s.repo.Purge(ctx, sess.TenantID, id); err != nil {
		return s.storeFailure(ctx, "purge lead", err)
	}
	s.record(ctx, sess, activity.Entry{LeadID: id, Action: activity.ActionPurged})
	return nil
}

// RecalculateAll rescores every active lead of a tenant and writes the
// changed scores in one batch. It returns how many scores changed.
func (s *Service) RecalculateAll(ctx context.Context, tenantID string) (int, error) {
	leads, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return 0, s.storeFailure(ctx, "list leads", err)
	}

	scores := make(map[string]int)
	for _, lead := range leads {
		if score := s.scorer.Score(lead); score != lead.Score {
			scores[lead.ID] = score
		}
	}
	if len(scores) == 0 {
		return 0, nil
	}
	written, err := s.repo.UpdateScores(ctx, tenantID, scores)
	if err != nil {
		return 0, s.storeFailure(ctx, "update scores", err)
	}
	return written, nil
}

// CipherStatus reports whether any stored lead field failed to decrypt.
func (s *Service) CipherStatus(ctx context.Context, sess session.Session) (transport.CipherStatusResponse, error) {
	status, err := s.repo.CipherStatus(ctx, sess.TenantID)
	if err != nil {
		return transport.CipherStatusResponse{}, s.storeFailure(ctx, "cipher status", err)
	}
	return transport.CipherStatusResponse{CipherStatus: status, Notice: status.FieldFallbacks > 0 || status.RecordsSkipped > 0}, nil
}

func (s *Service) checkLimit(ctx context.Context, tenantID string, adding int) error {
	limit, err := s.repo.LeadLimit(ctx, tenantID)
	if err != nil {
		return s.storeFailure(ctx, "read lead limit", err)
	}
	if limit <= 0 {
		return nil
	}
	count, err := s.repo.Count(ctx, tenantID)
	if err != nil {
		return s.storeFailure(ctx, "count leads", err)
	}
	if count+adding > limit {
		return apperr.LimitReached("lead limit reached").WithDetails(map[string]int{
			"limit":     limit,
			"current":   count,
			"requested": adding,
		})
	}
	return nil
}

func (s *Service) record(ctx context.Context, sess session.Session, e activity.Entry) {
	if s.activity != nil {
		s.activity.Log(ctx, sess, e)
	}
}

// storeFailure maps repository errors to domain errors. Anything that is
// not a known domain condition is treated as the store being unavailable.
func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.log.WithContext(ctx).StoreError(op, "leads", err)
	return apperr.Unavailable("data store unavailable", err).WithOp(op)
}

func positioned(leads []domain.Lead, first int) []transport.LeadResponse {
	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = transport.LeadResponse{Lead: lead, Position: first + i}
	}
	return items
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeMobile(raw string) string {
	if raw == "" {
		return ""
	}
	return phone.NormalizeE164(raw)
}

// SetRangeReader replaces the agent range source.
func (s *Service) SetRangeReader(ranges RangeReader) {
	s.ranges = ranges
}
