package management

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/adapters/storage"
	"crm_dashboard_backend/internal/allocation"
	"crm_dashboard_backend/internal/fieldcipher"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/repository"
	"crm_dashboard_backend/internal/leads/spreadsheet"
	"crm_dashboard_backend/internal/leads/transport"
	"crm_dashboard_backend/internal/store"
	"crm_dashboard_backend/internal/store/memstore"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/session"
)

const tenant = "tenant-1"

var (
	admin = session.Session{TenantID: tenant, UserID: tenant, Role: session.RoleAdmin}
	agent = session.Session{TenantID: tenant, UserID: "u-a1", AgentID: "a1", Role: session.RoleAgent}
)

type fixedRanges map[string]allocation.Range

func (f fixedRanges) AgentRange(_ context.Context, _, agentID string) (*allocation.Range, error) {
	r, ok := f[agentID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

type fixture struct {
	store    *memstore.Store
	repo     *repository.Repository
	activity *activity.Repository
	svc      *Service
}

func newFixture(t *testing.T, ranges fixedRanges) fixture {
	t.Helper()
	cipher, err := fieldcipher.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	st := memstore.New()
	repo := repository.New(st, cipher)
	actRepo := activity.NewRepository(st, cipher, domain.PIIFields)
	svc := New(repo, nil, ranges, activity.NewService(actRepo, nil), nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return fixture{store: st, repo: repo, activity: actRepo, svc: svc}
}

func (f fixture) seed(t *testing.T, n int) []domain.Lead {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := make([]domain.Lead, n)
	for i := range leads {
		leads[i] = domain.Lead{
			ID:        fmt.Sprintf("lead-%02d", i+1),
			FirstName: fmt.Sprintf("First%d", i+1),
			LastName:  "Seed",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	if err := f.repo.SaveMany(context.Background(), tenant, leads); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return leads
}

func TestCreateScoresAndEnforcesLeadLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.store.Set(ctx, store.LeadLimit(tenant), 1); err != nil {
		t.Fatalf("set limit: %v", err)
	}

	created, err := f.svc.Create(ctx, admin, transport.CreateLeadRequest{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		Mobile:    "+919876543210",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Score != 15 {
		t.Fatalf("expected score 15 for email+mobile, got %d", created.Score)
	}

	_, err = f.svc.Create(ctx, admin, transport.CreateLeadRequest{FirstName: "Ravi", LastName: "Iyer"})
	if !apperr.Is(err, apperr.KindLimitReached) {
		t.Fatalf("expected limit reached, got %v", err)
	}
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Create(context.Background(), agent, transport.CreateLeadRequest{FirstName: "A", LastName: "B"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAgentListIsClampedSlice(t *testing.T) {
	f := newFixture(t, fixedRanges{"a1": {From: 15, To: 30}})
	f.seed(t, 20)

	list, err := f.svc.List(context.Background(), agent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 6 {
		t.Fatalf("expected 6 visible leads, got %d", len(list.Items))
	}
	if list.Items[0].Position != 15 || list.Items[5].Position != 20 {
		t.Fatalf("expected positions 15..20, got %d..%d", list.Items[0].Position, list.Items[5].Position)
	}
	if list.Items[0].ID != "lead-15" {
		t.Fatalf("expected lead-15 first, got %s", list.Items[0].ID)
	}

	if _, err := f.svc.Get(context.Background(), agent, "lead-01"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected lead outside range to be hidden, got %v", err)
	}
}

func TestAgentWithoutRangeSeesNothing(t *testing.T) {
	f := newFixture(t, fixedRanges{})
	f.seed(t, 3)

	list, err := f.svc.List(context.Background(), agent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected no leads, got %d", len(list.Items))
	}
}

func TestGetByPosition(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 5)

	got, err := f.svc.GetByPosition(context.Background(), admin, 3)
	if err != nil {
		t.Fatalf("get by position: %v", err)
	}
	if got.ID != "lead-03" {
		t.Fatalf("expected lead-03, got %s", got.ID)
	}
	if _, err := f.svc.GetByPosition(context.Background(), admin, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for position 0, got %v", err)
	}
}

func TestSoftDeleteAndRestoreMoveBetweenCollections(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 2)
	ctx := context.Background()

	res, err := f.svc.BulkDelete(ctx, admin, transport.BulkDeleteRequest{IDs: []string{"lead-01", "missing"}})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if len(res.Deleted) != 1 || len(res.NotFound) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	assertIn(t, f.store, store.DeletedLeads(tenant), "lead-01")

	deleted, err := f.svc.ListDeleted(ctx, admin)
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(deleted.Items) != 1 || !deleted.Items[0].IsDeleted || deleted.Items[0].DeletedAt == nil {
		t.Fatalf("expected flagged deleted copy, got %+v", deleted.Items)
	}

	if err := f.svc.Delete(ctx, admin, "lead-01"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}

	restored, err := f.svc.Restore(ctx, admin, "lead-01")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil {
		t.Fatalf("expected flags cleared, got %+v", restored.Lead)
	}
	assertIn(t, f.store, store.Leads(tenant), "lead-01")

	if _, err := f.svc.Restore(ctx, admin, "lead-01"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected restoring an active lead to fail, got %v", err)
	}
}

func assertIn(t *testing.T, s store.Store, collection, id string) {
	t.Helper()
	ctx := context.Background()
	other := store.Leads(tenant)
	if collection == other {
		other = store.DeletedLeads(tenant)
	}
	if ok, _ := store.Exists(ctx, s, store.Join(collection, id)); !ok {
		t.Fatalf("expected %s in %s", id, collection)
	}
	if ok, _ := store.Exists(ctx, s, store.Join(other, id)); ok {
		t.Fatalf("expected %s absent from %s", id, other)
	}
}

func TestPurgeRemovesDeletedLead(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	ctx := context.Background()

	if err := f.svc.Delete(ctx, admin, "lead-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.Purge(ctx, admin, "lead-01"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if err := f.svc.Purge(ctx, admin, "lead-01"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second purge, got %v", err)
	}
}

func TestUpdateRescoresAndRecordsChanges(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	ctx := context.Background()

	email := "first1@example.com"
	updated, err := f.svc.Update(ctx, admin, "lead-01", transport.UpdateLeadRequest{Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Score != 5 {
		t.Fatalf("expected rescored to 5, got %d", updated.Score)
	}

	records, err := f.activity.List(ctx, tenant, activity.Filter{LeadID: "lead-01"})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(records) != 1 || records[0].Action != activity.ActionUpdated {
		t.Fatalf("expected one update record, got %+v", records)
	}
	changes := records[0].Changes
	if len(changes) != 1 || changes[0].Field != domain.FieldEmail || changes[0].To != email {
		t.Fatalf("expected decrypted email change, got %+v", changes)
	}
}

func TestUpdateWithoutChangesWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)
	ctx := context.Background()

	name := "First1"
	if _, err := f.svc.Update(ctx, admin, "lead-01", transport.UpdateLeadRequest{FirstName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	records, _ := f.activity.List(ctx, tenant, activity.Filter{})
	if len(records) != 0 {
		t.Fatalf("expected no activity for a no-op update, got %d", len(records))
	}
}

func TestStoreWriteFailureIsUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.store.FailWrites(errors.New("permission denied"))

	_, err := f.svc.Create(context.Background(), admin, transport.CreateLeadRequest{FirstName: "A", LastName: "B"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestImportRejectsFileMissingRequiredColumn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	input := "first_name,last_name,Email_ID\nAsha,Rao,asha@example.com\n"

	_, err := f.svc.Import(ctx, admin, "leads.csv", strings.NewReader(input))
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := appErr.Details.(map[string][]string)
	if !ok || len(details["missing"]) != 1 || details["missing"][0] != domain.FieldMobile {
		t.Fatalf("expected Mobile_Number listed as missing, got %#v", appErr.Details)
	}

	count, _ := f.repo.Count(ctx, tenant)
	if count != 0 {
		t.Fatalf("expected zero rows imported, got %d", count)
	}
}

func TestImportKeepsFileOrderAndEnforcesLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	input := "first_name,last_name,Email_ID,Mobile_Number,LinkedIn_URL\n" +
		"Asha,Rao,asha@example.com,9876543210,https://example.com/asha\n" +
		"Ravi,Iyer,ravi@example.com,9812345678,\n"

	res, err := f.svc.Import(ctx, admin, "leads.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 || len(res.Warnings[1]) != 1 {
		t.Fatalf("unexpected import result %+v", res)
	}

	list, err := f.svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Items[0].FirstName != "Asha" || list.Items[1].FirstName != "Ravi" {
		t.Fatalf("expected file order preserved, got %s, %s", list.Items[0].FirstName, list.Items[1].FirstName)
	}
	if list.Items[0].LinkedInURL != "" {
		t.Fatal("expected invalid LinkedIn URL dropped")
	}

	if err := f.store.Set(ctx, store.LeadLimit(tenant), 3); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	_, err = f.svc.Import(ctx, admin, "more.csv", strings.NewReader(input))
	if !apperr.Is(err, apperr.KindLimitReached) {
		t.Fatalf("expected whole file rejected by limit, got %v", err)
	}
	if count, _ := f.repo.Count(ctx, tenant); count != 2 {
		t.Fatalf("expected no partial import, got %d leads", count)
	}
}

func TestImportWarningsUseFileRowNumbers(t *testing.T) {
	f := newFixture(t, nil)
	input := "first_name,last_name,Email_ID,Mobile_Number,LinkedIn_URL\n" +
		"Asha,Rao,asha@example.com,9876543210,\n" +
		"\n" +
		",,,,\n" +
		"Ravi,Iyer,ravi@example.com,9812345678,not-a-profile\n"

	res, err := f.svc.Import(context.Background(), admin, "leads.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 {
		t.Fatalf("imported = %d", res.Imported)
	}
	if len(res.Warnings) != 1 || len(res.Warnings[4]) != 1 {
		t.Fatalf("expected a warning on data row 4, got %v", res.Warnings)
	}
}

func TestExportWritesVisibleLeads(t *testing.T) {
	f := newFixture(t, fixedRanges{"a1": {From: 2, To: 2}})
	f.seed(t, 3)

	var buf bytes.Buffer
	n, err := f.svc.Export(context.Background(), agent, spreadsheet.FormatCSV, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 || !strings.Contains(buf.String(), "First2") || strings.Contains(buf.String(), "First1,") {
		t.Fatalf("unexpected export (%d rows):\n%s", n, buf.String())
	}
}

type recordingExports struct {
	tenant, fileName, contentType string
	size                          int
	err                           error
}

func (r *recordingExports) Put(_ context.Context, tenantID, fileName, contentType string, data []byte) (*storage.Download, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tenant, r.fileName, r.contentType, r.size = tenantID, fileName, contentType, len(data)
	return &storage.Download{URL: "https://files.example.com/x", FileKey: tenantID + "/exports/" + fileName}, nil
}

func TestExportToStorage(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 2)
	ctx := context.Background()

	if _, err := f.svc.ExportToStorage(ctx, admin, spreadsheet.FormatCSV); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable without storage, got %v", err)
	}

	rec := &recordingExports{}
	f.svc.WithExports(rec)
	res, err := f.svc.ExportToStorage(ctx, admin, spreadsheet.FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Count != 2 || res.URL == "" {
		t.Fatalf("unexpected response %+v", res)
	}
	if rec.tenant != tenant || rec.fileName != "leads-20240501-090000.csv" || rec.size == 0 {
		t.Fatalf("unexpected upload %+v", rec)
	}

	rec.err = errors.New("bucket gone")
	if _, err := f.svc.ExportToStorage(ctx, admin, spreadsheet.FormatCSV); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable on upload failure, got %v", err)
	}
}

func TestExportToStorageWithNothingVisible(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 2)
	f.svc.WithExports(&recordingExports{})

	_, err := f.svc.ExportToStorage(context.Background(), agent, spreadsheet.FormatCSV)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for an agent without a range, got %v", err)
	}
}

func TestRecalculateAllUpdatesChangedScores(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stale := domain.Lead{ID: "l1", FirstName: "A", Email: "a@example.com", Mobile: "+919876543210", Score: 99}
	fresh := domain.Lead{ID: "l2", FirstName: "B", Score: 0}
	if err := f.repo.SaveMany(ctx, tenant, []domain.Lead{stale, fresh}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := f.svc.RecalculateAll(ctx, tenant)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one score changed, got %d", n)
	}
	got, err := f.repo.GetByID(ctx, tenant, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 15 || got.Email != "a@example.com" {
		t.Fatalf("expected score 15 with fields intact, got %+v", got)
	}
}

// deletingRepository soft-deletes one lead just before scores are written,
// as a concurrent admin request would.
type deletingRepository struct {
	*repository.Repository
	victim string
}

func (r deletingRepository) UpdateScores(ctx context.Context, tenantID string, scores map[string]int) (int, error) {
	if _, err := r.SoftDelete(ctx, tenantID, []string{r.victim}, time.Now()); err != nil {
		return 0, err
	}
	return r.Repository.UpdateScores(ctx, tenantID, scores)
}

func TestRecalculateAllSkipsLeadDeletedMeanwhile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	leads := make([]domain.Lead, 4)
	for i := range leads {
		leads[i] = domain.Lead{
			ID:        fmt.Sprintf("lead-%02d", i+1),
			FirstName: fmt.Sprintf("First%d", i+1),
			LastName:  "Seed",
			CreatedAt: time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
			Score:     99,
		}
	}
	if err := f.repo.SaveMany(ctx, tenant, leads); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := New(deletingRepository{Repository: f.repo, victim: "lead-03"}, nil, nil, nil, nil)
	n, err := svc.RecalculateAll(ctx, tenant)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 scores written, got %d", n)
	}

	active, err := f.repo.List(ctx, tenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := domain.IDs(active); strings.Join(got, ",") != "lead-01,lead-02,lead-04" {
		t.Fatalf("active leads = %v", got)
	}
	for _, lead := range active {
		if lead.CreatedAt.IsZero() || lead.FirstName == "" {
			t.Fatalf("lead %s lost its fields: %+v", lead.ID, lead)
		}
	}
	assertIn(t, f.store, store.DeletedLeads(tenant), "lead-03")
}

func TestCipherStatusReportsFallbacks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.store.Set(ctx, store.Join(store.Leads(tenant), "legacy"), map[string]any{
		"id":         "legacy",
		"first_name": "plain-text-name",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	status, err := f.svc.CipherStatus(ctx, admin)
	if err != nil {
		t.Fatalf("cipher status: %v", err)
	}
	if !status.Notice || status.LeadsAffected != 1 {
		t.Fatalf("expected fallback notice, got %+v", status)
	}
}

func TestUnreadableLeadIsSkippedAndCounted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seed(t, 2)
	seed := map[string]any{
		store.Join(store.Leads(tenant), "legacy"): map[string]any{
			"firstName": "Old",
			"lastName":  "Record",
			"createdAt": float64(1600000000000),
		},
		store.Join(store.Leads(tenant), "broken"): map[string]any{
			"first_name": "Broken",
			"createdAt":  "yesterday",
		},
	}
	if err := f.store.Batch(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, err := f.svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, l := range page.Items {
		ids = append(ids, l.ID)
	}
	if strings.Join(ids, ",") != "legacy,lead-01,lead-02" {
		t.Fatalf("listed ids = %v", ids)
	}

	status, err := f.svc.CipherStatus(ctx, admin)
	if err != nil {
		t.Fatalf("cipher status: %v", err)
	}
	if status.RecordsSkipped != 1 || !status.Notice {
		t.Fatalf("expected one skipped record with notice, got %+v", status)
	}
}
