package management

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"crm_dashboard_backend/internal/activity"
	"crm_dashboard_backend/internal/adapters/storage"
	"crm_dashboard_backend/internal/leads/domain"
	"crm_dashboard_backend/internal/leads/spreadsheet"
	"crm_dashboard_backend/internal/leads/transport"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/metrics"
	"crm_dashboard_backend/platform/session"
	"crm_dashboard_backend/platform/validator"

	"github.com/google/uuid"
)

// derivedFields are recomputed on import and never taken from the file.
var derivedFields = map[string]struct{}{
	domain.FieldScore:     {},
	domain.FieldCreatedAt: {},
	domain.FieldUpdatedAt: {},
	domain.FieldIsDeleted: {},
	domain.FieldDeletedAt: {},
}

// WithExports enables ExportToStorage.
func (s *Service) WithExports(exports storage.Exports) *Service {
	s.exports = exports
	return s
}

// Import creates one lead per data row of a CSV or XLSX file. A header
// without every required column rejects the whole file. All rows are
// written in a single batch.
func (s *Service) Import(ctx context.Context, sess session.Session, filename string, r io.Reader) (transport.ImportResponse, error) {
	if !sess.IsAdmin() {
		return transport.ImportResponse{}, apperr.Forbidden("only admins can import leads")
	}

	format, err := spreadsheet.DetectFormat(filename)
	if err != nil {
		return transport.ImportResponse{}, apperr.BadRequest("file must be .csv or .xlsx")
	}
	sheet, err := spreadsheet.Read(r, format)
	if err != nil {
		return transport.ImportResponse{}, apperr.Wrap(apperr.KindBadRequest, "could not read spreadsheet", err)
	}

	rows, err := spreadsheet.MapRows(sheet)
	var missing *spreadsheet.MissingColumnsError
	if errors.As(err, &missing) {
		return transport.ImportResponse{}, apperr.Validation(missing.Error()).
			WithDetails(map[string][]string{"missing": missing.Missing})
	}
	if err != nil {
		return transport.ImportResponse{}, err
	}

	res := transport.ImportResponse{}
	base := s.now().UTC()
	leads := make([]domain.Lead, 0, len(rows))
	for i, row := range rows {
		lead, warnings := leadFromRow(row.Fields)
		if lead.FirstName == "" && lead.LastName == "" {
			res.Skipped++
			continue
		}
		if len(warnings) > 0 {
			if res.Warnings == nil {
				res.Warnings = make(map[int][]string)
			}
			res.Warnings[row.Line] = warnings
		}

		lead.ID = uuid.NewString()
		lead.CreatedBy = sess.ActorID()
		// Offsets keep file order as creation order, which is what
		// positions are counted in.
		lead.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		lead.UpdatedAt = lead.CreatedAt
		lead.Score = s.scorer.Score(lead)
		leads = append(leads, lead)
	}
	if len(leads) == 0 {
		return res, nil
	}

	if err := s.checkLimit(ctx, sess.TenantID, len(leads)); err != nil {
		return transport.ImportResponse{}, err
	}
	if err := s.repo.SaveMany(ctx, sess.TenantID, leads); err != nil {
		return transport.ImportResponse{}, s.storeFailure(ctx, "import leads", err)
	}

	res.Imported = len(leads)
	metrics.LeadsImportedCounter.Add(float64(res.Imported))
	s.record(ctx, sess, activity.Entry{
		Action:  activity.ActionImported,
		Summary: fmt.Sprintf("%d leads from %s", res.Imported, filename),
	})
	s.log.WithContext(ctx).Info("leads imported", "count", res.Imported, "skipped", res.Skipped, "file", filename)
	return res, nil
}

// leadFromRow fills a lead from canonical column values. Values that do not
// parse or fail format checks are dropped with a warning instead of
// failing the row.
func leadFromRow(row map[string]string) (domain.Lead, []string) {
	var lead domain.Lead
	var warnings []string

	fields := make([]string, 0, len(row))
	for field := range row {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := row[field]
		if value == "" {
			continue
		}
		if _, derived := derivedFields[field]; derived {
			continue
		}
		if problem := checkImportValue(field, value); problem != "" {
			warnings = append(warnings, field+": "+problem)
			continue
		}
		if !lead.SetField(field, value) {
			warnings = append(warnings, field+": unreadable value")
		}
	}
	lead.Mobile = normalizeMobile(lead.Mobile)
	return lead, warnings
}

func checkImportValue(field, value string) string {
	switch field {
	case domain.FieldLinkedIn:
		if !validator.IsLinkedInURL(value) {
			return "must be a LinkedIn profile or company URL"
		}
	case domain.FieldEmployeeSize:
		if !validator.IsEmployeeSize(value) {
			return "must look like 11-50 or 10000+"
		}
	}
	return ""
}

// Export writes the leads the caller can see.
func (s *Service) Export(ctx context.Context, sess session.Session, format spreadsheet.Format, w io.Writer) (int, error) {
	list, err := s.List(ctx, sess)
	if err != nil {
		return 0, err
	}
	leads := make([]domain.Lead, len(list.Items))
	for i, item := range list.Items {
		leads[i] = item.Lead
	}
	if err := spreadsheet.Write(w, format, leads); err != nil {
		return 0, fmt.Errorf("write %s export: %w", format, err)
	}
	return len(leads), nil
}

// ExportToStorage renders the export and uploads it, returning a
// presigned download link.
func (s *Service) ExportToStorage(ctx context.Context, sess session.Session, format spreadsheet.Format) (transport.ExportResponse, error) {
	if s.exports == nil {
		return transport.ExportResponse{}, apperr.New(apperr.KindUnavailable, "export storage is not configured")
	}

	var buf bytes.Buffer
	count, err := s.Export(ctx, sess, format, &buf)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	if count == 0 {
		return transport.ExportResponse{}, apperr.NotFound("no leads to export")
	}

	fileName := fmt.Sprintf("leads-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	link, err := s.exports.Put(ctx, sess.TenantID, fileName, format.ContentType(), buf.Bytes())
	if err != nil {
		s.log.WithContext(ctx).Error("lead export upload failed", "file", fileName, "error", err)
		return transport.ExportResponse{}, apperr.Unavailable("export upload failed", err)
	}
	return transport.ExportResponse{FileKey: link.FileKey, URL: link.URL, ExpiresAt: link.ExpiresAt, Count: count}, nil
}
