package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"crm_dashboard_backend/internal/leads/management"
	"crm_dashboard_backend/internal/leads/spreadsheet"
	"crm_dashboard_backend/internal/leads/transport"
	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidPosition = "invalid position"
	msgMissingFile     = "file is required"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *management.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *management.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the leads visible to the caller.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.List(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), sess, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/leads/position/:position
func (h *Handler) GetByPosition(c *gin.Context) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidPosition, nil)
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.GetByPosition(c.Request.Context(), sess, position)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/leads
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.Create(c.Request.Context(), sess, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// PATCH /api/v1/leads/:id
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateLeadRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.Update(c.Request.Context(), sess, c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/admin/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), sess, c.Param("id"))) {
		return
	}
	httpkit.NoContent(c)
}

// POST /api/v1/admin/leads/bulk-delete
func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.BulkDeleteRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.BulkDelete(c.Request.Context(), sess, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/leads/deleted
func (h *Handler) ListDeleted(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.ListDeleted(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/leads/deleted/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.Restore(c.Request.Context(), sess, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/admin/leads/deleted/:id
func (h *Handler) Purge(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Purge(c.Request.Context(), sess, c.Param("id"))) {
		return
	}
	httpkit.NoContent(c)
}

// Import accepts a multipart upload in the "file" field.
// POST /api/v1/admin/leads/import
func (h *Handler) Import(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	defer file.Close()

	result, err := h.svc.Import(c.Request.Context(), sess, header.Filename, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Export returns a CSV or XLSX file, or uploads it and returns a download
// link when upload=true.
// GET /api/v1/leads/export?format=csv|xlsx&upload=true
func (h *Handler) Export(c *gin.Context) {
	var req transport.ExportRequest
	if !httpkit.BindQuery(c, h.val, &req) {
		return
	}
	format, err := spreadsheet.ParseFormat(req.Format)
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("format must be csv or xlsx"))
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	if req.Upload {
		result, err := h.svc.ExportToStorage(c.Request.Context(), sess, format)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, result)
		return
	}

	var buf bytes.Buffer
	if _, err := h.svc.Export(c.Request.Context(), sess, format, &buf); httpkit.HandleError(c, err) {
		return
	}
	httpkit.Attachment(c, "leads."+string(format), format.ContentType(), buf.Bytes())
}

// POST /api/v1/admin/leads/recalculate-scores
func (h *Handler) RecalculateScores(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	updated, err := h.svc.RecalculateAll(c.Request.Context(), sess.TenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecalculateResponse{Updated: updated})
}

// GET /api/v1/admin/settings/cipher-status
func (h *Handler) CipherStatus(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.CipherStatus(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
