package handler

import (
	"crm_dashboard_backend/internal/tasks/service"
	"crm_dashboard_backend/internal/tasks/transport"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for tasks.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/tasks
func (h *Handler) List(c *gin.Context) {
	var req transport.ListTasksRequest
	if !httpkit.BindQuery(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.List(c.Request.Context(), sess, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/tasks/:id
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

// POST /api/v1/tasks
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTaskRequest
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

// PATCH /api/v1/tasks/:id
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateTaskRequest
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

// PUT /api/v1/tasks/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req transport.SetStatusRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.SetStatus(c.Request.Context(), sess, c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/tasks/:id
func (h *Handler) Delete(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), sess, c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// GET /api/v1/admin/tasks/backups
func (h *Handler) ListBackups(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.ListBackups(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/tasks/backups/:id/restore
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

// DELETE /api/v1/admin/tasks/backups/:id
func (h *Handler) Purge(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	if err := h.svc.Purge(c.Request.Context(), sess, c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}
