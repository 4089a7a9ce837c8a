package handler

import (
	"crm_dashboard_backend/internal/agents/service"
	"crm_dashboard_backend/internal/agents/transport"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for agents.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/agents
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

// GET /api/v1/agents/:id
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

// POST /api/v1/admin/agents
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAgentRequest
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

// PATCH /api/v1/admin/agents/:id
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateAgentRequest
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

// PUT /api/v1/admin/agents/:id/status
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

// PUT /api/v1/admin/agents/:id/range
func (h *Handler) AssignRange(c *gin.Context) {
	var req transport.AssignRangeRequest
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.AssignRange(c.Request.Context(), sess, c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/agents/stats
func (h *Handler) Stats(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	result, err := h.svc.Stats(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
