package automation

import (
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/admin/settings/automation
func (h *Handler) GetSettings(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	settings, err := h.svc.GetSettings(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

// PUT /api/v1/admin/settings/automation
func (h *Handler) SaveSettings(c *gin.Context) {
	var req Settings
	if !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	settings, err := h.svc.SaveSettings(c.Request.Context(), sess, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, settings)
}

// POST /api/v1/admin/automation/run
func (h *Handler) Run(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 && !httpkit.BindJSON(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	resp, err := h.svc.Run(c.Request.Context(), sess, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
