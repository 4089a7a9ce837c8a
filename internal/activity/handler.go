package activity

import (
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// ListRequest is the query accepted by GET /activity.
type ListRequest struct {
	LeadID  string `form:"leadId" validate:"omitempty,max=128"`
	ActorID string `form:"actorId" validate:"omitempty,max=128"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

type ListResponse struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/activity
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if !httpkit.BindQuery(c, h.val, &req) {
		return
	}
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}
	records, err := h.svc.List(c.Request.Context(), sess, Filter(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ListResponse{Items: records, Total: len(records)})
}
