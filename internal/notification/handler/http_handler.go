// Package handler exposes the in-app notification inbox over HTTP.
package handler

import (
	"context"
	"strconv"

	"crm_dashboard_backend/internal/notification/inapp"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/session"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Inbox is the part of inapp.Service the handler drives.
type Inbox interface {
	List(ctx context.Context, sess session.Session, unreadOnly bool) ([]inapp.Notification, error)
	CountUnread(ctx context.Context, sess session.Session) (int, error)
	MarkRead(ctx context.Context, sess session.Session, id string) error
	MarkAllRead(ctx context.Context, sess session.Session) (int, error)
	Delete(ctx context.Context, sess session.Session, id string) error
}

type HTTPHandler struct {
	inbox Inbox
}

func NewHTTPHandler(inbox Inbox) *HTTPHandler {
	return &HTTPHandler{inbox: inbox}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread", h.CountUnread)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.PATCH("/read-all", h.MarkAllRead)
	rg.DELETE("/:id", h.Delete)
}

// ListResponse is one page of the inbox, newest first. Total counts every
// notification matching the filter and Unread counts the unread ones among
// them.
type ListResponse struct {
	Items  []inapp.Notification `json:"items"`
	Total  int                  `json:"total"`
	Unread int                  `json:"unread"`
}

type UnreadResponse struct {
	Count int `json:"count"`
}

type MarkAllResponse struct {
	Updated int `json:"updated"`
}

// List accepts ?unread=true and ?limit=N. Malformed values fall back to the
// defaults; limit is capped at maxLimit.
func (h *HTTPHandler) List(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	unreadOnly, err := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	if err != nil {
		unreadOnly = false
	}
	limit := parseLimit(c.Query("limit"))

	items, err := h.inbox.List(c.Request.Context(), sess, unreadOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := ListResponse{Items: items, Total: len(items)}
	for _, n := range items {
		if !n.Read {
			resp.Unread++
		}
	}
	if len(resp.Items) > limit {
		resp.Items = resp.Items[:limit]
	}
	if resp.Items == nil {
		resp.Items = []inapp.Notification{}
	}
	httpkit.OK(c, resp)
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n < 1:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	count, err := h.inbox.CountUnread(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, UnreadResponse{Count: count})
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), sess, c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	count, err := h.inbox.MarkAllRead(c.Request.Context(), sess)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, MarkAllResponse{Updated: count})
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	sess, ok := httpkit.MustGetSession(c)
	if !ok {
		return
	}

	if err := h.inbox.Delete(c.Request.Context(), sess, c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}
