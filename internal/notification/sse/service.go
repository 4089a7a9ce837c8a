// Package sse provides Server-Sent Events support for real-time notifications.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventNotification  EventType = "notification"
	EventTaskAssigned  EventType = "task_assigned"
	EventTasksArchived EventType = "tasks_archived"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	TaskID  string      `json:"taskId,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	tenantID string
	actorID  string
	admin    bool
	events   chan Event
}

// Service manages SSE connections and event broadcasting. Clients are
// keyed by tenant so one tenant's events never reach another.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client // tenantID -> clients
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		clients: make(map[string][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.tenantID] = append(s.clients[c.tenantID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may already have dropped and closed this client.
	clients := s.clients[c.tenantID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.tenantID] = append(clients[:i], clients[i+1:]...)
			if len(s.clients[c.tenantID]) == 0 {
				delete(s.clients, c.tenantID)
			}
			close(c.events)
			return
		}
	}
}

// Publish sends an event to one actor of a tenant and to the tenant's
// admins. It returns how many connections received it.
func (s *Service) Publish(tenantID, actorID string, event Event) int {
	return s.deliver(tenantID, event, func(c *client) bool {
		return c.admin || c.actorID == actorID
	})
}

// PublishToAdmins sends an event to every admin connection of a tenant.
func (s *Service) PublishToAdmins(tenantID string, event Event) int {
	return s.deliver(tenantID, event, func(c *client) bool { return c.admin })
}

func (s *Service) deliver(tenantID string, event Event, match func(*client) bool) int {
	// Sends happen under the read lock so removeClient cannot close a
	// channel mid-send.
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for _, c := range s.clients[tenantID] {
		if !match(c) {
			continue
		}
		select {
		case c.events <- event:
			sent++
		default:
			s.log.Warn("sse buffer full", "tenantId", tenantID, "actorId", c.actorID)
		}
	}
	return sent
}

// Handler streams events for the caller's session.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := httpkit.MustGetSession(c)
		if !ok {
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		cl := &client{
			tenantID: sess.TenantID,
			actorID:  sess.ActorID(),
			admin:    sess.IsAdmin(),
			events:   make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"actorId": cl.actorID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[string][]*client)
}
