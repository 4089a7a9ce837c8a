package http

import (
	"crm_dashboard_backend/platform/events"

	"github.com/gin-gonic/gin"
)

// Module is one feature area (leads, agents, tasks, ...) mounted on the
// shared engine.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// Subscriber is implemented by modules that react to domain events.
type Subscriber interface {
	RegisterHandlers(bus events.Bus)
}

// RouterContext carries the route groups a module may mount on. Protected
// requires a valid bearer token; Admin additionally requires the admin role.
type RouterContext struct {
	Engine    *gin.Engine
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup
}
