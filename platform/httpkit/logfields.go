package httpkit

import (
	"context"

	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/session"
)

func contextWithLogFields(ctx context.Context, s session.Session) context.Context {
	ctx = context.WithValue(ctx, logger.TenantIDKey, s.TenantID)
	return context.WithValue(ctx, logger.UserIDKey, s.ActorID())
}
