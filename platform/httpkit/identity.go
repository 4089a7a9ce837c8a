// Package httpkit provides HTTP utilities including session extraction.
package httpkit

import (
	"context"
	"errors"
	"strings"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextSessionKey is the gin context key holding the caller's session.
const ContextSessionKey = "session"

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (session.Session, error)
}

// JWTVerifier validates HMAC-signed access tokens carrying the claims
// sub, tenant_id, agent_id and role.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with the configured secret.
func NewJWTVerifier(cfg config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{secret: []byte(cfg.GetJWTAccessSecret())}
}

// Verify parses and validates rawToken.
func (v *JWTVerifier) Verify(_ context.Context, rawToken string) (session.Session, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return session.Session{}, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return session.Session{}, errors.New(errInvalidToken)
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return session.Session{}, errors.New(errInvalidToken)
	}

	return SessionFromClaims(claims)
}

// ErrReservedRole rejects tokens that claim the automation-only system role.
var ErrReservedRole = errors.New("token claims a reserved role")

// SessionFromClaims builds a session from token claims. Tenant owners sign
// in without a role claim, so a missing role means admin, and an admin
// token without tenant_id acts on its own tenant (tenant id == user id).
// The system role is reserved for in-process sweeps and is never accepted
// from a token.
func SessionFromClaims(claims map[string]interface{}) (session.Session, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["user_id"].(string)
	}
	tenantID, _ := claims["tenant_id"].(string)
	agentID, _ := claims["agent_id"].(string)
	role, _ := claims["role"].(string)

	s := session.Session{
		TenantID: strings.TrimSpace(tenantID),
		UserID:   strings.TrimSpace(sub),
		AgentID:  strings.TrimSpace(agentID),
		Role:     session.Role(strings.ToLower(strings.TrimSpace(role))),
	}
	switch s.Role {
	case "":
		s.Role = session.RoleAdmin
	case session.RoleSystem:
		return session.Session{}, ErrReservedRole
	}
	if s.Role == session.RoleAdmin && s.TenantID == "" {
		s.TenantID = s.UserID
	}
	if s.UserID == session.SystemActor {
		return session.Session{}, ErrReservedRole
	}
	return s, nil
}

// GetSession extracts the session from a Gin context.
func GetSession(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := value.(session.Session)
	return s, ok
}

// MustGetSession extracts the session from a Gin context.
// If there is none, it aborts with 401 Unauthorized.
func MustGetSession(c *gin.Context) (session.Session, bool) {
	s, ok := GetSession(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return session.Session{}, false
	}
	return s, true
}
