// Package firebase initialises the Firebase Admin SDK for the Realtime
// Database store and ID token verification.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/httpkit"
	"crm_dashboard_backend/platform/session"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// App bundles the Firebase clients the backend uses.
type App struct {
	app *fb.App
}

// NewApp creates a Firebase app from a service-account file. When no
// credentials file is configured Application Default Credentials are used.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*App, error) {
	var opts []option.ClientOption
	if path := cfg.GetFirebaseCredentialsFile(); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", path)
		}
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		ProjectID:   cfg.GetFirebaseProjectID(),
		DatabaseURL: cfg.GetFirebaseDatabaseURL(),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return &App{app: app}, nil
}

// Database returns the Realtime Database client.
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	client, err := a.app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database client: %w", err)
	}
	return client, nil
}

// Verifier returns a token verifier backed by Firebase Auth.
func (a *App) Verifier(ctx context.Context) (*IDTokenVerifier, error) {
	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &IDTokenVerifier{client: client}, nil
}

// IDTokenVerifier validates Firebase ID tokens. Custom claims tenant_id,
// agent_id and role map onto the session the same way JWT claims do.
type IDTokenVerifier struct {
	client *auth.Client
}

var _ httpkit.TokenVerifier = (*IDTokenVerifier)(nil)

// Verify checks rawToken with Firebase and builds a session from its claims.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (session.Session, error) {
	if v.client == nil {
		return session.Session{}, errors.New("firebase auth not initialized")
	}
	token, err := v.client.VerifyIDToken(ctx, rawToken)
	if err != nil {
		return session.Session{}, fmt.Errorf("verify id token: %w", err)
	}

	claims := make(map[string]interface{}, len(token.Claims)+1)
	for k, val := range token.Claims {
		claims[k] = val
	}
	claims["sub"] = token.UID
	return httpkit.SessionFromClaims(claims)
}
