// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreBackendFirebase = "firebase"
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// StoreConfig selects the document tree backend.
type StoreConfig interface {
	GetStoreBackend() string
	GetStoreWatchInterval() time.Duration
}

// FirebaseConfig provides Firebase Admin SDK settings.
type FirebaseConfig interface {
	GetFirebaseProjectID() string
	GetFirebaseDatabaseURL() string
	GetFirebaseCredentialsFile() string
	IsFirebaseAuthEnabled() bool
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int32
}

// CipherConfig provides the secret used by the PII field cipher.
type CipherConfig interface {
	GetFieldCipherSecret() []byte
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides Redis/asynq settings for background sweeps.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AutomationConfig provides sweep cadence and defaults.
type AutomationConfig interface {
	GetAutomationStatusInterval() time.Duration
	GetAutomationCleanupInterval() time.Duration
	GetAutomationDefaultCleanupDays() int
	GetAutomationTenantConcurrency() int
}

// AllocationConfig controls agent range assignment policy.
type AllocationConfig interface {
	GetAllocationRejectOverlap() bool
}

// ScoringConfig provides the optional weight overlay file.
type ScoringConfig interface {
	GetScoringWeightsFile() string
}

// SMTPConfig provides settings for notification email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadExports() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                          string
	HTTPAddr                     string
	StoreBackend                 string
	StoreWatchInterval           time.Duration
	FirebaseProjectID            string
	FirebaseDatabaseURL          string
	FirebaseCredentialsFile      string
	FirebaseAuthEnabled          bool
	DatabaseURL                  string
	DatabaseMaxConns             int32
	FieldCipherSecret            []byte
	JWTAccessSecret              string
	CORSAllowAll                 bool
	CORSOrigins                  []string
	CORSAllowCreds               bool
	RedisURL                     string
	RedisTLSInsecure             bool
	AsynqQueueName               string
	AsynqConcurrency             int
	AutomationStatusInterval     time.Duration
	AutomationCleanupInterval    time.Duration
	AutomationDefaultCleanupDays int
	AutomationTenantConcurrency  int
	AllocationRejectOverlap      bool
	ScoringWeightsFile           string
	SMTPHost                     string
	SMTPPort                     int
	SMTPUsername                 string
	SMTPPassword                 string
	SMTPFromName                 string
	SMTPFromAddress              string
	MinIOEndpoint                string
	MinIOAccessKey               string
	MinIOSecretKey               string
	MinIOUseSSL                  bool
	MinIOMaxFileSize             int64
	MinioBucketLeadExports       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// StoreConfig implementation
func (c *Config) GetStoreBackend() string              { return c.StoreBackend }
func (c *Config) GetStoreWatchInterval() time.Duration { return c.StoreWatchInterval }

// FirebaseConfig implementation
func (c *Config) GetFirebaseProjectID() string       { return c.FirebaseProjectID }
func (c *Config) GetFirebaseDatabaseURL() string     { return c.FirebaseDatabaseURL }
func (c *Config) GetFirebaseCredentialsFile() string { return c.FirebaseCredentialsFile }
func (c *Config) IsFirebaseAuthEnabled() bool        { return c.FirebaseAuthEnabled }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string      { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int32 { return c.DatabaseMaxConns }

// CipherConfig implementation
func (c *Config) GetFieldCipherSecret() []byte { return c.FieldCipherSecret }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// AutomationConfig implementation
func (c *Config) GetAutomationStatusInterval() time.Duration  { return c.AutomationStatusInterval }
func (c *Config) GetAutomationCleanupInterval() time.Duration { return c.AutomationCleanupInterval }
func (c *Config) GetAutomationDefaultCleanupDays() int        { return c.AutomationDefaultCleanupDays }
func (c *Config) GetAutomationTenantConcurrency() int         { return c.AutomationTenantConcurrency }

// AllocationConfig implementation
func (c *Config) GetAllocationRejectOverlap() bool { return c.AllocationRejectOverlap }

// ScoringConfig implementation
func (c *Config) GetScoringWeightsFile() string { return c.ScoringWeightsFile }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) IsSMTPEnabled() bool        { return c.SMTPHost != "" && c.SMTPFromAddress != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64        { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadExports() string { return c.MinioBucketLeadExports }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	secret, err := loadCipherSecret(getEnv("FIELD_CIPHER_KEY", ""), getEnv("FIELD_CIPHER_KEY_FILE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                          getEnv("APP_ENV", "development"),
		HTTPAddr:                     getEnv("HTTP_ADDR", ":8080"),
		StoreBackend:                 strings.ToLower(getEnv("STORE_BACKEND", StoreBackendFirebase)),
		StoreWatchInterval:           mustDuration(getEnv("STORE_WATCH_INTERVAL", "5s")),
		FirebaseProjectID:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseDatabaseURL:          getEnv("FIREBASE_DATABASE_URL", ""),
		FirebaseCredentialsFile:      getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseAuthEnabled:          strings.EqualFold(getEnv("FIREBASE_AUTH_ENABLED", "false"), "true"),
		DatabaseURL:                  getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:             int32(mustInt(getEnv("DATABASE_MAX_CONNS", "10"))),
		FieldCipherSecret:            secret,
		JWTAccessSecret:              getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                 corsAllowAll,
		CORSOrigins:                  corsOrigins,
		CORSAllowCreds:               strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                     getEnv("REDIS_URL", ""),
		RedisTLSInsecure:             strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:               getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:             mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		AutomationStatusInterval:     mustDuration(getEnv("AUTOMATION_STATUS_INTERVAL", "1h")),
		AutomationCleanupInterval:    mustDuration(getEnv("AUTOMATION_CLEANUP_INTERVAL", "24h")),
		AutomationDefaultCleanupDays: mustInt(getEnv("AUTOMATION_DEFAULT_CLEANUP_DAYS", "30")),
		AutomationTenantConcurrency:  mustInt(getEnv("AUTOMATION_TENANT_CONCURRENCY", "4")),
		AllocationRejectOverlap:      strings.EqualFold(getEnv("ALLOCATION_REJECT_OVERLAP", "false"), "true"),
		ScoringWeightsFile:           getEnv("SCORING_WEIGHTS_FILE", ""),
		SMTPHost:                     getEnv("SMTP_HOST", ""),
		SMTPPort:                     mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                 getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                 getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:                 getEnv("SMTP_FROM_NAME", "CRM Dashboard"),
		SMTPFromAddress:              getEnv("SMTP_FROM_ADDRESS", ""),
		MinIOEndpoint:                getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:               getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:               getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                  strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:             mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "52428800")),
		MinioBucketLeadExports:       getEnv("MINIO_BUCKET_LEAD_EXPORTS", "lead-exports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendFirebase:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL is required when STORE_BACKEND is firebase")
		}
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.FirebaseAuthEnabled && c.FirebaseProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required when FIREBASE_AUTH_ENABLED is true")
	}
	if len(c.FieldCipherSecret) == 0 {
		return fmt.Errorf("FIELD_CIPHER_KEY or FIELD_CIPHER_KEY_FILE is required")
	}
	if c.JWTAccessSecret == "" && !c.FirebaseAuthEnabled {
		return fmt.Errorf("JWT_ACCESS_SECRET is required unless FIREBASE_AUTH_ENABLED is true")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.AutomationDefaultCleanupDays < 1 {
		return fmt.Errorf("AUTOMATION_DEFAULT_CLEANUP_DAYS must be positive")
	}
	return nil
}

// loadCipherSecret resolves the field cipher secret. The file wins over the
// inline value so that mounted secrets can override a development .env entry.
// A value that decodes as base64 is used decoded, anything else verbatim.
func loadCipherSecret(inline, file string) ([]byte, error) {
	raw := inline
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read FIELD_CIPHER_KEY_FILE: %w", err)
		}
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) > 0 {
		return decoded, nil
	}
	return []byte(raw), nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
