// Package storage keeps rendered lead exports in S3-compatible object
// storage and hands out short-lived download links for them.
package storage

import (
	"context"
	"time"
)

// Download is a presigned link to one stored export.
type Download struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Exports is the object storage the leads module writes to. Put stores
// data under the tenant's export prefix and returns a download link.
type Exports interface {
	Put(ctx context.Context, tenantID, fileName, contentType string, data []byte) (*Download, error)
}

// Config is satisfied by platform/config.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadExports() string
	IsMinIOEnabled() bool
}
