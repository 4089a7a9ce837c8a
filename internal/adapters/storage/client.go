package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const (
	// LinkTTL is how long an export download link stays valid.
	LinkTTL = 15 * time.Minute
	// RetentionDays is how long the bucket keeps an export object.
	RetentionDays = 7
)

// MinIOExports stores exports in one bucket, keyed by tenant and month.
type MinIOExports struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	now         func() time.Time
}

func NewMinIOExports(cfg Config) (*MinIOExports, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}
	return &MinIOExports{
		client:      client,
		bucket:      cfg.GetMinioBucketLeadExports(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

func (s *MinIOExports) Bucket() string { return s.bucket }

// EnsureBucket creates the export bucket when missing and sets the rule
// that expires exports after RetentionDays.
func (s *MinIOExports) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}

	rules := lifecycle.NewConfiguration()
	rules.Rules = []lifecycle.Rule{{
		ID:         "expire-lead-exports",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(RetentionDays)},
	}}
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, rules); err != nil {
		return fmt.Errorf("set lifecycle on %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads one export and presigns a download for it.
func (s *MinIOExports) Put(ctx context.Context, tenantID, fileName, contentType string, data []byte) (*Download, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("export without tenant")
	}
	if err := checkExport(fileName, contentType, int64(len(data)), s.maxFileSize); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := exportKey(tenantID, now, fileName, uuid.NewString()[:8])
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"tenant": tenantID},
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, LinkTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &Download{URL: link.String(), FileKey: key, ExpiresAt: now.Add(LinkTTL)}, nil
}

// exportKey is tenant/exports/YYYY/MM/base_suffix.ext so repeated exports
// never overwrite each other.
func exportKey(tenantID string, at time.Time, fileName, suffix string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(path.Base(fileName), ext)
	return path.Join(tenantID, "exports", at.Format("2006/01"), fmt.Sprintf("%s_%s%s", base, suffix, ext))
}

var _ Exports = (*MinIOExports)(nil)
