// Package minio provides read-side access to the object store for
// verification tooling and tests. The ingestion write path goes through
// the analytical session, not this client.
package minio

import (
	"context"
	"fmt"
	"log/slog"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/quake-data-ingest/internal/config"
)

// Store wraps a MinIO client scoped to the configured bucket.
type Store struct {
	client *miniogo.Client
	bucket string
	logger *slog.Logger
}

// NewStore creates a Store from the injected configuration. The endpoint
// and addressing mode match what the analytical session writes through.
func NewStore(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := miniogo.New(cfg.S3Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	return &Store{client: client, bucket: cfg.S3Bucket, logger: logger}, nil
}

// StatObject returns metadata for a bucket-relative object path.
func (s *Store) StatObject(ctx context.Context, path string) (miniogo.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, miniogo.StatObjectOptions{})
	if err != nil {
		return miniogo.ObjectInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

// ObjectExists reports whether an object is present at the path.
func (s *Store) ObjectExists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, miniogo.StatObjectOptions{})
	if err != nil {
		if miniogo.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// OpenObject opens an object for reading. The returned object supports
// ReadAt, which parquet readers require.
func (s *Store) OpenObject(ctx context.Context, path string) (*miniogo.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return obj, nil
}

// RemoveObject deletes an object. Used by tests; the ingestion path only
// ever overwrites.
func (s *Store) RemoveObject(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// ListObjects returns the bucket-relative keys under a prefix.
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, miniogo.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// EnsureBucket creates the bucket if it does not exist. Production
// buckets are provisioned externally; this serves local compose and
// integration tests.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created bucket", "bucket", s.bucket)
	return nil
}
