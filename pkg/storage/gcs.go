package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/studyshare/studyshare-api/pkg/config"
)

// ObjectStorage abstracts the external bucket holding uploaded resource files.
// Upload returns the public URL under which the object is served; the key is
// retained by callers for later deletion.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// GCSStorage implements ObjectStorage on top of a Google Cloud Storage bucket.
type GCSStorage struct {
	client    *gcs.Client
	bucket    string
	cdnDomain string
	keyPrefix string
}

// NewGCSStorage dials the storage API and returns a bucket-scoped handle.
func NewGCSStorage(ctx context.Context, cfg config.StorageConfig, opts ...option.ClientOption) (*GCSStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSStorage{
		client:    client,
		bucket:    cfg.Bucket,
		cdnDomain: cfg.CDNDomain,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Upload streams the reader into the bucket and returns the public URL.
func (s *GCSStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.objectKey(key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Delete removes the object; a missing object is not an error.
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(s.objectKey(key)).Delete(ctx)
	if err != nil && err != gcs.ErrObjectNotExist {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL builds the served URL, preferring the CDN domain when configured.
func (s *GCSStorage) PublicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, s.objectKey(key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, s.objectKey(key))
}

// Close releases the underlying API client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) objectKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return path.Join(s.keyPrefix, key)
}
