// Package gcs stores dump backups in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

const defaultContentType = "application/json"

// Config names the target bucket.
type Config struct {
	Bucket string
}

// BlobStore implements crawler.BlobStore on one bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New creates a GCS-backed blob store. The caller owns client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{client: client, bucket: bucket}, nil
}

// URI returns the gs:// address of name.
func (s *BlobStore) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, name)
}

// PutObject uploads r as name. Content type defaults to JSON.
func (s *BlobStore) PutObject(ctx context.Context, name string, contentType string, r io.Reader) (string, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "", fmt.Errorf("object name is required")
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("upload %s: %w (close writer: %v)", name, err, closeErr)
		}
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish upload %s: %w", name, err)
	}
	return s.URI(name), nil
}

// GetObject opens name for reading. A missing object wraps crawler.ErrNotFound.
func (s *BlobStore) GetObject(ctx context.Context, name string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(strings.TrimPrefix(name, "/")).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("object %s: %w", s.URI(name), crawler.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", name, err)
	}
	return reader, nil
}
