package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

// GCSBlobStore reads uploaded objects and issues signed upload URLs against
// one bucket. It satisfies ingest.BlobStore.
type GCSBlobStore struct {
	Client *storage.Client
	Bucket string
}

// Get reads the full object at key.
func (s *GCSBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Client.Bucket(s.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", key, err)
	}
	return data, nil
}

// SignedUploadURL returns a V4 signed PUT URL the browser uploads the CSV to
// directly, so file bytes never pass through this service.
func (s *GCSBlobStore) SignedUploadURL(key, contentType string, expiry time.Duration) (string, error) {
	url, err := s.Client.Bucket(s.Bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign upload url for %q: %w", key, err)
	}
	return url, nil
}
