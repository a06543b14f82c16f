package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore stores blobs in a Google Cloud Storage bucket, one bucket per
// environment class. References are object names within the bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore wraps an authenticated client and target bucket.
func NewGCSStore(client *gcs.Client, bucket string) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("gcs client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Check validates bucket access by fetching attrs and listing at most one
// object; an empty bucket is fine.
func (s *GCSStore) Check(ctx context.Context) error {
	bkt := s.client.Bucket(s.bucket)
	if _, err := bkt.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket attrs: %w", err)
	}

	it := bkt.Objects(ctx, &gcs.Query{})
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("list bucket: %w", err)
	}
	return nil
}

func (s *GCSStore) Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer: %w", err)
	}

	return key, nil
}

func (s *GCSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(ref).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return r, nil
}

func (s *GCSStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(ref).Attrs(ctx)
	if err != nil {
		if err == gcs.ErrObjectNotExist {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ BlobStore = (*GCSStore)(nil)
