package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
)

// BlobStore is the boundary to whatever holds uploaded files. The core only
// ever stores under a logical key and persists the returned reference.
type BlobStore interface {
	// Save writes the blob under key and returns the stored reference.
	Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error)
	// Open returns a reader for a previously stored reference.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Exists reports whether a reference resolves to a stored blob.
	Exists(ctx context.Context, ref string) (bool, error)
}

// IsImageContentType reports whether the declared content type is an image.
// Uploads failing this check must be rejected before anything is stored.
func IsImageContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if semicolon := strings.Index(ct, ";"); semicolon >= 0 {
		ct = strings.TrimSpace(ct[:semicolon])
	}
	return strings.HasPrefix(ct, "image/")
}

// HashedKey derives a content-addressed key under prefix: the sha256 digest of
// the payload plus the original file extension.
func HashedKey(prefix, filename string, content []byte) string {
	sum := sha256.Sum256(content)
	name := hex.EncodeToString(sum[:])
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		name += ext
	}

	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", prefix, name)
}
