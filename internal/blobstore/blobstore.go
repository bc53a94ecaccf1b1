// ABOUTME: Blob storage interface for raw contract documents and report exports
// ABOUTME: Backend chosen by configuration; local filesystem or S3
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound marks a download of a blob that does not exist.
var ErrNotFound = errors.New("blob not found")

// Storage stores raw document blobs keyed by storage path.
type Storage interface {
	// Upload stores a blob and returns the storage path.
	Upload(ctx context.Context, documentID, filename string, data io.Reader) (string, error)

	// Download retrieves a blob by storage path.
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a blob by storage path.
	Delete(ctx context.Context, storagePath string) error
}

// Type selects the storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds storage backend settings.
type Config struct {
	Type         Type
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage instance for the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Path builds the blob key: one directory per document so a raw contract and
// its exports stay together. Callers can rebuild the key of a known filename
// without storing it.
func Path(documentID, filename string) string {
	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filepath.Base(filename), ext)
	baseName = strings.ReplaceAll(baseName, " ", "_")
	if baseName == "" {
		baseName = "document"
	}
	return fmt.Sprintf("%s/%s%s", documentID, baseName, ext)
}

// contentType maps a filename to its MIME type.
func contentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".html":
		return "text/html"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
