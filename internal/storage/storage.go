// Package storage holds the image file backends: local disk for development
// and S3-compatible object storage for deployments.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Storage writes and removes image files. Put returns the opaque path that is
// persisted alongside the image row.
type Storage interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// Config selects and configures a backend.
type Config struct {
	Driver string // "local" or "s3"
	Dir    string // root directory of the local driver
	S3     S3Config
}

// New constructs the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		s, err := NewLocal(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// cleanKey normalises a storage key and rejects keys that would escape the
// backend root.
func cleanKey(name string) (string, error) {
	key := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if key == "" {
		return "", fmt.Errorf("storage: empty key %q", name)
	}
	return key, nil
}
