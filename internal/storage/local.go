package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores files under a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates root if needed and returns a Local backend rooted there.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocal: %w", err)
	}
	return &Local{root: root}, nil
}

// Put writes r to root/name. The write goes through a temp file so a failed
// upload never leaves a partial file behind.
func (s *Local) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	key, err := cleanKey(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage.Local.Put: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage.Local.Put: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage.Local.Put: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage.Local.Put: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storage.Local.Put: rename: %w", err)
	}
	return key, nil
}

// Delete removes the file at path. A missing file is not an error.
func (s *Local) Delete(_ context.Context, path string) error {
	key, err := cleanKey(path)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage.Local.Delete: %w", err)
	}
	return nil
}
