package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir is a Store rooted at a local directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root. The directory itself is created by
// MkdirAll(ctx, "").
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve %s: %w", root, err)
	}
	return &Dir{root: abs}, nil
}

// Path returns the local filesystem path for key.
func (d *Dir) Path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *Dir) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(d.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("store: stat %s: %w", key, err)
}

func (d *Dir) MkdirAll(_ context.Context, key string) error {
	if err := os.MkdirAll(d.Path(key), 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Create(_ context.Context, key string) (Writer, error) {
	path := d.Path(key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", key, err)
	}
	return &fileWriter{f: f, path: path}, nil
}

func (d *Dir) Location() string {
	return d.root
}

func (d *Dir) Close() error {
	return nil
}

type fileWriter struct {
	f      *os.File
	path   string
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}

func (w *fileWriter) Abort() {
	if !w.closed {
		w.closed = true
		w.f.Close()
	}
	os.Remove(w.path) // Best effort
}
