package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	dir, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	bkt, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bkt.Close() })

	return map[string]Store{
		"dir":    dir,
		"bucket": NewBucket(bkt, "mem://"),
	}
}

func TestCreateCommit(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.MkdirAll(ctx, "Laws/Civil Code"); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			// Idempotent
			if err := s.MkdirAll(ctx, "Laws/Civil Code"); err != nil {
				t.Fatalf("second MkdirAll: %v", err)
			}

			key := "Laws/Civil Code/Law A.pdf"
			if ok, err := s.Exists(ctx, key); err != nil || ok {
				t.Fatalf("Exists before write = %v, %v", ok, err)
			}

			w, err := s.Create(ctx, key)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := w.Write([]byte("%PDF-1.4")); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if ok, err := s.Exists(ctx, key); err != nil || !ok {
				t.Fatalf("Exists after write = %v, %v", ok, err)
			}
		})
	}
}

func TestCreateAbort(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.MkdirAll(ctx, "partial"); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}

			key := "partial/big.pdf"
			w, err := s.Create(ctx, key)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := w.Write(make([]byte, 4096)); err != nil {
				t.Fatalf("Write: %v", err)
			}
			w.Abort()
			w.Abort() // Safe to repeat

			if ok, err := s.Exists(ctx, key); err != nil || ok {
				t.Errorf("Exists after abort = %v, %v", ok, err)
			}
		})
	}
}

func TestDirLayout(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	ctx := context.Background()
	if err := d.MkdirAll(ctx, "a/b"); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	info, err := os.Stat(filepath.Join(root, "a", "b"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
	if d.Location() != root {
		t.Errorf("expected location %s, got %s", root, d.Location())
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "mem://")
	if err != nil {
		t.Fatalf("Open(mem://): %v", err)
	}
	if _, ok := s.(*Bucket); !ok {
		t.Errorf("expected *Bucket, got %T", s)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	s, err = Open(ctx, filepath.Join(t.TempDir(), "laws"))
	if err != nil {
		t.Fatalf("Open(dir): %v", err)
	}
	if _, ok := s.(*Dir); !ok {
		t.Errorf("expected *Dir, got %T", s)
	}
}
