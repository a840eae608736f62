package store

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Bucket is a Store backed by a gocloud.dev/blob bucket.
type Bucket struct {
	bucket *blob.Bucket
	url    string
	owned  bool
}

// OpenBucket opens the bucket at url, e.g. "s3://mirror?region=eu-west-1".
func OpenBucket(ctx context.Context, url string) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store: open bucket: %w", err)
	}
	return &Bucket{bucket: b, url: url, owned: true}, nil
}

// NewBucket wraps an already opened bucket. The caller keeps ownership;
// Close does not close b.
func NewBucket(b *blob.Bucket, location string) *Bucket {
	return &Bucket{bucket: b, url: location}
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := b.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", key, err)
	}
	return ok, nil
}

// MkdirAll is a no-op: object keys carry their own prefixes.
func (b *Bucket) MkdirAll(context.Context, string) error {
	return nil
}

func (b *Bucket) Create(ctx context.Context, key string) (Writer, error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := b.bucket.NewWriter(wctx, key, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("store: create %s: %w", key, err)
	}
	return &objectWriter{bucket: b.bucket, key: key, w: w, cancel: cancel}, nil
}

func (b *Bucket) Location() string {
	return b.url
}

func (b *Bucket) Close() error {
	if !b.owned {
		return nil
	}
	return b.bucket.Close()
}

type objectWriter struct {
	bucket *blob.Bucket
	key    string
	w      *blob.Writer
	cancel context.CancelFunc
	closed bool
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.cancel()
	return w.w.Close()
}

// Abort cancels the upload before closing so the object is not committed,
// then deletes whatever a resumable upload may have stored already.
func (w *objectWriter) Abort() {
	if !w.closed {
		w.closed = true
		w.cancel()
		w.w.Close()
	}

	w.bucket.Delete(context.Background(), w.key) // Best effort, ignore errors
}
