package downloader

import (
	"context"
	"fmt"
	"io"
	"time"

	mirrorhttp "github.com/ligustah/treemirror/internal/http"
	"github.com/ligustah/treemirror/internal/store"
)

// DefaultChunkSize is the read buffer used while streaming a body.
const DefaultChunkSize = 8 * 1024

// Options configures the downloader.
type Options struct {
	// ChunkSize is the size of each read from the response body.
	ChunkSize int64

	// Timeout bounds one attempt, including the whole body transfer.
	Timeout time.Duration
}

// Downloader streams remote files into a store.
type Downloader struct {
	client *mirrorhttp.Client
	store  store.Store
	opts   Options
}

// New creates a Downloader writing into s.
func New(client *mirrorhttp.Client, s store.Store, opts Options) *Downloader {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Downloader{client: client, store: s, opts: opts}
}

// Download fetches url into key and returns the number of bytes stored.
// Every attempt starts from an empty file; when an attempt fails the partial
// file is removed before the next one, so after a failed Download nothing
// exists at key.
func (d *Downloader) Download(ctx context.Context, url, key string) (int64, error) {
	buf := make([]byte, d.opts.ChunkSize)

	var written int64
	err := d.client.Do(ctx, url, d.opts.Timeout, func(body io.Reader) error {
		n, err := d.write(ctx, key, body, buf)
		written = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", key, err)
	}
	return written, nil
}

func (d *Downloader) write(ctx context.Context, key string, body io.Reader, buf []byte) (int64, error) {
	w, err := d.store.Create(ctx, key)
	if err != nil {
		return 0, err
	}

	n, err := io.CopyBuffer(w, onlyReader{body}, buf)
	if err != nil {
		w.Abort()
		return 0, fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		w.Abort()
		return 0, fmt.Errorf("commit: %w", err)
	}

	return n, nil
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer really reads in
// ChunkSize pieces.
type onlyReader struct {
	io.Reader
}
