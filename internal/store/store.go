// Package store is the destination of a mirror run.
//
// Keys are slash-separated paths relative to the store root, e.g.
// "Laws/Civil Code/Law A.pdf". Two implementations exist:
//
//   - Dir writes into a local directory tree (the default).
//   - Bucket writes objects into a gocloud.dev/blob bucket (s3://, gs://,
//     file://, mem://). Buckets have no directories, so MkdirAll is a no-op
//     there and empty remote folders leave no trace.
//
// A Writer is either committed with Close or discarded with Abort; an
// aborted write never leaves a partial file behind.
package store

import (
	"context"
	"io"
	"strings"
)

// Store is a destination for mirrored folders and files.
type Store interface {
	// Exists reports whether a file already exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// MkdirAll creates the directory at key and its parents. It succeeds
	// when the directory already exists.
	MkdirAll(ctx context.Context, key string) error

	// Create opens key for writing, truncating any previous content.
	Create(ctx context.Context, key string) (Writer, error)

	// Location describes the store root for display.
	Location() string

	Close() error
}

// Writer receives one file's content.
type Writer interface {
	io.Writer

	// Close commits the written content.
	Close() error

	// Abort discards the written content and removes the destination.
	// Safe to call after a failed Close.
	Abort()
}

// Open opens target as a Bucket when it looks like a URL ("scheme://...")
// and as a Dir otherwise.
func Open(ctx context.Context, target string) (Store, error) {
	if strings.Contains(target, "://") {
		return OpenBucket(ctx, target)
	}
	return NewDir(target)
}
