// Package downloader streams single remote files into a store.
//
// The body is copied in fixed-size chunks straight into a store.Writer, so
// memory use does not depend on the file size. A failed attempt aborts the
// writer, removing the partial file, and the HTTP client retries from
// scratch; there is no resume of partial downloads.
//
// # Usage
//
//	d := downloader.New(client, dir, Options{
//	    ChunkSize: 8 * 1024,
//	    Timeout:   time.Minute,
//	})
//	n, err := d.Download(ctx, svc.FileURL(file.Path), "Laws/Civil Code/Law A.pdf")
//
// # Interruption
//
// Cancelling ctx fails the in-flight copy, which aborts the writer as well.
// A process killed outright can still leave a partial file behind; the next
// run treats it as complete because existence is the only marker.
package downloader
