//go:build integration

package downloader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ligustah/treemirror/internal/downloader"
	mirrorhttp "github.com/ligustah/treemirror/internal/http"
	"github.com/ligustah/treemirror/internal/store"
	"github.com/ligustah/treemirror/internal/testutils"
)

func TestIntegrationDownloadToMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	files := map[string][]byte{
		"/tiny.pdf":   testutils.PDFData(1024),
		"/small.pdf":  testutils.PDFData(1024 * 1024),
		"/medium.pdf": testutils.PDFData(10 * 1024 * 1024),
	}

	// The first request for /flaky.pdf is cut short.
	flaky := testutils.PDFData(256 * 1024)
	flakyRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/flaky.pdf" {
			flakyRequests++
			w.Header().Set("Content-Length", strconv.Itoa(len(flaky)))
			if flakyRequests == 1 {
				w.Write(flaky[:1000])
				return
			}
			w.Write(flaky)
			return
		}
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	t.Log("Starting Minio container...")
	minio := testutils.StartMinioContainer(t, ctx, "downloader-test")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	s, err := store.Open(ctx, minio.URL("laws/"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	clientOpts := mirrorhttp.DefaultOptions()
	clientOpts.RetryDelay = 10 * time.Millisecond
	d := downloader.New(mirrorhttp.NewClient(clientOpts), s, downloader.Options{Timeout: time.Minute})

	bucket, err := minio.OpenBucket(ctx)
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bucket.Close()

	for path, data := range files {
		t.Run(path, func(t *testing.T) {
			key := "Civil Code" + path
			n, err := d.Download(ctx, server.URL+path, key)
			if err != nil {
				t.Fatalf("Download: %v", err)
			}
			if n != int64(len(data)) {
				t.Errorf("expected %d bytes, got %d", len(data), n)
			}
			testutils.CompareObject(t, ctx, bucket, "laws/"+key, data)
		})
	}

	t.Run("retry after truncated body", func(t *testing.T) {
		if _, err := d.Download(ctx, server.URL+"/flaky.pdf", "flaky.pdf"); err != nil {
			t.Fatalf("Download: %v", err)
		}
		testutils.CompareObject(t, ctx, bucket, "laws/flaky.pdf", flaky)
	})

	t.Run("failed download leaves no object", func(t *testing.T) {
		if _, err := d.Download(ctx, server.URL+"/missing.pdf", "missing.pdf"); err == nil {
			t.Fatal("expected error for missing file")
		}
		exists, err := bucket.Exists(ctx, "laws/missing.pdf")
		if err != nil {
			t.Fatalf("Exists: %v", err)
		}
		if exists {
			t.Error("expected no object after failed download")
		}
	})
}
