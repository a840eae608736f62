// Package walker mirrors one remote folder subtree into a store.
//
// Folders are processed from an explicit stack rather than by recursion.
// Children are pushed in reverse so folders are visited in the same
// depth-first pre-order the service lists them in: a folder's files first,
// then each subfolder's whole subtree in turn.
//
// Failures stay local. A folder whose metadata cannot be fetched contributes
// nothing and its siblings carry on; a file that cannot be downloaded is
// counted as failed and the next file is tried.
package walker

import (
	"context"
	"path"
	"time"

	"github.com/rs/zerolog"

	mirrorhttp "github.com/ligustah/treemirror/internal/http"
	"github.com/ligustah/treemirror/internal/progress"
	"github.com/ligustah/treemirror/internal/remote"
	"github.com/ligustah/treemirror/internal/sanitize"
	"github.com/ligustah/treemirror/internal/store"
)

// Source provides folder metadata and file URLs.
type Source interface {
	FetchFolder(ctx context.Context, id remote.FolderID) (*remote.Folder, error)
	FileURL(path string) string
}

// Fetcher downloads one file into a store key.
type Fetcher interface {
	Download(ctx context.Context, url, key string) (int64, error)
}

// Totals counts the files of a subtree.
type Totals struct {
	Downloaded int // saved now or already present
	Failed     int
}

// Add accumulates o into t.
func (t *Totals) Add(o Totals) {
	t.Downloaded += o.Downloaded
	t.Failed += o.Failed
}

// Options configures the walker.
type Options struct {
	// Extension is enforced on every local file name, e.g. ".pdf".
	Extension string

	// DownloadDelay is waited after every download attempt, successful or
	// not, to keep the request rate down. Skipped files do not wait.
	DownloadDelay time.Duration

	// Delay implements the waiting. Default: mirrorhttp.Sleep
	Delay mirrorhttp.DelayFunc

	// Reporter receives progress events. Default: progress.Discard()
	Reporter *progress.Reporter

	Logger zerolog.Logger
}

// Walker mirrors folder subtrees.
type Walker struct {
	source  Source
	fetcher Fetcher
	store   store.Store
	opts    Options
}

// New creates a Walker.
func New(source Source, fetcher Fetcher, s store.Store, opts Options) *Walker {
	if opts.Delay == nil {
		opts.Delay = mirrorhttp.Sleep
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Discard()
	}
	return &Walker{source: source, fetcher: fetcher, store: s, opts: opts}
}

// item is one pending folder. folder is set when the metadata is already
// known.
type item struct {
	id     remote.FolderID
	dir    string
	depth  int
	folder *remote.Folder
}

// Walk fetches folder id and mirrors its subtree into dir. The returned
// error is only ever a context error; the totals gathered until then are
// returned with it.
func (w *Walker) Walk(ctx context.Context, id remote.FolderID, dir string, depth int) (Totals, error) {
	return w.walk(ctx, item{id: id, dir: dir, depth: depth})
}

// WalkFolder is Walk for a folder whose metadata was already fetched.
func (w *Walker) WalkFolder(ctx context.Context, folder *remote.Folder, dir string, depth int) (Totals, error) {
	return w.walk(ctx, item{id: folder.ID, dir: dir, depth: depth, folder: folder})
}

func (w *Walker) walk(ctx context.Context, start item) (Totals, error) {
	var totals Totals

	if err := w.store.MkdirAll(ctx, start.dir); err != nil {
		w.opts.Logger.Error().Err(err).Str("dir", start.dir).Msg("create directory")
		w.opts.Reporter.FolderFailed(start.depth, string(start.id), err)
		return totals, nil
	}

	stack := []item{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		folder := it.folder
		if folder == nil {
			f, err := w.source.FetchFolder(ctx, it.id)
			if err != nil {
				if ctx.Err() != nil {
					return totals, ctx.Err()
				}
				w.opts.Reporter.FolderFailed(it.depth, string(it.id), err)
				continue
			}
			folder = f
		}
		w.opts.Reporter.Folder(it.depth, folder.DisplayName("folder_"+string(it.id)))

		t, err := w.processFiles(ctx, folder, it)
		totals.Add(t)
		if err != nil {
			return totals, err
		}

		children := w.prepareSubfolders(ctx, folder, it)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return totals, nil
}

func (w *Walker) processFiles(ctx context.Context, folder *remote.Folder, it item) (Totals, error) {
	var totals Totals

	for _, file := range folder.Files {
		if file.Path == "" {
			w.opts.Logger.Debug().Str("folder", string(it.id)).Str("name", file.Name).Msg("file without path, skipping")
			continue
		}

		name := sanitize.FileName(file.DisplayName(), w.opts.Extension)
		key := path.Join(it.dir, name)

		exists, err := w.store.Exists(ctx, key)
		if err != nil {
			w.opts.Logger.Error().Err(err).Str("key", key).Msg("check existing file")
			w.opts.Reporter.FileFailed(it.depth, name, err)
			totals.Failed++
			continue
		}
		if exists {
			w.opts.Reporter.FileSkipped(it.depth, name)
			totals.Downloaded++
			continue
		}

		w.opts.Reporter.FileStarted(it.depth, name)
		n, err := w.fetcher.Download(ctx, w.source.FileURL(file.Path), key)
		if err != nil {
			if ctx.Err() != nil {
				return totals, ctx.Err()
			}
			w.opts.Reporter.FileFailed(it.depth, name, err)
			totals.Failed++
		} else {
			w.opts.Reporter.FileSaved(it.depth, name, n)
			totals.Downloaded++
		}

		if err := w.opts.Delay(ctx, w.opts.DownloadDelay); err != nil {
			return totals, err
		}
	}

	return totals, nil
}

// prepareSubfolders creates the directories of folder's children and
// returns them in service order. Siblings whose names sanitize to the same
// segment share one directory.
func (w *Walker) prepareSubfolders(ctx context.Context, folder *remote.Folder, it item) []item {
	var children []item

	for _, ref := range folder.Folders {
		if ref.ID == "" {
			continue
		}

		name := ref.Name
		if name == "" {
			name = "folder_" + string(ref.ID)
		}
		dir := path.Join(it.dir, sanitize.Name(name))

		if err := w.store.MkdirAll(ctx, dir); err != nil {
			w.opts.Logger.Error().Err(err).Str("dir", dir).Msg("create directory")
			w.opts.Reporter.FolderFailed(it.depth+1, string(ref.ID), err)
			continue
		}

		children = append(children, item{id: ref.ID, dir: dir, depth: it.depth + 1})
	}

	return children
}
