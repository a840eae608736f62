// Package mirror runs a complete mirror: every configured root folder is
// fetched, given a top-level directory and walked into the output store.
//
// # Usage
//
//	m, err := mirror.New(ctx, cfg, mirror.Options{Output: os.Stdout, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	totals, err := m.Run(ctx)
//
// A root whose metadata cannot be fetched still gets a resources_{id}
// directory but is not walked. Its failure does not affect the other roots.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ligustah/treemirror/internal/config"
	"github.com/ligustah/treemirror/internal/downloader"
	mirrorhttp "github.com/ligustah/treemirror/internal/http"
	"github.com/ligustah/treemirror/internal/progress"
	"github.com/ligustah/treemirror/internal/remote"
	"github.com/ligustah/treemirror/internal/sanitize"
	"github.com/ligustah/treemirror/internal/store"
	"github.com/ligustah/treemirror/internal/walker"
)

// ErrStorage marks failures to open or prepare the output store.
var ErrStorage = errors.New("output storage error")

// Options holds the collaborators of a run that are not configuration.
type Options struct {
	// Output receives progress lines. Default: io.Discard
	Output io.Writer

	Logger zerolog.Logger

	// Delay implements retry and inter-download waits. Default: mirrorhttp.Sleep
	Delay mirrorhttp.DelayFunc

	// Transport overrides the HTTP round tripper.
	Transport http.RoundTripper

	// Store overrides the store opened from the configured output.
	Store store.Store
}

// Mirror mirrors the configured roots into one store.
type Mirror struct {
	cfg      config.Config
	store    store.Store
	ownStore bool
	service  *remote.Service
	walker   *walker.Walker
	reporter *progress.Reporter
	logger   zerolog.Logger
}

// New wires a Mirror from cfg. The output store is opened here; errors doing
// so wrap ErrStorage.
func New(ctx context.Context, cfg config.Config, opts Options) (*Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	s, ownStore := opts.Store, false
	if s == nil {
		var err error
		s, err = store.Open(ctx, cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		ownStore = true
	}

	clientOpts := mirrorhttp.DefaultOptions()
	clientOpts.Timeout = cfg.Timeouts.Metadata
	clientOpts.RetryAttempts = cfg.Retry.Attempts
	clientOpts.RetryDelay = cfg.Retry.Delay
	clientOpts.Header = mirrorhttp.BrowserHeader(cfg.BaseURL, cfg.Headers.UserAgent, cfg.Headers.Accept, cfg.Headers.AcceptLanguage)
	clientOpts.Transport = opts.Transport
	clientOpts.Logger = opts.Logger
	if opts.Delay != nil {
		clientOpts.Delay = opts.Delay
	}
	client := mirrorhttp.NewClient(clientOpts)

	reporter := progress.NewReporter(progress.Options{Output: opts.Output})
	service := remote.NewService(cfg.BaseURL, client, cfg.Timeouts.Metadata)
	fetcher := downloader.New(client, s, downloader.Options{
		ChunkSize: cfg.ChunkSize,
		Timeout:   cfg.Timeouts.Download,
	})

	return &Mirror{
		cfg:      cfg,
		store:    s,
		ownStore: ownStore,
		service:  service,
		walker: walker.New(service, fetcher, s, walker.Options{
			Extension:     cfg.Extension,
			DownloadDelay: cfg.DownloadDelay,
			Delay:         clientOpts.Delay,
			Reporter:      reporter,
			Logger:        opts.Logger,
		}),
		reporter: reporter,
		logger:   opts.Logger,
	}, nil
}

// Run mirrors every root in order and returns the summed totals. Failures
// inside a root are counted, not returned; the error is non-nil only when
// the output root cannot be created or ctx is done. The summary is printed
// in every case once the output root exists.
func (m *Mirror) Run(ctx context.Context) (walker.Totals, error) {
	var totals walker.Totals

	m.reporter.Start(m.cfg.BaseURL, m.store.Location())
	if err := m.store.MkdirAll(ctx, ""); err != nil {
		return totals, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var runErr error
	for _, root := range m.cfg.Roots {
		t, err := m.mirrorRoot(ctx, remote.FolderID(root))
		totals.Add(t)
		if err != nil {
			runErr = err
			break
		}
	}

	m.reporter.Summary(totals.Downloaded, totals.Failed, m.store.Location())
	m.logger.Info().
		Int("downloaded", totals.Downloaded).
		Int("failed", totals.Failed).
		Str("output", m.store.Location()).
		Msg("mirror finished")

	return totals, runErr
}

func (m *Mirror) mirrorRoot(ctx context.Context, id remote.FolderID) (walker.Totals, error) {
	m.reporter.Root(string(id))

	folder, fetchErr := m.service.FetchFolder(ctx, id)
	if fetchErr != nil && ctx.Err() != nil {
		return walker.Totals{}, ctx.Err()
	}

	name := "resources_" + string(id)
	if folder != nil {
		name = folder.DisplayName(name)
	}
	dir := sanitize.Name(name)

	if err := m.store.MkdirAll(ctx, dir); err != nil {
		m.logger.Error().Err(err).Str("dir", dir).Msg("create root directory")
		m.reporter.RootFailed(string(id), err)
		return walker.Totals{}, nil
	}

	if fetchErr != nil {
		m.logger.Error().Err(fetchErr).Str("root", string(id)).Msg("skipping root")
		m.reporter.RootFailed(string(id), fetchErr)
		return walker.Totals{}, nil
	}

	return m.walker.WalkFolder(ctx, folder, dir, 0)
}

// Close releases the store when New opened it.
func (m *Mirror) Close() error {
	if !m.ownStore {
		return nil
	}
	return m.store.Close()
}
