package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligustah/treemirror/internal/config"
	"github.com/ligustah/treemirror/internal/mirror"
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

type flags struct {
	configPath    string
	baseURL       string
	roots         []string
	output        string
	extension     string
	retryAttempts int
	retryDelay    time.Duration
	downloadDelay time.Duration
	logLevel      string
	strict        bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "treemirror",
		Short: "Mirror a remote folder tree to local disk or object storage",
		Long: `treemirror walks the folder API of a document portal and mirrors every
folder and file below the configured roots into an output directory or bucket.

Files that already exist are skipped, so an interrupted run can simply be
started again. Configuration is read from an optional YAML file, a .env file,
TREEMIRROR_* environment variables and flags, in increasing precedence.`,
		Example: `  # Mirror the default roots into ./laws
  treemirror

  # Mirror two roots into a bucket
  treemirror --root 12 --root 569 --output s3://my-bucket/laws?region=eu-west-1

  # Use a config file and fail the run when any file could not be fetched
  treemirror --config treemirror.yaml --strict`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runMirror(cmd, &f, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVar(&f.baseURL, "base-url", "", "Service base URL (default https://adala.justice.gov.ma)")
	fl.StringSliceVarP(&f.roots, "root", "r", nil, "Root folder id to mirror, repeatable (default 12,569)")
	fl.StringVarP(&f.output, "output", "o", "", "Output directory or bucket URL (default laws)")
	fl.StringVar(&f.extension, "extension", "", "Extension enforced on file names (default .pdf)")
	fl.IntVar(&f.retryAttempts, "retry-attempts", 0, "Attempts per request (default 3)")
	fl.DurationVar(&f.retryDelay, "retry-delay", 0, "Delay between attempts (default 2s)")
	fl.DurationVar(&f.downloadDelay, "download-delay", 0, "Delay after each download (default 500ms)")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
	fl.BoolVar(&f.strict, "strict", false, "Exit with code 3 when any file failed to download")

	return cmd
}

// loadConfig resolves defaults, file, environment and flags in that order.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		fileCfg, err := config.LoadFromFile(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}

	if err := cfg.LoadEnv(".env"); err != nil {
		return config.Config{}, err
	}

	cfg = cfg.Merge(config.Config{
		BaseURL:   f.baseURL,
		Roots:     f.roots,
		Output:    f.output,
		Extension: f.extension,
		LogLevel:  f.logLevel,
		Strict:    f.strict,
		Retry: config.RetryConfig{
			Attempts: f.retryAttempts,
			Delay:    f.retryDelay,
		},
		DownloadDelay: f.downloadDelay,
	})

	// Merge ignores zero values, an explicit zero delay still applies.
	if cmd.Flags().Changed("retry-delay") {
		cfg.Retry.Delay = f.retryDelay
	}
	if cmd.Flags().Changed("download-delay") {
		cfg.DownloadDelay = f.downloadDelay
	}

	return cfg, cfg.Validate()
}

func runMirror(cmd *cobra.Command, f *flags, stdout, stderr io.Writer) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return &exitError{code: ExitInvalidArgs, err: err}
	}

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return &exitError{code: ExitInvalidArgs, err: err}
	}

	m, err := mirror.New(ctx, cfg, mirror.Options{Output: stdout, Logger: logger})
	if err != nil {
		if errors.Is(err, mirror.ErrStorage) {
			return &exitError{code: ExitStorageError, err: err}
		}
		return &exitError{code: ExitGeneralError, err: err}
	}
	defer m.Close()

	totals, err := m.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fail(ExitGeneralError, "mirror interrupted, rerun to resume: %w", err)
		}
		if errors.Is(err, mirror.ErrStorage) {
			return &exitError{code: ExitStorageError, err: err}
		}
		return &exitError{code: ExitGeneralError, err: err}
	}

	if cfg.Strict && totals.Failed > 0 {
		return fail(ExitPartialFailure, "%d files failed", totals.Failed)
	}
	return nil
}

// execute runs the command line and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Anything cobra rejects before running is a usage error.
	return ExitInvalidArgs
}
