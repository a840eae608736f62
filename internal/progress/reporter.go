package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

const rule = "============================================================"

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// Indent is repeated once per folder depth.
	// Default: two spaces
	Indent string

	// NameWidth truncates file names in progress lines. Negative keeps them whole.
	// Default: 60
	NameWidth int
}

// Reporter prints the crawl as an indented tree, one line per event.
type Reporter struct {
	opts      Options
	startTime time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	if opts.NameWidth == 0 {
		opts.NameWidth = 60
	}

	return &Reporter{opts: opts, startTime: time.Now()}
}

// Discard returns a reporter that prints nothing.
func Discard() *Reporter {
	return NewReporter(Options{Output: io.Discard})
}

// Start prints the run header.
func (r *Reporter) Start(source, location string) {
	r.startTime = time.Now()
	fmt.Fprintln(r.opts.Output, rule)
	fmt.Fprintf(r.opts.Output, "[treemirror] Mirroring: %s\n", source)
	fmt.Fprintf(r.opts.Output, "[treemirror] Output directory: %s\n", location)
	fmt.Fprintln(r.opts.Output, rule)
}

// Root announces a root folder id.
func (r *Reporter) Root(id string) {
	fmt.Fprintf(r.opts.Output, "\n%s\nProcessing resource ID: %s\n%s\n", rule, id, rule)
}

// RootFailed reports a root whose metadata could not be fetched.
func (r *Reporter) RootFailed(id string, err error) {
	fmt.Fprintf(r.opts.Output, "✗ Failed to fetch root folder %s: %v\n", id, err)
}

// Folder reports entering a folder.
func (r *Reporter) Folder(depth int, name string) {
	r.line(depth, "📁 %s", name)
}

// FolderFailed reports a folder whose subtree is skipped.
func (r *Reporter) FolderFailed(depth int, id string, err error) {
	r.line(depth, "✗ Failed to fetch folder %s: %v", id, err)
}

// FileSkipped reports a file that already exists locally.
func (r *Reporter) FileSkipped(depth int, name string) {
	r.line(depth+1, "⏭ Skipping (exists): %s", r.shorten(name))
}

// FileStarted reports the start of a download.
func (r *Reporter) FileStarted(depth int, name string) {
	r.line(depth+1, "⬇ Downloading: %s", r.shorten(name))
}

// FileSaved reports a completed download of size bytes.
func (r *Reporter) FileSaved(depth int, name string, size int64) {
	r.line(depth+1, "✓ Saved: %s (%s)", r.shorten(name), formatBytes(size))
}

// FileFailed reports a download that failed on every attempt.
func (r *Reporter) FileFailed(depth int, name string, err error) {
	r.line(depth+1, "✗ Failed: %s (%v)", r.shorten(name), err)
}

// Summary prints the final totals.
func (r *Reporter) Summary(downloaded, failed int, location string) {
	fmt.Fprintln(r.opts.Output)
	fmt.Fprintln(r.opts.Output, rule)
	fmt.Fprintln(r.opts.Output, "DOWNLOAD COMPLETE")
	fmt.Fprintln(r.opts.Output, rule)
	fmt.Fprintf(r.opts.Output, "Total files downloaded: %d\n", downloaded)
	fmt.Fprintf(r.opts.Output, "Total files failed: %d\n", failed)
	fmt.Fprintf(r.opts.Output, "Files saved to: %s\n", location)
	fmt.Fprintf(r.opts.Output, "Total time: %s\n", formatDuration(time.Since(r.startTime)))
}

func (r *Reporter) line(depth int, format string, args ...any) {
	fmt.Fprintf(r.opts.Output, strings.Repeat(r.opts.Indent, depth)+format+"\n", args...)
}

func (r *Reporter) shorten(name string) string {
	if r.opts.NameWidth < 0 || utf8.RuneCountInString(name) <= r.opts.NameWidth {
		return name
	}
	runes := []rune(name)
	return string(runes[:r.opts.NameWidth]) + "..."
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string (e.g., "8KB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = strings.TrimSpace(s)

	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	_, err := fmt.Sscanf(s, "%f", &value)
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}
