package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/rs/zerolog"
)

// Common errors.
var (
	ErrStatus    = errors.New("http: unexpected status")
	ErrMalformed = errors.New("http: malformed response body")
)

// Default identification headers. The remote service rejects clients that
// do not look like a browser.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "application/json, text/plain, */*"
	DefaultAcceptLanguage = "en-US,en;q=0.9,ar;q=0.8,fr;q=0.7"
)

// DelayFunc blocks for d or until ctx is done.
type DelayFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default DelayFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures the HTTP client.
type Options struct {
	// Timeout is used for requests that do not pass their own.
	// Default: 30s
	Timeout time.Duration

	// RetryAttempts is the total number of attempts per request.
	// Default: 3
	RetryAttempts int

	// RetryDelay is the fixed wait between two attempts.
	// Default: 2s
	RetryDelay time.Duration

	// Header is sent with every request.
	Header http.Header

	// Delay waits between attempts. Default: Sleep
	Delay DelayFunc

	// Transport overrides the round tripper, mainly for tests.
	Transport http.RoundTripper

	Logger zerolog.Logger
}

// DefaultOptions returns options matching the remote service's expectations.
func DefaultOptions() Options {
	return Options{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
		Header:        BrowserHeader("", DefaultUserAgent, DefaultAccept, DefaultAcceptLanguage),
		Delay:         Sleep,
		Logger:        zerolog.Nop(),
	}
}

// BrowserHeader builds the identification header set. referer is usually the
// service origin and is omitted when empty.
func BrowserHeader(referer, userAgent, accept, acceptLanguage string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	h.Set("Accept", accept)
	h.Set("Accept-Language", acceptLanguage)
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

// RetryError is returned once every attempt of a request has failed.
type RetryError struct {
	URL      string
	Attempts int
	Err      error // last attempt's error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("GET %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// BodyFunc consumes a successful response body. Returning an error fails
// the attempt and, unless it was the last one, triggers a retry.
type BodyFunc func(body io.Reader) error

// Client performs GET requests with a bounded number of attempts.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 1
	}
	if opts.Delay == nil {
		opts.Delay = Sleep
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Do issues GET url and hands the body of a 2xx response to fn. timeout
// bounds one attempt including the body consumption; zero uses the client
// default. The returned error is nil, a context error, or a *RetryError.
func (c *Client) Do(ctx context.Context, url string, timeout time.Duration, fn BodyFunc) error {
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 1 {
			if err := c.opts.Delay(ctx, c.opts.RetryDelay); err != nil {
				return err
			}
		}

		lastErr = c.attempt(ctx, url, timeout, fn)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.opts.Logger.Warn().
			Err(lastErr).
			Str("url", url).
			Msgf("attempt %d/%d failed", attempt, c.opts.RetryAttempts)
	}

	return &RetryError{URL: url, Attempts: c.opts.RetryAttempts, Err: lastErr}
}

// GetJSON fetches url and decodes the whole body into v, which must be a
// non-nil pointer. Each attempt decodes into a fresh value; v is only
// assigned once an attempt succeeds, so a partly decoded body never leaks
// into the result.
func (c *Client) GetJSON(ctx context.Context, url string, timeout time.Duration, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("GetJSON: need a non-nil pointer, got %T", v)
	}

	return c.Do(ctx, url, timeout, func(body io.Reader) error {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		fresh := reflect.New(rv.Elem().Type())
		if err := json.Unmarshal(data, fresh.Interface()); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rv.Elem().Set(fresh.Elem())
		return nil
	})
}

func (c *Client) attempt(ctx context.Context, url string, timeout time.Duration, fn BodyFunc) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.opts.Header {
		req.Header[k] = v
	}

	c.opts.Logger.Debug().Str("url", url).Msg("GET")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return err
	}

	return fn(resp.Body)
}

// checkStatusCode returns an error wrapping ErrStatus for non-2xx codes.
func checkStatusCode(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return fmt.Errorf("%w: %d %s", ErrStatus, code, http.StatusText(code))
}
