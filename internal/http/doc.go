// Package http provides the GET client used for both folder metadata and
// file bodies.
//
// This package handles:
//   - A bounded number of attempts with a fixed delay between them
//   - Browser-like identification headers on every request
//   - Buffered JSON decoding (GetJSON) and streamed body consumption (Do)
//   - A pluggable delay so tests run without sleeping
//
// # Usage
//
//	client := http.NewClient(Options{
//	    Timeout:       30 * time.Second,
//	    RetryAttempts: 3,
//	    RetryDelay:    2 * time.Second,
//	    Header:        http.BrowserHeader(baseURL, ua, accept, lang),
//	})
//
//	var folder remote.Folder
//	err := client.GetJSON(ctx, url, 30*time.Second, &folder)
//
//	err = client.Do(ctx, url, time.Minute, func(body io.Reader) error {
//	    _, err := io.CopyBuffer(dst, body, buf)
//	    return err
//	})
//
// A request that fails on every attempt returns a *RetryError wrapping the
// last failure, so errors.Is(err, ErrStatus) and errors.Is(err, ErrMalformed)
// still work.
package http
