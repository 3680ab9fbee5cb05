// Package http provides net/http implementations of exportsync.Fetcher and
// exportsync.Downloader.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/exportsync"
)

// DefaultFetchTimeout is the default timeout for index page requests.
const DefaultFetchTimeout = exportsync.DefaultFetchTimeout

// Ensure Fetcher implements exportsync.Fetcher at compile time.
var _ exportsync.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves the index page over HTTP.
type Fetcher struct {
	client  *http.Client
	limiter *HostLimiter
}

// Option configures a Fetcher or Downloader.
type Option func(*options)

type options struct {
	timeout time.Duration
	limiter *HostLimiter
}

// WithTimeout sets the timeout for each request, including reading the
// body. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRateLimit limits requests to rps per host. Zero or less disables
// limiting.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.limiter = NewHostLimiter(rps)
		}
	}
}

// WithHostLimiter shares an existing limiter, so the index fetch and the
// downloads draw from the same per-host budget.
func WithHostLimiter(l *HostLimiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	o := &options{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(o)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: o.timeout},
		limiter: o.limiter,
	}
}

// Fetch retrieves the body of the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", &exportsync.FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &exportsync.FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &exportsync.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", &exportsync.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &exportsync.FetchError{URL: url, Err: err}
	}

	return string(body), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
