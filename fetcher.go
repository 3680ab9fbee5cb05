package exportsync

import "context"

// Fetcher retrieves the HTML of the index page.
type Fetcher interface {
	// Fetch returns the response body of a GET request to url.
	// Failures are reported as *FetchError.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// Downloader streams a remote file to a local path.
type Downloader interface {
	// Download writes the body of url to dest and returns the number of
	// bytes written. It never overwrites an existing dest, and on failure
	// leaves nothing behind at dest.
	Download(ctx context.Context, url, dest string) (n int64, err error)
}
