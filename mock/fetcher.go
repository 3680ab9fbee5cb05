package mock

import (
	"context"

	"github.com/fwojciec/exportsync"
)

var (
	_ exportsync.Fetcher    = (*Fetcher)(nil)
	_ exportsync.Downloader = (*Downloader)(nil)
)

// Fetcher is a mock implementation of exportsync.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// Downloader is a mock implementation of exportsync.Downloader.
type Downloader struct {
	DownloadFn func(ctx context.Context, url, dest string) (int64, error)
}

func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	return d.DownloadFn(ctx, url, dest)
}
