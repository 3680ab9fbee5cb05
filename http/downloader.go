package http

import (
	"context"
	"io"
	"net/http"

	"github.com/fwojciec/exportsync"
	"github.com/spf13/afero"
)

// DefaultDownloadTimeout is the default timeout for a single file download.
const DefaultDownloadTimeout = exportsync.DefaultDownloadTimeout

// Ensure Downloader implements exportsync.Downloader at compile time.
var _ exportsync.Downloader = (*Downloader)(nil)

// Downloader streams remote files to disk. The body is written to
// dest+".part" and renamed to dest only once it has been read completely.
type Downloader struct {
	fs      afero.Fs
	client  *http.Client
	limiter *HostLimiter
}

// NewDownloader creates a Downloader that writes through fs.
func NewDownloader(fs afero.Fs, opts ...Option) *Downloader {
	o := &options{timeout: DefaultDownloadTimeout}
	for _, opt := range opts {
		opt(o)
	}

	return &Downloader{
		fs:      fs,
		client:  &http.Client{Timeout: o.timeout},
		limiter: o.limiter,
	}
}

// Download fetches url into dest. It refuses to overwrite an existing dest
// and removes the partial file on any failure.
func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	exists, err := afero.Exists(d.fs, dest)
	if err != nil {
		return 0, &exportsync.FetchError{URL: url, Err: err}
	}
	if exists {
		return 0, exportsync.Errorf(exportsync.ECONFLICT, "%s already exists", dest)
	}

	if err := d.limiter.Wait(ctx, url); err != nil {
		return 0, &exportsync.FetchError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &exportsync.FetchError{URL: url, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &exportsync.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return 0, &exportsync.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	n, err := d.write(dest, resp.Body)
	if err != nil {
		return 0, &exportsync.FetchError{URL: url, Err: err}
	}
	return n, nil
}

func (d *Downloader) write(dest string, r io.Reader) (n int64, err error) {
	tmp := dest + exportsync.PartialSuffix

	f, err := d.fs.Create(tmp)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = d.fs.Remove(tmp)
		}
	}()

	n, err = io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err = f.Close(); err != nil {
		return 0, err
	}

	if err = d.fs.Rename(tmp, dest); err != nil {
		return 0, err
	}
	return n, nil
}
