package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/exportsync"
)

// Ensure LoggingDownloader implements exportsync.Downloader.
var _ exportsync.Downloader = (*LoggingDownloader)(nil)

// LoggingDownloader wraps a Downloader with logging.
type LoggingDownloader struct {
	next   exportsync.Downloader
	logger *slog.Logger
}

// NewLoggingDownloader creates a new LoggingDownloader.
func NewLoggingDownloader(next exportsync.Downloader, logger *slog.Logger) *LoggingDownloader {
	return &LoggingDownloader{next: next, logger: logger}
}

// Download delegates to the wrapped downloader and logs the transfer.
func (d *LoggingDownloader) Download(ctx context.Context, url, dest string) (n int64, err error) {
	defer func(begin time.Time) {
		d.logger.Info("download",
			"url", url,
			"dest", dest,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Download(ctx, url, dest)
}
