package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/exportsync"
)

// Ensure LoggingUploader implements exportsync.Uploader.
var _ exportsync.Uploader = (*LoggingUploader)(nil)

// LoggingUploader wraps an Uploader with logging.
type LoggingUploader struct {
	next   exportsync.Uploader
	logger *slog.Logger
}

// NewLoggingUploader creates a new LoggingUploader.
func NewLoggingUploader(next exportsync.Uploader, logger *slog.Logger) *LoggingUploader {
	return &LoggingUploader{next: next, logger: logger}
}

// Upload delegates to the wrapped uploader and logs the result.
func (u *LoggingUploader) Upload(ctx context.Context, localPath, dest string) (err error) {
	defer func(begin time.Time) {
		u.logger.Info("upload",
			"path", localPath,
			"dest", dest,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return u.next.Upload(ctx, localPath, dest)
}

// Command delegates to the wrapped uploader.
func (u *LoggingUploader) Command(localPath, dest string) []string {
	return u.next.Command(localPath, dest)
}
