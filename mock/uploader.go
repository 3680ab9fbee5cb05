package mock

import (
	"context"

	"github.com/fwojciec/exportsync"
)

var _ exportsync.Uploader = (*Uploader)(nil)

// Uploader is a mock implementation of exportsync.Uploader.
type Uploader struct {
	UploadFn  func(ctx context.Context, localPath, dest string) error
	CommandFn func(localPath, dest string) []string
}

func (u *Uploader) Upload(ctx context.Context, localPath, dest string) error {
	return u.UploadFn(ctx, localPath, dest)
}

func (u *Uploader) Command(localPath, dest string) []string {
	return u.CommandFn(localPath, dest)
}
