// Package dryrun provides an exportsync.Uploader that reports uploads
// instead of performing them.
package dryrun

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/exportsync"
	"github.com/kballard/go-shellquote"
)

// Ensure Uploader implements exportsync.Uploader at compile time.
var _ exportsync.Uploader = (*Uploader)(nil)

// Uploader prints the command the wrapped uploader would run.
type Uploader struct {
	next exportsync.Uploader
	w    io.Writer
}

// NewUploader creates an Uploader that reports next's commands to w.
func NewUploader(next exportsync.Uploader, w io.Writer) *Uploader {
	return &Uploader{next: next, w: w}
}

// Command delegates to the wrapped uploader.
func (u *Uploader) Command(localPath, dest string) []string {
	return u.next.Command(localPath, dest)
}

// Upload writes "RUN: <command>" with shell quoting and returns nil.
func (u *Uploader) Upload(_ context.Context, localPath, dest string) error {
	_, err := fmt.Fprintf(u.w, "RUN: %s\n", shellquote.Join(u.Command(localPath, dest)...))
	return err
}
