// Package exec implements exportsync.Uploader by running an external
// command line tool such as gsutil.
package exec

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/fwojciec/exportsync"
)

// DefaultCommand is the upload tool used when none is configured.
var DefaultCommand = []string{"gsutil", "cp"}

// Ensure Uploader implements exportsync.Uploader at compile time.
var _ exportsync.Uploader = (*Uploader)(nil)

// Uploader runs a command with the local path and destination URL
// appended as the final two arguments.
type Uploader struct {
	command []string
}

// NewUploader creates an Uploader for the given command and leading
// arguments. With no arguments DefaultCommand is used.
func NewUploader(command ...string) *Uploader {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Uploader{command: append([]string(nil), command...)}
}

// Command returns the full argument vector Upload would execute.
func (u *Uploader) Command(localPath, dest string) []string {
	args := make([]string, 0, len(u.command)+2)
	args = append(args, u.command...)
	return append(args, localPath, dest)
}

// Upload runs the command and waits for it. A non-zero exit is returned as
// an *exportsync.UploadError holding the combined output of the tool.
func (u *Uploader) Upload(ctx context.Context, localPath, dest string) error {
	args := u.Command(localPath, dest)

	if _, err := exec.LookPath(args[0]); err != nil {
		return &exportsync.UploadError{
			Path: localPath,
			Dest: dest,
			Err:  fmt.Errorf("%q not found on PATH: %w", args[0], err),
		}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &exportsync.UploadError{
			Path:   localPath,
			Dest:   dest,
			Output: string(out),
			Err:    err,
		}
	}
	return nil
}
