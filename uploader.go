package exportsync

import "context"

// Uploader copies a local file to an object storage URL.
type Uploader interface {
	// Upload copies localPath to dest synchronously.
	// Failures are reported as *UploadError.
	Upload(ctx context.Context, localPath, dest string) error

	// Command returns the command line equivalent to Upload, for reporting.
	Command(localPath, dest string) []string
}
