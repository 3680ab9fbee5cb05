// Package s3 implements exportsync.Uploader for s3:// destinations using
// the AWS SDK. Credentials come from the SDK's default chain.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fwojciec/exportsync"
	"github.com/spf13/afero"
)

// Scheme is the URL scheme handled by this package.
const Scheme = "s3"

// PutObjectAPI is the subset of *s3.Client used by Uploader.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Ensure Uploader implements exportsync.Uploader at compile time.
var _ exportsync.Uploader = (*Uploader)(nil)

// Uploader puts local files into S3.
type Uploader struct {
	client PutObjectAPI
	fs     afero.Fs
}

// NewUploader creates an Uploader that reads local files from fs.
func NewUploader(client PutObjectAPI, fs afero.Fs) *Uploader {
	return &Uploader{client: client, fs: fs}
}

// Command returns the AWS CLI invocation equivalent to Upload.
func (u *Uploader) Command(localPath, dest string) []string {
	return []string{"aws", "s3", "cp", localPath, dest}
}

// Upload streams localPath to the bucket and key named by dest.
func (u *Uploader) Upload(ctx context.Context, localPath, dest string) error {
	bucket, key, err := ParseURL(dest)
	if err != nil {
		return &exportsync.UploadError{Path: localPath, Dest: dest, Err: err}
	}

	f, err := u.fs.Open(localPath)
	if err != nil {
		return &exportsync.UploadError{Path: localPath, Dest: dest, Err: err}
	}
	defer f.Close()

	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return &exportsync.UploadError{Path: localPath, Dest: dest, Output: err.Error(), Err: fmt.Errorf("put object: %w", err)}
	}
	return nil
}

// ParseURL splits s3://bucket/key into its bucket and key. The key is
// taken verbatim: no percent-decoding, and '#' or '?' are part of it.
func ParseURL(rawURL string) (bucket, key string, err error) {
	if !IsURL(rawURL) {
		return "", "", exportsync.Errorf(exportsync.EINVALID, "not an S3 URL: %q", rawURL)
	}
	bucket, key, _ = strings.Cut(rawURL[len(Scheme)+len("://"):], "/")
	if bucket == "" || key == "" {
		return "", "", exportsync.Errorf(exportsync.EINVALID, "S3 URL %q needs a bucket and key", rawURL)
	}
	return bucket, key, nil
}

// IsURL reports whether rawURL names an S3 location.
func IsURL(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), Scheme+"://")
}
