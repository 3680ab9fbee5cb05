package main

import (
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/exportsync"
	"github.com/fwojciec/exportsync/exec"
	"github.com/kballard/go-shellquote"
)

const defaultConfigPath = "exportsync.yaml"

// vars feeds the shared defaults into the kong default tags.
func vars() kong.Vars {
	return kong.Vars{
		"default_downloads_dir":    exportsync.DefaultDownloadsDir,
		"default_keyword":          exportsync.DefaultKeyword,
		"default_index_url":        exportsync.DefaultIndexURL,
		"default_fetch_timeout":    exportsync.DefaultFetchTimeout.String(),
		"default_download_timeout": exportsync.DefaultDownloadTimeout.String(),
		"default_upload_command":   shellquote.Join(exec.DefaultCommand...),
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigFile kong.ConfigFlag `name:"config" help:"YAML file with flag values" placeholder:"PATH"`

	Bucket        string `required:"" env:"EXPORTSYNC_BUCKET" help:"Destination bucket URL (gs://... or s3://...)"`
	DestPrefix    string `env:"EXPORTSYNC_DEST_PREFIX" help:"Path inside the bucket to upload under"`
	DownloadsDir  string `default:"${default_downloads_dir}" env:"EXPORTSYNC_DOWNLOADS_DIR" help:"Local directory for downloaded files"`
	Keyword       string `default:"${default_keyword}" env:"EXPORTSYNC_KEYWORD" help:"Substring a link must contain to be mirrored"`
	IgnoreCase    bool   `help:"Match the keyword case-insensitively"`
	IndexURL      string `default:"${default_index_url}" env:"EXPORTSYNC_INDEX_URL" help:"Index page listing the files"`
	DryRun        bool   `short:"n" help:"Print upload commands instead of running them"`
	UploadCommand string `default:"${default_upload_command}" env:"EXPORTSYNC_UPLOAD_COMMAND" help:"Upload tool and leading arguments; the local path and destination are appended"`

	FetchTimeout    time.Duration `default:"${default_fetch_timeout}" help:"Index page fetch timeout"`
	DownloadTimeout time.Duration `default:"${default_download_timeout}" help:"Per-file download timeout"`
	UploadTimeout   time.Duration `default:"0s" help:"Per-file upload timeout (0 for none)"`

	Retries   int     `default:"0" help:"Retries for the index fetch and each download"`
	RateLimit float64 `default:"0" help:"Requests per second per host (0 for unlimited)"`
	Debug     bool    `help:"Log each request and upload to stderr"`
}

// Config converts parsed flags into a run configuration.
func (c *CLI) Config() *exportsync.Config {
	return &exportsync.Config{
		IndexURL:        c.IndexURL,
		Bucket:          c.Bucket,
		Prefix:          c.DestPrefix,
		DownloadsDir:    c.DownloadsDir,
		Keyword:         c.Keyword,
		IgnoreCase:      c.IgnoreCase,
		DryRun:          c.DryRun,
		FetchTimeout:    c.FetchTimeout,
		DownloadTimeout: c.DownloadTimeout,
		UploadTimeout:   c.UploadTimeout,
	}
}
