package exportsync

import (
	"net/url"
	"time"
)

// Defaults applied by the CLI.
const (
	DefaultIndexURL        = "http://data.gdeltproject.org/events/index.html"
	DefaultKeyword         = "export"
	DefaultDownloadsDir    = "downloads"
	DefaultFetchTimeout    = 30 * time.Second
	DefaultDownloadTimeout = 10 * time.Minute
)

// Config holds everything a single run needs. It is passed explicitly to
// the pipeline; nothing is read from the environment after parsing.
type Config struct {
	IndexURL     string
	Bucket       string
	Prefix       string
	DownloadsDir string
	Keyword      string
	IgnoreCase   bool
	DryRun       bool

	// Zero disables the corresponding timeout.
	FetchTimeout    time.Duration
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// Validate returns an error if the config contains invalid fields.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return Errorf(EINVALID, "bucket URL required")
	}
	if c.Keyword == "" {
		return Errorf(EINVALID, "match keyword required")
	}
	if c.DownloadsDir == "" {
		return Errorf(EINVALID, "downloads directory required")
	}
	if c.IndexURL == "" {
		return Errorf(EINVALID, "index URL required")
	}
	u, err := url.Parse(c.IndexURL)
	if err != nil {
		return Errorf(EINVALID, "invalid index URL %q: %v", c.IndexURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "index URL %q must be http or https", c.IndexURL)
	}
	if c.FetchTimeout < 0 || c.DownloadTimeout < 0 || c.UploadTimeout < 0 {
		return Errorf(EINVALID, "timeouts must not be negative")
	}
	return nil
}

// Matcher returns the candidate matcher described by the config.
func (c *Config) Matcher() *Matcher {
	return &Matcher{
		Keyword:    c.Keyword,
		BaseURL:    c.IndexURL,
		IgnoreCase: c.IgnoreCase,
	}
}
