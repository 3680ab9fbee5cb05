// Package pipeline runs a single sync pass: fetch the index page, select
// candidates, download missing files and upload each candidate.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/exportsync"
	"github.com/fwojciec/exportsync/dryrun"
)

// Pipeline wires the components of a run. Steps run strictly in sequence.
type Pipeline struct {
	Fetcher    exportsync.Fetcher
	Extractor  exportsync.LinkExtractor
	Store      exportsync.LocalStore
	Downloader exportsync.Downloader
	Uploader   exportsync.Uploader

	// Out receives dry-run command reports. Defaults to io.Discard.
	Out io.Writer

	// RetryDelays are waited between attempts of the index fetch and each
	// download. Nil means a single attempt.
	RetryDelays []time.Duration
}

// Run executes one pass. It returns an error only for fatal problems:
// invalid configuration, an unusable downloads directory, an unreachable
// index page, or cancellation. Per-candidate failures are recorded in the
// summary.
func (p *Pipeline) Run(ctx context.Context, cfg *exportsync.Config, progress exportsync.ProgressFunc) (*exportsync.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(exportsync.Progress) {}
	}

	if err := p.Store.Ensure(); err != nil {
		return nil, err
	}
	if _, err := p.Store.CleanPartials(); err != nil {
		return nil, err
	}

	html, err := p.fetchIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	links, err := p.Extractor.ExtractLinks(html, cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("extract links: %w", err)
	}

	summary := &exportsync.Summary{DryRun: cfg.DryRun}
	candidates := p.selectCandidates(cfg, links, summary, progress)
	summary.Candidates = len(candidates)
	progress(exportsync.Progress{Type: exportsync.ProgressSelected, Total: len(candidates)})

	uploader := p.Uploader
	if cfg.DryRun {
		out := p.Out
		if out == nil {
			out = io.Discard
		}
		uploader = dryrun.NewUploader(uploader, out)
	}

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		p.process(ctx, cfg, uploader, c, i+1, len(candidates), summary, progress)
	}

	return summary, nil
}

func (p *Pipeline) fetchIndex(ctx context.Context, cfg *exportsync.Config) (string, error) {
	var html string
	err := withRetry(ctx, p.RetryDelays, func(ctx context.Context) error {
		ctx, cancel := withTimeout(ctx, cfg.FetchTimeout)
		defer cancel()

		var err error
		html, err = p.Fetcher.Fetch(ctx, cfg.IndexURL)
		return err
	})
	return html, err
}

// selectCandidates matches links in order, dropping repeated URLs and
// recording rejected names.
func (p *Pipeline) selectCandidates(cfg *exportsync.Config, links []string, summary *exportsync.Summary, progress exportsync.ProgressFunc) []*exportsync.Candidate {
	matcher := cfg.Matcher()
	seen := make(map[string]bool)

	var candidates []*exportsync.Candidate
	for _, link := range links {
		c, err := matcher.Match(link)
		if err != nil {
			summary.Rejected++
			summary.Failures = append(summary.Failures, err)
			progress(exportsync.Progress{
				Type:  exportsync.ProgressRejected,
				URL:   link,
				Error: err,
			})
			continue
		}
		if c == nil || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		candidates = append(candidates, c)
	}
	return candidates
}

func (p *Pipeline) process(
	ctx context.Context,
	cfg *exportsync.Config,
	uploader exportsync.Uploader,
	c *exportsync.Candidate,
	position, total int,
	summary *exportsync.Summary,
	progress exportsync.ProgressFunc,
) {
	event := func(t exportsync.ProgressType) exportsync.Progress {
		return exportsync.Progress{
			Type:      t,
			URL:       c.URL,
			Candidate: c,
			Completed: position,
			Total:     total,
		}
	}

	localPath := p.Store.Path(c.Filename)

	exists, err := p.Store.Exists(c.Filename)
	if err != nil {
		err = fmt.Errorf("check %s for %s: %w", localPath, c.URL, err)
		summary.DownloadFailed++
		summary.Failures = append(summary.Failures, err)
		e := event(exportsync.ProgressDownloadFailed)
		e.Error = err
		progress(e)
		return
	}

	if exists {
		summary.Skipped++
		progress(event(exportsync.ProgressSkipped))
	} else {
		n, err := p.download(ctx, cfg, c.URL, localPath)
		if err != nil {
			summary.DownloadFailed++
			summary.Failures = append(summary.Failures, err)
			e := event(exportsync.ProgressDownloadFailed)
			e.Error = err
			progress(e)
			return
		}
		summary.Downloaded++
		e := event(exportsync.ProgressDownloaded)
		e.Bytes = n
		progress(e)
	}

	dest := exportsync.DestinationURL(cfg.Bucket, cfg.Prefix, c.Filename)
	if err := p.upload(ctx, cfg, uploader, localPath, dest); err != nil {
		summary.UploadFailed++
		summary.Failures = append(summary.Failures, err)
		e := event(exportsync.ProgressUploadFailed)
		e.Dest = dest
		e.Error = err
		progress(e)
		return
	}
	summary.Uploaded++
	e := event(exportsync.ProgressUploaded)
	e.Dest = dest
	progress(e)
}

func (p *Pipeline) download(ctx context.Context, cfg *exportsync.Config, url, dest string) (int64, error) {
	var n int64
	err := withRetry(ctx, p.RetryDelays, func(ctx context.Context) error {
		ctx, cancel := withTimeout(ctx, cfg.DownloadTimeout)
		defer cancel()

		var err error
		n, err = p.Downloader.Download(ctx, url, dest)
		if exportsync.ErrorCode(err) == exportsync.ECONFLICT {
			return permanent{err}
		}
		return err
	})
	return n, err
}

func (p *Pipeline) upload(ctx context.Context, cfg *exportsync.Config, uploader exportsync.Uploader, localPath, dest string) error {
	ctx, cancel := withTimeout(ctx, cfg.UploadTimeout)
	defer cancel()
	return uploader.Upload(ctx, localPath, dest)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
