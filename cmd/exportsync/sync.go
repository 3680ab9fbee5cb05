package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/exportsync"
	"github.com/fwojciec/exportsync/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Config   *exportsync.Config
	Pipeline *pipeline.Pipeline
}

// SyncCmd runs one sync pass and reports progress.
type SyncCmd struct{}

// Run executes the sync command.
func (c *SyncCmd) Run(deps *Dependencies) error {
	defer deps.Pipeline.Fetcher.Close()

	progress := func(p exportsync.Progress) {
		switch p.Type {
		case exportsync.ProgressSelected:
			fmt.Fprintf(deps.Stdout, "Found %d candidates\n", p.Total)
		case exportsync.ProgressRejected:
			fmt.Fprintf(deps.Stdout, "reject %s\n", p.URL)
		case exportsync.ProgressDownloaded:
			fmt.Fprintf(deps.Stdout, "[%d/%d] download %s (%d bytes)\n", p.Completed, p.Total, p.Candidate.Filename, p.Bytes)
		case exportsync.ProgressUploaded, exportsync.ProgressUploadFailed:
			fmt.Fprintf(deps.Stdout, "[%d/%d] %s %s -> %s\n", p.Completed, p.Total, p.Type, p.Candidate.Filename, p.Dest)
		default:
			fmt.Fprintf(deps.Stdout, "[%d/%d] %s %s\n", p.Completed, p.Total, p.Type, p.Candidate.Filename)
		}
	}

	summary, err := deps.Pipeline.Run(deps.Ctx, deps.Config, progress)
	if summary != nil {
		printSummary(deps, summary)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", exportsync.ErrorMessage(err))
		return err
	}
	return nil
}

func printSummary(deps *Dependencies, s *exportsync.Summary) {
	if s.DryRun {
		fmt.Fprintln(deps.Stdout, "dry run: no uploads were executed")
	}
	fmt.Fprintf(deps.Stdout, "downloaded=%d skipped=%d uploaded=%d upload_failed=%d download_failed=%d rejected=%d\n",
		s.Downloaded, s.Skipped, s.Uploaded, s.UploadFailed, s.DownloadFailed, s.Rejected)

	for _, err := range s.Failures {
		fmt.Fprintf(deps.Stderr, "failed: %v\n", err)
	}
}
