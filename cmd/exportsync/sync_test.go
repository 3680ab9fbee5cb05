package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/exportsync"
	main "github.com/fwojciec/exportsync/cmd/exportsync"
	"github.com/fwojciec/exportsync/goquery"
	"github.com/fwojciec/exportsync/mock"
	"github.com/fwojciec/exportsync/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDependencies(fetcher *mock.Fetcher) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: &stdout,
		Stderr: &stderr,
		Config: &exportsync.Config{
			IndexURL:     "http://data.example.org/index.html",
			Bucket:       "gs://b",
			DownloadsDir: "downloads",
			Keyword:      "export",
		},
		Pipeline: &pipeline.Pipeline{
			Fetcher:   fetcher,
			Extractor: goquery.NewLinkExtractor(),
			Store: &mock.LocalStore{
				EnsureFn:        func() error { return nil },
				CleanPartialsFn: func() (int, error) { return 0, nil },
			},
		},
	}, &stdout, &stderr
}

// Story: Sync Command Lifecycle

func TestSyncCmd_ClosesFetcher(t *testing.T) {
	t.Parallel()

	t.Run("after a completed run", func(t *testing.T) {
		t.Parallel()

		// Given: an index with no candidates
		var closed int
		deps, stdout, _ := newDependencies(&mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return "<html></html>", nil },
			CloseFn: func() error { closed++; return nil },
		})

		// When: the command runs
		err := (&main.SyncCmd{}).Run(deps)

		// Then: the fetcher is closed once
		require.NoError(t, err)
		assert.Equal(t, 1, closed)
		assert.Contains(t, stdout.String(), "Found 0 candidates\n")
	})

	t.Run("after a fatal error", func(t *testing.T) {
		t.Parallel()

		var closed int
		deps, _, stderr := newDependencies(&mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "", &exportsync.FetchError{URL: url, StatusCode: 503}
			},
			CloseFn: func() error { closed++; return nil },
		})

		err := (&main.SyncCmd{}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, 1, closed)
		assert.Contains(t, stderr.String(), "error: fetch http://data.example.org/index.html: HTTP 503")
	})
}
