package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/exportsync"
	"github.com/fwojciec/exportsync/fs"
	"github.com/fwojciec/exportsync/goquery"
	exphttp "github.com/fwojciec/exportsync/http"
	"github.com/fwojciec/exportsync/mock"
	"github.com/fwojciec/exportsync/pipeline"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexURL = "http://data.example.org/events/index.html"

func newConfig() *exportsync.Config {
	return &exportsync.Config{
		IndexURL:     indexURL,
		Bucket:       "gs://bucket",
		Prefix:       "data/",
		DownloadsDir: "downloads",
		Keyword:      "export",
	}
}

// fixture wires a pipeline with mocks that record calls.
type fixture struct {
	pipeline  *pipeline.Pipeline
	existing  map[string]bool
	downloads []string
	uploads   []string
}

func newFixture(html string) *fixture {
	f := &fixture{existing: make(map[string]bool)}
	f.pipeline = &pipeline.Pipeline{
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return html, nil
			},
		},
		Extractor: goquery.NewLinkExtractor(),
		Store: &mock.LocalStore{
			EnsureFn:        func() error { return nil },
			CleanPartialsFn: func() (int, error) { return 0, nil },
			ExistsFn:        func(name string) (bool, error) { return f.existing[name], nil },
			PathFn:          func(name string) string { return path.Join("downloads", name) },
		},
		Downloader: &mock.Downloader{
			DownloadFn: func(_ context.Context, url, dest string) (int64, error) {
				f.downloads = append(f.downloads, url)
				return 10, nil
			},
		},
		Uploader: &mock.Uploader{
			UploadFn: func(_ context.Context, localPath, dest string) error {
				f.uploads = append(f.uploads, localPath+" -> "+dest)
				return nil
			},
			CommandFn: func(localPath, dest string) []string {
				return []string{"gsutil", "cp", localPath, dest}
			},
		},
	}
	return f
}

// Story: One Sync Pass
// The pipeline fetches the index, selects export links, downloads what is
// missing and uploads every candidate.

func TestPipeline_Run_SelectsExportLinks(t *testing.T) {
	t.Parallel()

	// Given an index with one export link and one other link
	f := newFixture(`<a href="/files/export_2020.csv">..</a><a href="/files/readme.txt">..</a>`)

	// When I run the pipeline
	summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	// Then only the export file is downloaded and uploaded
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Uploaded)
	assert.Equal(t, []string{"http://data.example.org/files/export_2020.csv"}, f.downloads)
	assert.Equal(t, []string{"downloads/export_2020.csv -> gs://bucket/data/export_2020.csv"}, f.uploads)
}

func TestPipeline_Run_PreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(`<a href="c.export.zip">c</a><a href="a.export.zip">a</a><a href="b.export.zip">b</a>`)

	_, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://data.example.org/events/c.export.zip",
		"http://data.example.org/events/a.export.zip",
		"http://data.example.org/events/b.export.zip",
	}, f.downloads)
}

func TestPipeline_Run_SkipsExistingFiles(t *testing.T) {
	t.Parallel()

	// Given a file that is already downloaded
	f := newFixture(`<a href="x.export.zip">x</a><a href="y.export.zip">y</a>`)
	f.existing["x.export.zip"] = true

	// When I run the pipeline
	var events []exportsync.ProgressType
	summary, err := f.pipeline.Run(context.Background(), newConfig(), func(p exportsync.Progress) {
		events = append(events, p.Type)
	})

	// Then it is skipped but still uploaded
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 2, summary.Uploaded)
	assert.Equal(t, []string{"http://data.example.org/events/y.export.zip"}, f.downloads)
	assert.Equal(t, []exportsync.ProgressType{
		exportsync.ProgressSelected,
		exportsync.ProgressSkipped,
		exportsync.ProgressUploaded,
		exportsync.ProgressDownloaded,
		exportsync.ProgressUploaded,
	}, events)
}

func TestPipeline_Run_DropsDuplicateLinks(t *testing.T) {
	t.Parallel()

	f := newFixture(`<a href="a.export.zip">1</a><a href="a.export.zip#x">2</a>`)

	summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Len(t, f.uploads, 1)
}

func TestPipeline_Run_RejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	// Given an export link whose filename decodes to a traversal
	f := newFixture(`<a href="/export/..%2F..%2Fetc%2Fpasswd">bad</a><a href="ok.export.zip">ok</a>`)

	// When I run the pipeline
	var rejected []string
	summary, err := f.pipeline.Run(context.Background(), newConfig(), func(p exportsync.Progress) {
		if p.Type == exportsync.ProgressRejected {
			rejected = append(rejected, p.URL)
		}
	})

	// Then it is rejected and never reaches the downloader
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, []string{"http://data.example.org/export/..%2F..%2Fetc%2Fpasswd"}, rejected)
	assert.Equal(t, []string{"http://data.example.org/events/ok.export.zip"}, f.downloads)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, exportsync.ENAMING, exportsync.ErrorCode(summary.Failures[0]))
}

func TestPipeline_Run_RejectsNamesThatCollideWithPartials(t *testing.T) {
	t.Parallel()

	// Given an export link whose filename uses the in-flight suffix
	f := newFixture(`<a href="export_2020.part">p</a><a href="/export/%2E">dot</a>`)

	// When I run the pipeline
	summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	// Then both are rejected and nothing is downloaded or uploaded
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 0, summary.Candidates)
	assert.Empty(t, f.downloads)
	assert.Empty(t, f.uploads)
}

func TestPipeline_Run_ContinuesPastDownloadFailure(t *testing.T) {
	t.Parallel()

	// Given a downloader that fails for one file
	f := newFixture(`<a href="a.export.zip">a</a><a href="b.export.zip">b</a>`)
	f.pipeline.Downloader = &mock.Downloader{
		DownloadFn: func(_ context.Context, url, dest string) (int64, error) {
			if strings.HasSuffix(url, "a.export.zip") {
				return 0, &exportsync.FetchError{URL: url, StatusCode: http.StatusNotFound}
			}
			return 5, nil
		},
	}

	// When I run the pipeline
	summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	// Then the failed file is not uploaded and the run continues
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DownloadFailed)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, []string{"downloads/b.export.zip -> gs://bucket/data/b.export.zip"}, f.uploads)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].Error(), "a.export.zip")
}

func TestPipeline_Run_ContinuesPastUploadFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(`<a href="a.export.zip">a</a><a href="b.export.zip">b</a>`)
	var uploads int
	f.pipeline.Uploader = &mock.Uploader{
		UploadFn: func(_ context.Context, localPath, dest string) error {
			uploads++
			if strings.HasSuffix(localPath, "a.export.zip") {
				return &exportsync.UploadError{Path: localPath, Dest: dest, Output: "denied", Err: errors.New("exit status 1")}
			}
			return nil
		},
	}

	var failedDest string
	summary, err := f.pipeline.Run(context.Background(), newConfig(), func(p exportsync.Progress) {
		if p.Type == exportsync.ProgressUploadFailed {
			failedDest = p.Dest
		}
	})

	require.NoError(t, err)
	assert.Equal(t, 2, uploads)
	assert.Equal(t, 1, summary.UploadFailed)
	assert.Equal(t, 1, summary.Uploaded)
	assert.Equal(t, "gs://bucket/data/a.export.zip", failedDest)
	assert.Equal(t, exportsync.EUPLOAD, exportsync.ErrorCode(summary.Failures[0]))
}

func TestPipeline_Run_DryRunReportsCommands(t *testing.T) {
	t.Parallel()

	// Given three candidates and a dry-run config
	f := newFixture(`<a href="1.export.zip">1</a><a href="2.export.zip">2</a><a href="3.export.zip">3</a>`)
	f.pipeline.Uploader.(*mock.Uploader).UploadFn = func(context.Context, string, string) error {
		t.Error("upload must not run in dry-run mode")
		return nil
	}
	var out bytes.Buffer
	f.pipeline.Out = &out
	cfg := newConfig()
	cfg.Bucket = "gs://b"
	cfg.Prefix = ""
	cfg.DryRun = true

	// When I run the pipeline
	summary, err := f.pipeline.Run(context.Background(), cfg, nil)

	// Then three commands are reported and none executed
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Uploaded)
	assert.Equal(t,
		"RUN: gsutil cp downloads/1.export.zip gs://b/1.export.zip\n"+
			"RUN: gsutil cp downloads/2.export.zip gs://b/2.export.zip\n"+
			"RUN: gsutil cp downloads/3.export.zip gs://b/3.export.zip\n",
		out.String())
}

func TestPipeline_Run_FatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		f := newFixture("")
		cfg := newConfig()
		cfg.Bucket = ""

		_, err := f.pipeline.Run(context.Background(), cfg, nil)

		assert.Equal(t, exportsync.EINVALID, exportsync.ErrorCode(err))
	})

	t.Run("setup error aborts before fetching", func(t *testing.T) {
		t.Parallel()

		f := newFixture("")
		f.pipeline.Store.(*mock.LocalStore).EnsureFn = func() error {
			return exportsync.Errorf(exportsync.ESETUP, "cannot create downloads")
		}
		f.pipeline.Fetcher = &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				t.Error("index must not be fetched")
				return "", nil
			},
		}

		summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

		assert.Nil(t, summary)
		assert.Equal(t, exportsync.ESETUP, exportsync.ErrorCode(err))
	})

	t.Run("unreachable index", func(t *testing.T) {
		t.Parallel()

		f := newFixture("")
		f.pipeline.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "", &exportsync.FetchError{URL: url, StatusCode: http.StatusBadGateway}
			},
		}

		_, err := f.pipeline.Run(context.Background(), newConfig(), nil)

		assert.Equal(t, exportsync.EFETCH, exportsync.ErrorCode(err))
		assert.Contains(t, err.Error(), indexURL)
	})
}

func TestPipeline_Run_RetriesIndexFetch(t *testing.T) {
	t.Parallel()

	f := newFixture("")
	var attempts int
	f.pipeline.Fetcher = &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			attempts++
			if attempts < 3 {
				return "", &exportsync.FetchError{URL: url, StatusCode: http.StatusServiceUnavailable}
			}
			return `<a href="a.export.zip">a</a>`, nil
		},
	}
	f.pipeline.RetryDelays = []time.Duration{time.Millisecond, time.Millisecond}

	summary, err := f.pipeline.Run(context.Background(), newConfig(), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, summary.Downloaded)
}

func TestPipeline_Run_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(`<a href="a.export.zip">a</a><a href="b.export.zip">b</a>`)
	f.pipeline.Uploader.(*mock.Uploader).UploadFn = func(context.Context, string, string) error {
		cancel()
		return nil
	}

	summary, err := f.pipeline.Run(ctx, newConfig(), nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Uploaded)
	assert.Len(t, f.downloads, 1)
}

// Story: Real Components
// The pipeline runs against an HTTP server and an in-memory directory.

func TestPipeline_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	var fileRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/events/index.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="x.export.CSV.zip">x</a>
			<a href="y.export.CSV.zip">y</a>
			<a href="broken.export.CSV.zip">broken</a>
			<a href="/files/readme.txt">readme</a>
		</body></html>`))
	})
	mux.HandleFunc("/events/y.export.CSV.zip", func(w http.ResponseWriter, r *http.Request) {
		fileRequests.Add(1)
		_, _ = w.Write([]byte("new-y"))
	})
	mux.HandleFunc("/events/x.export.CSV.zip", func(w http.ResponseWriter, r *http.Request) {
		fileRequests.Add(1)
		_, _ = w.Write([]byte("new-x"))
	})
	mux.HandleFunc("/events/broken.export.CSV.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// Given x is already present locally
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("downloads", 0755))
	require.NoError(t, afero.WriteFile(mem, "downloads/x.export.CSV.zip", []byte("old-x"), 0644))

	var out bytes.Buffer
	p := &pipeline.Pipeline{
		Fetcher:    exphttp.NewFetcher(),
		Extractor:  goquery.NewLinkExtractor(),
		Store:      fs.NewStore(mem, "downloads"),
		Downloader: exphttp.NewDownloader(mem),
		Uploader: &mock.Uploader{
			CommandFn: func(localPath, dest string) []string {
				return []string{"gsutil", "cp", localPath, dest}
			},
		},
		Out: &out,
	}
	cfg := newConfig()
	cfg.IndexURL = server.URL + "/events/index.html"
	cfg.DryRun = true

	// When I run the pipeline
	summary, err := p.Run(context.Background(), cfg, nil)

	// Then x is skipped with its bytes intact, y is downloaded, broken fails cleanly
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.DownloadFailed)
	assert.Equal(t, 2, summary.Uploaded)
	assert.Equal(t, int32(1), fileRequests.Load())

	data, err := afero.ReadFile(mem, "downloads/x.export.CSV.zip")
	require.NoError(t, err)
	assert.Equal(t, "old-x", string(data))
	data, err = afero.ReadFile(mem, "downloads/y.export.CSV.zip")
	require.NoError(t, err)
	assert.Equal(t, "new-y", string(data))

	exists, _ := afero.Exists(mem, "downloads/broken.export.CSV.zip")
	assert.False(t, exists)
	exists, _ = afero.Exists(mem, "downloads/broken.export.CSV.zip.part")
	assert.False(t, exists)

	assert.Equal(t, 2, strings.Count(out.String(), "RUN: gsutil cp "))
}
