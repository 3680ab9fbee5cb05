package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fwojciec/exportsync"
	"github.com/fwojciec/exportsync/exec"
	"github.com/fwojciec/exportsync/fs"
	"github.com/fwojciec/exportsync/goquery"
	exphttp "github.com/fwojciec/exportsync/http"
	"github.com/fwojciec/exportsync/pipeline"
	"github.com/fwojciec/exportsync/s3"
	expslog "github.com/fwojciec/exportsync/slog"
	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/afero"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config files read for flag values, lowest precedence first. Missing
	// files are ignored. Set before calling Run().
	ConfigPaths []string

	// Filesystem for downloads. Defaults to the OS filesystem.
	FS afero.Fs
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{defaultConfigPath},
		FS:          afero.NewOsFs(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("exportsync"),
		kong.Description("Mirror export files linked from an index page to a storage bucket"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		vars(),
		kong.Configuration(YAML, m.ConfigPaths...),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	cfg := cli.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Config: cfg,
	}
	if deps.Pipeline, err = m.wire(ctx, cli, stdout, stderr); err != nil {
		return err
	}

	cmd := &SyncCmd{}
	return cmd.Run(deps)
}

// wire builds the pipeline for the parsed flags.
func (m *Main) wire(ctx context.Context, cli *CLI, stdout, stderr io.Writer) (*pipeline.Pipeline, error) {
	fsys := m.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	// Fetcher and downloader share one per-host budget.
	var limiter *exphttp.HostLimiter
	if cli.RateLimit > 0 {
		limiter = exphttp.NewHostLimiter(cli.RateLimit)
	}

	var fetcher exportsync.Fetcher = exphttp.NewFetcher(
		exphttp.WithTimeout(cli.FetchTimeout),
		exphttp.WithHostLimiter(limiter),
	)
	var downloader exportsync.Downloader = exphttp.NewDownloader(fsys,
		exphttp.WithTimeout(cli.DownloadTimeout),
		exphttp.WithHostLimiter(limiter),
	)

	uploader, err := m.uploader(ctx, cli, fsys)
	if err != nil {
		return nil, err
	}

	if cli.Debug {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		fetcher = expslog.NewLoggingFetcher(fetcher, logger)
		downloader = expslog.NewLoggingDownloader(downloader, logger)
		uploader = expslog.NewLoggingUploader(uploader, logger)
	}

	return &pipeline.Pipeline{
		Fetcher:     fetcher,
		Extractor:   goquery.NewLinkExtractor(),
		Store:       fs.NewStore(fsys, cli.DownloadsDir),
		Downloader:  downloader,
		Uploader:    uploader,
		Out:         stdout,
		RetryDelays: pipeline.RetryDelays(cli.Retries),
	}, nil
}

// uploader picks the upload backend from the bucket URL scheme.
func (m *Main) uploader(ctx context.Context, cli *CLI, fsys afero.Fs) (exportsync.Uploader, error) {
	if s3.IsURL(cli.Bucket) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, exportsync.Errorf(exportsync.ESETUP, "load AWS config: %v", err)
		}
		return s3.NewUploader(awss3.NewFromConfig(awsCfg), fsys), nil
	}

	command, err := shellquote.Split(cli.UploadCommand)
	if err != nil {
		return nil, exportsync.Errorf(exportsync.EINVALID, "invalid upload command %q: %v", cli.UploadCommand, err)
	}
	if len(command) == 0 {
		return nil, exportsync.Errorf(exportsync.EINVALID, "upload command required")
	}
	return exec.NewUploader(command...), nil
}
