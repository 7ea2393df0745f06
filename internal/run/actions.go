package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtnitsch/contact-scout/models"
	"github.com/dtnitsch/contact-scout/pkg/crawler"
	"github.com/dtnitsch/contact-scout/pkg/db"
	"github.com/dtnitsch/contact-scout/pkg/extractor"
	"github.com/dtnitsch/contact-scout/pkg/fetcher"
	"github.com/dtnitsch/contact-scout/pkg/pipeline"
	"github.com/dtnitsch/contact-scout/pkg/search"
	"github.com/dtnitsch/contact-scout/pkg/storage"
	"github.com/dtnitsch/contact-scout/pkg/store"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/semaphore"
)

// Exit codes returned by the run command.
const (
	ExitOK          = 0
	ExitConfig      = 2
	ExitSearch      = 3
	ExitOutputWrite = 4
)

// Deps are the network collaborators of a run. Tests replace them with fakes.
type Deps struct {
	Searcher search.Searcher
	Fetcher  crawler.PageFetcher
	Database *db.DB
	Sink     pipeline.Sink
}

// RunAction exits with the code of the run. Cleanup registered by runCommand happens
// before the process exits.
func RunAction(c *cli.Context) error {
	if code := runCommand(c, os.Stdout); code != ExitOK {
		os.Exit(code)
	}
	return nil
}

// newDeps builds the production collaborators of a run.
var newDeps = func(cfg *models.Config, creds models.Credentials, database *db.DB, logger *slog.Logger) Deps {
	return Deps{
		Searcher: search.NewGoogleClient(creds, cfg.RequestTimeout, logger),
		Fetcher: fetcher.NewFetcher(fetcher.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
			RateLimit: cfg.RateLimit,
			Enrich:    database != nil,
			Logger:    logger,
		}),
		Database: database,
		Sink:     storage.NewCSVSink(cfg.OutputPath),
	}
}

func runCommand(c *cli.Context, stdout io.Writer) int {
	logger := newLogger(c.Bool("quiet"), c.Bool("verbose"))
	if c.Bool("no-color") {
		color.NoColor = true
	}
	startTime := time.Now()

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return ExitConfig
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return ExitConfig
	}

	// Credentials are checked before anything touches the network.
	creds, err := models.LoadCredentials(c.String("env-file"))
	if err != nil {
		logger.Error("missing credentials", "error", err)
		return ExitConfig
	}

	var database *db.DB
	if cfg.DBPath != "" {
		database, err = db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
			return ExitConfig
		}
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.New().String()
	out, runErr := Execute(ctx, logger, cfg, runID, newDeps(cfg, creds, database, logger), startTime)

	if err := WriteOutput(stdout, out, c.String("format")); err != nil {
		logger.Error("failed to write summary", "error", err)
	}
	printStatus(out)

	return ExitCode(runErr)
}

// Execute runs the pipeline once and records it in the audit database when one is
// configured. The returned error is the pipeline's, unchanged.
func Execute(ctx context.Context, logger *slog.Logger, cfg *models.Config, runID string, deps Deps, startTime time.Time) (*FinalOutput, error) {
	if deps.Database != nil {
		if err := deps.Database.CreateRun(runID, cfg.Query, cfg.OutputPath, startTime); err != nil {
			logger.Warn("Failed to record run start", "run_id", runID, "error", err)
			deps.Database = nil
		}
	}

	auditRunID := ""
	if deps.Database != nil {
		auditRunID = runID
	}

	c := crawler.New(crawler.Options{
		Fetcher: deps.Fetcher,
		Store:   store.New(),
		Extractor: extractor.New(extractor.Options{
			PlaceholderEmails:  cfg.PlaceholderEmails,
			PlaceholderDomains: cfg.PlaceholderDomains,
			ConsumerDomains:    cfg.ConsumerDomains,
		}),
		ContactPaths: cfg.ContactPaths,
		Pages:        semaphore.NewWeighted(int64(cfg.PageWorkers)),
		Database:     deps.Database,
		RunID:        auditRunID,
		Logger:       logger,
	})

	p := pipeline.New(pipeline.Options{
		Searcher:       deps.Searcher,
		Crawler:        c,
		Sink:           deps.Sink,
		MaxDomains:     cfg.MaxDomains,
		Excludes:       cfg.Excludes,
		ResultsPerPage: cfg.ResultsPerPage,
		SearchPages:    cfg.SearchPages,
		Workers:        cfg.Workers,
		Logger:         logger,
	})

	logger.Info("Run started", "run_id", runID, "query", cfg.Query, "output", cfg.OutputPath)
	result, runErr := p.Run(ctx, cfg.Query)

	status := statusFor(ctx, runErr)
	out := BuildOutput(runID, cfg, status, result, runErr, time.Since(startTime))
	if deps.Database == nil {
		out.RunID = ""
	}

	if deps.Database != nil {
		if result != nil && len(result.Records) > 0 {
			if err := deps.Database.InsertContacts(runID, result.Records); err != nil {
				logger.Warn("Failed to record contacts", "run_id", runID, "error", err)
			}
		}
		errMsg := ""
		if runErr != nil {
			errMsg = runErr.Error()
		}
		if err := deps.Database.FinishRun(runID, status, errMsg, out.Stats.RunStats, time.Now()); err != nil {
			logger.Warn("Failed to record run finish", "run_id", runID, "error", err)
		}
	}

	if runErr != nil {
		logger.Error("Run failed", "run_id", runID, "error", runErr)
	} else {
		logger.Info("Run finished", "run_id", runID, "status", status,
			"records", out.Stats.Records, "total_time_seconds", out.Stats.TotalTimeSeconds)
	}
	return out, runErr
}

// ExitCode maps a pipeline error to the process exit code.
func ExitCode(err error) int {
	var searchErr *pipeline.SearchProviderError
	var sinkErr *pipeline.SinkError
	var cfgErr *models.ConfigError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &searchErr):
		return ExitSearch
	case errors.As(err, &sinkErr):
		return ExitOutputWrite
	default:
		return 1
	}
}

func statusFor(ctx context.Context, err error) string {
	switch {
	case err != nil:
		return models.RunStatusFailed
	case ctx.Err() != nil:
		return models.RunStatusCanceled
	default:
		return models.RunStatusCompleted
	}
}

func newLogger(quiet, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// applyFlags overrides config file values with explicitly set flags.
func applyFlags(c *cli.Context, cfg *models.Config) {
	if c.IsSet("query") {
		cfg.Query = c.String("query")
	} else if c.NArg() > 0 {
		cfg.Query = c.Args().First()
	}
	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("max-domains") {
		cfg.MaxDomains = c.Int("max-domains")
	}
	if c.IsSet("results-per-page") {
		cfg.ResultsPerPage = c.Int("results-per-page")
	}
	if c.IsSet("pages") {
		cfg.SearchPages = c.Int("pages")
	}
	if c.IsSet("exclude") {
		cfg.Excludes = c.StringSlice("exclude")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("page-concurrency") {
		cfg.PageWorkers = c.Int("page-concurrency")
	}
	if c.IsSet("timeout") {
		cfg.RequestTimeout = c.Duration("timeout")
	}
	if c.IsSet("run-timeout") {
		cfg.RunTimeout = c.Duration("run-timeout")
	}
	if c.IsSet("rate-limit") {
		cfg.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
}

// printStatus writes a one-line coloured result to stderr.
func printStatus(out *FinalOutput) {
	var paint *color.Color
	switch out.Status {
	case models.RunStatusCompleted:
		paint = color.New(color.FgGreen, color.Bold)
	case models.RunStatusCanceled:
		paint = color.New(color.FgYellow, color.Bold)
	default:
		paint = color.New(color.FgRed, color.Bold)
	}

	paint.Fprintf(os.Stderr, "%s", out.Status)
	fmt.Fprintf(os.Stderr, ": %d records (%d unique emails) from %d domains -> %s in %.1fs\n",
		out.Stats.Records, out.Stats.UniqueEmails, out.Stats.Domains, out.Output, out.Stats.TotalTimeSeconds)
	if out.Error != "" {
		color.New(color.FgRed).Fprintf(os.Stderr, "  %s\n", out.Error)
	}
}
