package main

import (
	"fmt"
	"os"

	dbactions "github.com/dtnitsch/contact-scout/internal/db"
	"github.com/dtnitsch/contact-scout/internal/run"
	"github.com/dtnitsch/contact-scout/models"
	dbpkg "github.com/dtnitsch/contact-scout/pkg/db"
	"github.com/dtnitsch/contact-scout/pkg/help"
	"github.com/urfave/cli/v2"
)

var runFlags = []cli.Flag{
	&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search query (or pass it as the first argument)"},
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
	&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "file holding API_KEY and CSE_ID (optional)"},
	&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: models.DefaultOutputPath, Usage: "CSV output path (truncated each run)"},
	&cli.IntFlag{Name: "max-domains", Value: models.DefaultMaxDomains, Usage: "unique domains to crawl"},
	&cli.IntFlag{Name: "results-per-page", Value: models.DefaultResultsPerPage, Usage: "search results per page (1-10)"},
	&cli.IntFlag{Name: "pages", Value: models.DefaultSearchPages, Usage: "search result pages to request"},
	&cli.StringSliceFlag{Name: "exclude", Value: cli.NewStringSlice(models.DefaultExcludes...), Usage: "skip domains containing this substring (repeatable)"},
	&cli.IntFlag{Name: "workers", Value: models.DefaultWorkers, Usage: "domains crawled concurrently"},
	&cli.IntFlag{Name: "page-concurrency", Value: models.DefaultPageConcurrency, Usage: "page fetches in flight across all domains"},
	&cli.DurationFlag{Name: "timeout", Value: models.DefaultRequestTimeout, Usage: "per-request timeout"},
	&cli.DurationFlag{Name: "run-timeout", Usage: "abort outstanding fetches after this long (0 = no limit)"},
	&cli.Float64Flag{Name: "rate-limit", Usage: "max page requests per second (0 = unlimited)"},
	&cli.StringFlag{Name: "user-agent", Usage: "override the browser User-Agent"},
	&cli.StringFlag{Name: "db", Usage: "record the run in this SQLite audit database"},
	&cli.StringFlag{Name: "format", Value: "yaml", Usage: "run summary format: yaml, json, or none"},
	&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
	&cli.BoolFlag{Name: "verbose", Usage: "log every page fetch"},
	&cli.BoolFlag{Name: "no-color", Usage: "disable coloured status output"},
}

func main() {
	dbFlag := &cli.StringFlag{Name: "db", Value: dbpkg.DefaultDBName, Usage: "SQLite audit database"}

	app := &cli.App{
		Name:      "contact-scout",
		Usage:     "find business contact emails for a search topic",
		UsageText: `contact-scout [run] [options] "<query>"`,
		Flags:     runFlags,
		Action:    run.RunAction,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "search, crawl the top domains and write a CSV of contacts",
				ArgsUsage: `"<query>"`,
				Flags:     runFlags,
				Action:    run.RunAction,
			},
			{
				Name:   "history",
				Usage:  "inspect runs recorded with --db",
				Flags:  []cli.Flag{dbFlag, &cli.IntFlag{Name: "limit", Value: 20, Usage: "runs to list"}},
				Action: dbactions.RunsAction,
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "show a run and its contacts (latest when omitted)",
						ArgsUsage: "[run-id]",
						Flags:     []cli.Flag{dbFlag, &cli.StringFlag{Name: "format", Value: "text", Usage: "text or csv"}},
						Action:    dbactions.ShowAction,
					},
					{
						Name:      "pages",
						Usage:     "list every page fetch of a run (latest when omitted)",
						ArgsUsage: "[run-id]",
						Flags:     []cli.Flag{dbFlag, &cli.BoolFlag{Name: "failed", Usage: "only failed fetches"}},
						Action:    dbactions.PagesAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "print a YAML cheat sheet of commands, config keys and output format",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
