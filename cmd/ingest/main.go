// Command ingest runs one crawl of the configured sources and prints a summary.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/user/internship-ingest/internal/adapter/chromedp_session"
	"github.com/user/internship-ingest/internal/adapter/memory"
	"github.com/user/internship-ingest/internal/adapter/postgres"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"github.com/user/internship-ingest/internal/source"
	"github.com/user/internship-ingest/internal/usecase"
	"github.com/user/internship-ingest/pkg/config"
	"github.com/user/internship-ingest/pkg/logger"
	"github.com/user/internship-ingest/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		return 2
	}

	flags := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	query := flags.StringP("query", "q", cfg.SearchQuery, "search query sent to every source")
	location := flags.StringP("location", "l", cfg.SearchLocation, "search location")
	sources := flags.StringSlice("sources", cfg.SourceNames(), "sources to crawl, in order")
	dryRun := flags.Bool("dry-run", false, "keep listings in memory instead of writing to PostgreSQL")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		return 2
	}
	defer log.Sync()

	adapters, err := source.Select(*sources)
	if err != nil {
		log.Error("Invalid sources", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		listingRepo repository.ListingRepository
		runRepo     repository.RunRepository
	)
	if *dryRun {
		listingRepo = memory.NewListingRepo()
		runRepo = memory.NewRunRepo()
	} else {
		dbpool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.PostgresMaxConns)
		if err != nil {
			log.Error("Unable to connect to database", zap.Error(err))
			return 1
		}
		defer dbpool.Close()
		if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
			log.Error("Unable to create schema", zap.Error(err))
			return 1
		}
		listingRepo = postgres.NewListingRepo(dbpool)
		runRepo = postgres.NewRunRepo(dbpool)
	}

	m := metrics.New(prometheus.NewRegistry())
	sessions := chromedp_session.NewFactory(chromedp_session.Config{
		Headless:             cfg.BrowserHeadless,
		UserAgent:            cfg.BrowserUserAgent,
		ExecPath:             cfg.BrowserExecPath,
		ProxyServer:          cfg.BrowserProxy,
		AcceptLanguage:       cfg.BrowserAcceptLanguage,
		StartupTimeout:       cfg.StartupTimeout(),
		NavigationTimeout:    cfg.NavigationDeadline(),
		NavigationsPerMinute: cfg.NavigationsPerMinute,
	}, log)
	crawler := usecase.NewCrawlUseCase(sessions, adapters, usecase.CrawlConfig{
		ReadyTimeout: cfg.ReadyDeadline(),
		Parallel:     cfg.ParallelSources,
	}, log, m)
	ingestor := usecase.NewIngestUseCase(crawler, listingRepo, runRepo, nil, nil, cfg.MaxRetries, log, m)

	result, runErr := ingestor.Run(ctx, entity.RunRequest{Query: *query, Location: *location})
	printSummary(out, result, *dryRun)
	if runErr != nil {
		return 1
	}
	return 0
}

func printSummary(out io.Writer, run *entity.CrawlRun, dryRun bool) {
	if run == nil {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tFOUND\tFAILED\tSKIPPED\tREJECTED\tERROR")
	for _, o := range run.Outcomes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", o.Source, o.Found, o.Failed, o.SkippedCards, o.Rejected, o.Error)
	}
	tw.Flush()

	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "run %s %s%s: found %d, failed sources %d, inserted %d\n",
		run.ID, run.Status, mode, run.Found(), run.FailedSources(), run.Inserted)
	if run.Error != "" {
		fmt.Fprintf(out, "error: %s\n", strings.TrimSpace(run.Error))
	}
}
