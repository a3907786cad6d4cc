package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/normalize"
	"github.com/user/internship-ingest/internal/repository"
	"github.com/user/internship-ingest/internal/source"
	"github.com/user/internship-ingest/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CrawlResult holds the candidates of one crawl, in adapter order then page order.
type CrawlResult struct {
	Listings []entity.CanonicalListing
	Outcomes []entity.SourceOutcome
}

// Crawler runs every configured source adapter for one query.
type Crawler interface {
	Crawl(ctx context.Context, query, location string) (*CrawlResult, error)
}

// CrawlConfig tunes the crawl.
type CrawlConfig struct {
	ReadyTimeout time.Duration
	Parallel     bool // one session per adapter instead of one shared session
}

type crawlUseCase struct {
	sessions repository.SessionFactory
	adapters []source.Adapter
	cfg      CrawlConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCrawlUseCase creates a Crawler over adapters, which are run in the given order.
func NewCrawlUseCase(
	sessions repository.SessionFactory,
	adapters []source.Adapter,
	cfg CrawlConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) Crawler {
	return &crawlUseCase{
		sessions: sessions,
		adapters: adapters,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

type sourceResult struct {
	listings []entity.CanonicalListing
	outcome  entity.SourceOutcome
}

// Crawl fails only when no session can be opened or ctx is cancelled.
// A failing adapter is recorded in its outcome and the remaining adapters still run.
func (uc *crawlUseCase) Crawl(ctx context.Context, query, location string) (*CrawlResult, error) {
	var (
		results []sourceResult
		err     error
	)
	if uc.cfg.Parallel {
		results, err = uc.crawlParallel(ctx, query, location)
	} else {
		results, err = uc.crawlSequential(ctx, query, location)
	}
	if err != nil {
		return nil, err
	}

	res := &CrawlResult{Outcomes: make([]entity.SourceOutcome, 0, len(results))}
	for _, r := range results {
		res.Listings = append(res.Listings, r.listings...)
		res.Outcomes = append(res.Outcomes, r.outcome)
	}
	return res, nil
}

func (uc *crawlUseCase) crawlSequential(ctx context.Context, query, location string) ([]sourceResult, error) {
	session, err := uc.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer uc.closeSession(session)

	results := make([]sourceResult, len(uc.adapters))
	for i, a := range uc.adapters {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crawl cancelled before %s: %w", a.Source(), err)
		}
		results[i] = uc.crawlSource(ctx, session, a, query, location)
	}
	// A cancellation during the last adapter is only visible as that source's failure.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl cancelled: %w", err)
	}
	return results, nil
}

func (uc *crawlUseCase) crawlParallel(ctx context.Context, query, location string) ([]sourceResult, error) {
	results := make([]sourceResult, len(uc.adapters))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range uc.adapters {
		g.Go(func() error {
			session, err := uc.openSession(gctx)
			if err != nil {
				return err
			}
			defer uc.closeSession(session)
			results[i] = uc.crawlSource(gctx, session, a, query, location)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl cancelled: %w", err)
	}
	return results, nil
}

func (uc *crawlUseCase) openSession(ctx context.Context) (repository.RenderingSession, error) {
	session, err := uc.sessions.Open(ctx)
	if err != nil {
		if !errors.Is(err, entity.ErrSessionInit) {
			err = fmt.Errorf("%w: %w", entity.ErrSessionInit, err)
		}
		uc.logger.Error("Failed to open browser session", zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (uc *crawlUseCase) closeSession(session repository.RenderingSession) {
	if err := session.Close(); err != nil {
		uc.logger.Warn("Failed to close browser session", zap.Error(err))
	}
}

// crawlSource runs one adapter. Nothing that goes wrong inside it escapes to the caller.
func (uc *crawlUseCase) crawlSource(ctx context.Context, session repository.RenderingSession, a source.Adapter, query, location string) (res sourceResult) {
	src := a.Source()
	log := uc.logger.With(zap.String("source", string(src)))

	defer func() {
		if r := recover(); r != nil {
			res = uc.failed(log, src, fmt.Errorf("adapter panicked: %v", r))
		}
	}()

	start := time.Now()
	ex, err := uc.scrape(ctx, log, session, a, query, location)
	if err != nil {
		return uc.failed(log, src, err)
	}

	listings, rejected := normalize.All(ex.Listings)
	res = sourceResult{
		listings: listings,
		outcome: entity.SourceOutcome{
			Source:       src,
			Found:        len(ex.Listings),
			SkippedCards: ex.Skipped,
			Rejected:     rejected,
		},
	}

	uc.metrics.SourceListings.WithLabelValues(string(src)).Add(float64(len(ex.Listings)))
	uc.metrics.CardsSkipped.WithLabelValues(string(src)).Add(float64(ex.Skipped))
	uc.metrics.ListingsRejected.WithLabelValues(string(src)).Add(float64(rejected))

	log.Info("Source crawled",
		zap.Int("cards", ex.Cards),
		zap.Int("found", len(ex.Listings)),
		zap.Int("skipped_cards", ex.Skipped),
		zap.Int("rejected", rejected),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

func (uc *crawlUseCase) scrape(ctx context.Context, log *zap.Logger, session repository.RenderingSession, a source.Adapter, query, location string) (source.Extraction, error) {
	plan := a.Plan()
	searchURL := a.BuildSearchURL(query, location)
	log.Info("Crawling source", zap.String("url", searchURL))

	if err := session.Navigate(ctx, searchURL, plan.Settle); err != nil {
		return source.Extraction{}, err
	}

	// Interstitials are optional; failing to dismiss one is not an error.
	if plan.DismissSelector != "" {
		clicked, err := session.ClickIfPresent(ctx, plan.DismissSelector)
		switch {
		case err != nil:
			log.Debug("Dismiss click failed", zap.Error(err))
		case clicked:
			if err := sleep(ctx, plan.DismissWait); err != nil {
				return source.Extraction{}, err
			}
		}
	}

	if plan.ReadySelector != "" && uc.cfg.ReadyTimeout > 0 {
		if err := session.WaitReady(ctx, plan.ReadySelector, uc.cfg.ReadyTimeout); err != nil {
			log.Warn("Listing cards not ready, reading page anyway",
				zap.String("selector", plan.ReadySelector), zap.Error(err))
		}
	}

	if plan.Scrolls > 0 {
		if err := session.ScrollToBottom(ctx, plan.Scrolls, plan.ScrollDelay); err != nil {
			return source.Extraction{}, fmt.Errorf("scroll: %w", err)
		}
	}

	html, err := session.CurrentHTML(ctx)
	if err != nil {
		return source.Extraction{}, fmt.Errorf("snapshot: %w", err)
	}
	return a.Extract(html, query, location)
}

func (uc *crawlUseCase) failed(log *zap.Logger, src entity.Source, err error) sourceResult {
	uc.metrics.SourceFailures.WithLabelValues(string(src)).Inc()
	log.Error("Source failed", zap.Error(err))
	return sourceResult{outcome: entity.SourceOutcome{Source: src, Failed: 1, Error: err.Error()}}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
