package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"github.com/user/internship-ingest/pkg/metrics"
	"go.uber.org/zap"
)

// Ingestor executes crawl runs end to end: crawl, persist, record.
type Ingestor interface {
	// Run crawls req and stores new listings. The returned run is non-nil even when err is set.
	Run(ctx context.Context, req entity.RunRequest) (*entity.CrawlRun, error)
	// ProcessRunFromQueue pops one queued request and runs it. An empty queue is not an error.
	ProcessRunFromQueue(ctx context.Context) error
}

type ingestUseCase struct {
	crawler     Crawler
	listingRepo repository.ListingRepository
	runRepo     repository.RunRepository
	queueRepo   repository.RunQueueRepository
	recentRepo  repository.RecentRunRepository
	maxRetries  int
	logger      *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewIngestUseCase creates an Ingestor. queueRepo and recentRepo may be nil when
// ProcessRunFromQueue is never called, as in the one-shot CLI.
func NewIngestUseCase(
	crawler Crawler,
	listingRepo repository.ListingRepository,
	runRepo repository.RunRepository,
	queueRepo repository.RunQueueRepository,
	recentRepo repository.RecentRunRepository,
	maxRetries int,
	logger *zap.Logger,
	m *metrics.Metrics,
) Ingestor {
	return &ingestUseCase{
		crawler:     crawler,
		listingRepo: listingRepo,
		runRepo:     runRepo,
		queueRepo:   queueRepo,
		recentRepo:  recentRepo,
		maxRetries:  maxRetries,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

func (uc *ingestUseCase) Run(ctx context.Context, req entity.RunRequest) (*entity.CrawlRun, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	run := &entity.CrawlRun{
		ID:        req.ID,
		Query:     req.Query,
		Location:  req.Location,
		Status:    entity.RunRunning,
		StartedAt: uc.now(),
	}
	log := uc.logger.With(zap.String("run_id", run.ID))
	log.Info("Starting crawl run", zap.String("query", run.Query), zap.String("location", run.Location))
	uc.saveRun(ctx, log, run)

	result, err := uc.crawler.Crawl(ctx, req.Query, req.Location)
	if err != nil {
		return uc.finish(ctx, log, run, fmt.Errorf("crawl: %w", err))
	}
	run.Outcomes = result.Outcomes
	run.Candidates = len(result.Listings)

	inserted, err := uc.listingRepo.UpsertBatch(ctx, result.Listings)
	if err != nil {
		return uc.finish(ctx, log, run, fmt.Errorf("persist listings: %w", err))
	}
	run.Inserted = inserted
	uc.metrics.ListingsInserted.Add(float64(inserted))

	return uc.finish(ctx, log, run, nil)
}

func (uc *ingestUseCase) finish(ctx context.Context, log *zap.Logger, run *entity.CrawlRun, runErr error) (*entity.CrawlRun, error) {
	finishedAt := uc.now()
	run.FinishedAt = &finishedAt
	run.Status = entity.RunCompleted
	if runErr != nil {
		run.Status = entity.RunFailed
		run.Error = runErr.Error()
	}

	uc.metrics.RunsTotal.WithLabelValues(string(run.Status)).Inc()
	uc.metrics.RunDuration.Observe(finishedAt.Sub(run.StartedAt).Seconds())

	// The record is written even if the run was cancelled.
	uc.saveRun(context.WithoutCancel(ctx), log, run)

	if runErr != nil {
		log.Error("Crawl run failed", zap.Error(runErr))
		return run, runErr
	}
	log.Info("Crawl run completed",
		zap.Int("found", run.Found()),
		zap.Int("failed_sources", run.FailedSources()),
		zap.Int("candidates", run.Candidates),
		zap.Int("inserted", run.Inserted),
		zap.Duration("elapsed", finishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// saveRun records progress. Failing to write the record never fails the run.
func (uc *ingestUseCase) saveRun(ctx context.Context, log *zap.Logger, run *entity.CrawlRun) {
	if err := uc.runRepo.Save(ctx, run); err != nil {
		log.Warn("Failed to save crawl run record", zap.String("status", string(run.Status)), zap.Error(err))
	}
}

func (uc *ingestUseCase) ProcessRunFromQueue(ctx context.Context) error {
	req, err := uc.queueRepo.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			return nil
		}
		return fmt.Errorf("failed to pop run from queue: %w", err)
	}
	uc.updateQueueGauge(ctx)

	if _, err := uc.Run(ctx, *req); err != nil {
		return uc.handleRunFailure(ctx, req, err)
	}
	return nil
}

// handleRunFailure re-queues runs that failed before anything useful happened.
func (uc *ingestUseCase) handleRunFailure(ctx context.Context, req *entity.RunRequest, runErr error) error {
	if !isRetryable(runErr) {
		return nil
	}
	log := uc.logger.With(zap.String("run_id", req.ID))

	attempt, err := uc.recentRepo.IncrementRetry(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("failed to count retry for run %s: %w", req.ID, err)
	}
	if attempt > int64(uc.maxRetries) {
		log.Error("Giving up on crawl run", zap.Int64("attempts", attempt), zap.Error(runErr))
		return nil
	}

	if err := uc.queueRepo.Push(ctx, *req); err != nil {
		return fmt.Errorf("failed to re-queue run %s: %w", req.ID, err)
	}
	uc.updateQueueGauge(ctx)
	log.Warn("Re-queued crawl run", zap.Int64("retry", attempt), zap.Int("max_retries", uc.maxRetries))
	return nil
}

func (uc *ingestUseCase) updateQueueGauge(ctx context.Context) {
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		uc.metrics.RunsInQueue.Set(float64(size))
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, entity.ErrSessionInit) || errors.Is(err, entity.ErrStoreUnavailable)
}
