package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrRunRecentlyRequested = errors.New("a run for this query and location was requested recently and force is false")
	ErrEmptyQuery           = errors.New("query must not be empty")
)

// RunManager accepts run requests and reports their status.
type RunManager interface {
	Submit(ctx context.Context, query, location string, force bool) (string, error)
	GetStatus(ctx context.Context, id string) (*entity.CrawlRun, error)
}

type runManagerUseCase struct {
	recentRepo  repository.RecentRunRepository
	queueRepo   repository.RunQueueRepository
	runRepo     repository.RunRepository
	dedupWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewRunManager creates a RunManager. A (query, location) pair is accepted once per dedupWindow unless forced.
func NewRunManager(
	recentRepo repository.RecentRunRepository,
	queueRepo repository.RunQueueRepository,
	runRepo repository.RunRepository,
	dedupWindow time.Duration,
	logger *zap.Logger,
) RunManager {
	return &runManagerUseCase{
		recentRepo:  recentRepo,
		queueRepo:   queueRepo,
		runRepo:     runRepo,
		dedupWindow: dedupWindow,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *runManagerUseCase) Submit(ctx context.Context, query, location string, force bool) (string, error) {
	query = strings.TrimSpace(query)
	location = strings.TrimSpace(location)
	if query == "" {
		return "", ErrEmptyQuery
	}
	key := runKey(query, location)

	if uc.dedupWindow > 0 {
		if force {
			if err := uc.recentRepo.MarkSubmitted(ctx, key, uc.dedupWindow); err != nil {
				uc.logger.Warn("Failed to mark forced run as submitted", zap.String("query", query), zap.Error(err))
			}
		} else {
			// The marker is claimed before queueing so concurrent submissions of one pair admit a single run.
			admitted, err := uc.recentRepo.MarkIfAbsent(ctx, key, uc.dedupWindow)
			if err != nil {
				return "", fmt.Errorf("failed to check recent runs: %w", err)
			}
			if !admitted {
				return "", ErrRunRecentlyRequested
			}
		}
	}

	req := entity.RunRequest{
		ID:          uuid.NewString(),
		Query:       query,
		Location:    location,
		Force:       force,
		SubmittedAt: uc.now(),
	}

	pending := &entity.CrawlRun{
		ID:        req.ID,
		Query:     req.Query,
		Location:  req.Location,
		Status:    entity.RunPending,
		StartedAt: req.SubmittedAt,
	}
	if err := uc.runRepo.Save(ctx, pending); err != nil {
		uc.releaseMarker(ctx, key)
		return "", fmt.Errorf("failed to record pending run: %w", err)
	}

	if err := uc.queueRepo.Push(ctx, req); err != nil {
		uc.releaseMarker(ctx, key)
		return "", fmt.Errorf("failed to queue run: %w", err)
	}

	uc.logger.Info("Crawl run queued", zap.String("run_id", req.ID), zap.String("query", query), zap.String("location", location), zap.Bool("force", force))
	return req.ID, nil
}

// GetStatus returns the run record, or a record with status not_found.
func (uc *runManagerUseCase) GetStatus(ctx context.Context, id string) (*entity.CrawlRun, error) {
	run, err := uc.runRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrRunNotFound) {
		return &entity.CrawlRun{ID: id, Status: entity.RunNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// releaseMarker lets the pair be submitted again after a submission that was never queued.
func (uc *runManagerUseCase) releaseMarker(ctx context.Context, key string) {
	if uc.dedupWindow <= 0 {
		return
	}
	if err := uc.recentRepo.Remove(context.WithoutCancel(ctx), key); err != nil {
		uc.logger.Warn("Failed to release recent run marker", zap.Error(err))
	}
}

func runKey(query, location string) string {
	return strings.ToLower(query) + "|" + strings.ToLower(location)
}
