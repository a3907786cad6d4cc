package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/user/internship-ingest/internal/usecase"
	"go.uber.org/zap"
)

// Scheduler submits the default query on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	runManager usecase.RunManager
	query      string
	location   string
	logger     *zap.Logger
}

// NewScheduler parses schedule, a standard five-field cron expression or a descriptor such as "@daily".
func NewScheduler(schedule string, runManager usecase.RunManager, query, location string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		runManager: runManager,
		query:      query,
		location:   location,
		logger:     logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.enqueue); err != nil {
		return nil, fmt.Errorf("invalid INGEST_SCHEDULE %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduled runs enabled", zap.String("query", s.query), zap.String("location", s.location))
}

// Stop prevents new submissions and returns once a running submission has finished.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueue() {
	id, err := s.runManager.Submit(context.Background(), s.query, s.location, false)
	switch {
	case errors.Is(err, usecase.ErrRunRecentlyRequested):
		s.logger.Info("Skipping scheduled run, one was requested recently")
	case err != nil:
		s.logger.Error("Failed to submit scheduled run", zap.Error(err))
	default:
		s.logger.Info("Scheduled run queued", zap.String("run_id", id))
	}
}
