package repository

import (
	"context"
	"errors"

	"github.com/user/internship-ingest/internal/entity"
)

var ErrRunNotFound = errors.New("crawl run not found")

// RunRepository defines the interface for storing crawl run records.
type RunRepository interface {
	// Save creates or replaces the record for run.ID.
	Save(ctx context.Context, run *entity.CrawlRun) error
	// FindByID retrieves a run record.
	FindByID(ctx context.Context, id string) (*entity.CrawlRun, error)
}
