package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/internship-ingest/internal/entity"
)

var ErrQueueEmpty = errors.New("run queue is empty")

// RunQueueRepository defines the interface for a FIFO queue of pending crawl runs.
type RunQueueRepository interface {
	// Push adds a run request to the end of the queue.
	Push(ctx context.Context, req entity.RunRequest) error
	// Pop removes and returns the oldest request. It returns ErrQueueEmpty when nothing is queued.
	Pop(ctx context.Context) (*entity.RunRequest, error)
	// Size returns the current number of queued requests.
	Size(ctx context.Context) (int64, error)
}

// RecentRunRepository remembers which (query, location) pairs were submitted recently.
type RecentRunRepository interface {
	// MarkIfAbsent records key with an expiry unless it is already present.
	// It reports whether this call set the key; the check and the write are one atomic step.
	MarkIfAbsent(ctx context.Context, key string, expiry time.Duration) (bool, error)
	// MarkSubmitted records key with an expiry, replacing any existing marker. Used for forced runs.
	MarkSubmitted(ctx context.Context, key string, expiry time.Duration) error
	// Remove forgets key, used when a submission could not be queued.
	Remove(ctx context.Context, key string) error
	// IncrementRetry bumps and returns the retry counter for a run.
	IncrementRetry(ctx context.Context, runID string) (int64, error)
}
