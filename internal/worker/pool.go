// Package worker runs queued crawl runs in the background and optionally
// enqueues the default query on a schedule.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/user/internship-ingest/internal/usecase"
	"go.uber.org/zap"
)

const defaultPollInterval = time.Second

// Pool polls the run queue with a fixed number of workers.
type Pool struct {
	ingestor     usecase.Ingestor
	workers      int
	pollInterval time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewPool(ingestor usecase.Ingestor, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		ingestor:     ingestor,
		workers:      workers,
		pollInterval: defaultPollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the workers. Runs in progress are cancelled with ctx.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("Run workers started", zap.Int("workers", p.workers))
}

// Stop waits for every worker to finish its current run.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker", id))

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := p.ingestor.ProcessRunFromQueue(ctx); err != nil {
			log.Error("Failed to process queued run", zap.Error(err))
		}
		timer.Reset(p.pollInterval)
	}
}
