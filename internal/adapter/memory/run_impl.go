package memory

import (
	"context"
	"sync"

	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

// RunRepo is an in-memory RunRepository.
type RunRepo struct {
	mu   sync.Mutex
	runs map[string]entity.CrawlRun
}

func NewRunRepo() *RunRepo {
	return &RunRepo{runs: make(map[string]entity.CrawlRun)}
}

func (r *RunRepo) Save(_ context.Context, run *entity.CrawlRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	cp.Outcomes = append([]entity.SourceOutcome(nil), run.Outcomes...)
	r.runs[run.ID] = cp
	return nil
}

func (r *RunRepo) FindByID(_ context.Context, id string) (*entity.CrawlRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return &run, nil
}
