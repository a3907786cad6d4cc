package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

// RunRepoImpl provides a concrete implementation for the RunRepository interface using PostgreSQL.
type RunRepoImpl struct {
	db *pgxpool.Pool
}

// NewRunRepo creates a new instance of RunRepoImpl.
func NewRunRepo(db *pgxpool.Pool) *RunRepoImpl {
	return &RunRepoImpl{db: db}
}

// Save creates or updates the record for a crawl run.
func (r *RunRepoImpl) Save(ctx context.Context, run *entity.CrawlRun) error {
	outcomes := run.Outcomes
	if outcomes == nil {
		outcomes = []entity.SourceOutcome{}
	}
	outcomesJSON, err := json.Marshal(outcomes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO crawl_runs (id, query, location, status, started_at, finished_at, outcomes, candidates, inserted, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			outcomes = EXCLUDED.outcomes,
			candidates = EXCLUDED.candidates,
			inserted = EXCLUDED.inserted,
			error = EXCLUDED.error;
	`
	_, err = r.db.Exec(ctx, query,
		run.ID,
		run.Query,
		run.Location,
		string(run.Status),
		run.StartedAt,
		run.FinishedAt,
		outcomesJSON,
		run.Candidates,
		run.Inserted,
		run.Error,
	)
	return err
}

// FindByID retrieves a crawl run record.
func (r *RunRepoImpl) FindByID(ctx context.Context, id string) (*entity.CrawlRun, error) {
	query := `
		SELECT id, query, location, status, started_at, finished_at, outcomes, candidates, inserted, error
		FROM crawl_runs
		WHERE id = $1;
	`
	var (
		run          entity.CrawlRun
		status       string
		outcomesJSON []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Query,
		&run.Location,
		&status,
		&run.StartedAt,
		&run.FinishedAt,
		&outcomesJSON,
		&run.Candidates,
		&run.Inserted,
		&run.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Status = entity.RunStatus(status)

	if err := json.Unmarshal(outcomesJSON, &run.Outcomes); err != nil {
		return nil, err
	}
	return &run, nil
}
