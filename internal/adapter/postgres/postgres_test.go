package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

// newTestPool connects to TEST_DATABASE_URL inside a throwaway schema.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()
	schemaName := fmt.Sprintf("ingest_test_%d", time.Now().UnixNano())

	admin, err := NewPool(ctx, dsn, 1)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schemaName)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schemaName
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schemaName+" CASCADE")
		admin.Close()
	})
	return pool
}

func listing(title, url string) entity.CanonicalListing {
	company := "Acme"
	return entity.CanonicalListing{
		Title:    title,
		Company:  &company,
		Location: "Remote",
		URL:      url,
		Source:   entity.SourceSeek,
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM internships").Scan(&n))
	return n
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	repo := NewListingRepo(pool)
	ctx := context.Background()

	batch := []entity.CanonicalListing{listing("A", "https://x/1"), listing("B", "https://x/2")}

	n, err := repo.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := repo.FindByURL(ctx, "https://x/1")
	require.NoError(t, err)

	n, err = repo.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, countRows(t, pool))

	again, err := repo.FindByURL(ctx, "https://x/1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))
}

func TestUpsertBatchNeverOverwrites(t *testing.T) {
	pool := newTestPool(t)
	repo := NewListingRepo(pool)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, []entity.CanonicalListing{listing("Intern A", "https://x/1")})
	require.NoError(t, err)

	n, err := repo.UpsertBatch(ctx, []entity.CanonicalListing{listing("Intern A (updated)", "https://x/1")})
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.FindByURL(ctx, "https://x/1")
	require.NoError(t, err)
	assert.Equal(t, "Intern A", got.Title)
	assert.Equal(t, "Acme", got.CompanyName())
	assert.Equal(t, entity.SourceSeek, got.Source)
}

func TestUpsertBatchInternalDuplicates(t *testing.T) {
	pool := newTestPool(t)
	repo := NewListingRepo(pool)
	ctx := context.Background()

	n, err := repo.UpsertBatch(ctx, []entity.CanonicalListing{
		listing("First", "https://x/1"),
		listing("Second", "https://x/1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, countRows(t, pool))

	got, err := repo.FindByURL(ctx, "https://x/1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
}

func TestUpsertBatchConcurrentRuns(t *testing.T) {
	pool := newTestPool(t)
	repo := NewListingRepo(pool)

	var batch []entity.CanonicalListing
	for i := 0; i < 50; i++ {
		batch = append(batch, listing(fmt.Sprintf("Intern %d", i), fmt.Sprintf("https://x/%d", i)))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.UpsertBatch(context.Background(), batch)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, total)
	assert.Equal(t, 50, countRows(t, pool))
}

func TestUpsertBatchEmpty(t *testing.T) {
	repo := NewListingRepo(nil)
	n, err := repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFindByURLNotFound(t *testing.T) {
	repo := NewListingRepo(newTestPool(t))
	_, err := repo.FindByURL(context.Background(), "https://x/missing")
	assert.ErrorIs(t, err, repository.ErrListingNotFound)
}

func TestListNewestFirst(t *testing.T) {
	pool := newTestPool(t)
	repo := NewListingRepo(pool)
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, []entity.CanonicalListing{listing("A", "https://x/1")})
	require.NoError(t, err)
	noCompany := entity.CanonicalListing{Title: "B", Location: "Perth", URL: "https://x/2", Source: entity.SourceLinkedIn}
	_, err = repo.UpsertBatch(ctx, []entity.CanonicalListing{noCompany})
	require.NoError(t, err)

	got, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://x/2", got[0].URL)
	assert.Nil(t, got[0].Company)

	got, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://x/1", got[0].URL)
}

func TestRunRepoSaveAndFind(t *testing.T) {
	repo := NewRunRepo(newTestPool(t))
	ctx := context.Background()

	run := &entity.CrawlRun{
		ID:        "run-1",
		Query:     "Computer Science Internship",
		Location:  "Australia",
		Status:    entity.RunRunning,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.Save(ctx, run))

	finished := run.StartedAt.Add(time.Minute)
	run.Status = entity.RunCompleted
	run.FinishedAt = &finished
	run.Outcomes = []entity.SourceOutcome{{Source: entity.SourceSeek, Found: 3}, {Source: entity.SourceGlassdoor, Failed: 1, Error: "no listing cards found"}}
	run.Candidates = 3
	run.Inserted = 2
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.FindByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunCompleted, got.Status)
	assert.Equal(t, run.Outcomes, got.Outcomes)
	assert.Equal(t, 2, got.Inserted)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}
