package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

// ListingRepoImpl provides a concrete implementation for the ListingRepository interface using PostgreSQL.
type ListingRepoImpl struct {
	db *pgxpool.Pool
}

// NewListingRepo creates a new instance of ListingRepoImpl.
func NewListingRepo(db *pgxpool.Pool) *ListingRepoImpl {
	return &ListingRepoImpl{db: db}
}

var stagedColumns = []string{"ord", "title", "company", "location", "url", "source"}

// UpsertBatch stages the whole batch in a transaction-scoped temp table and merges it
// with ON CONFLICT (url) DO NOTHING, so the unique constraint decides what is new.
// Within the batch the first occurrence of a URL wins.
func (r *ListingRepoImpl) UpsertBatch(ctx context.Context, listings []entity.CanonicalListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", entity.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE staged_listings (
			ord      INTEGER NOT NULL,
			title    TEXT,
			company  TEXT,
			location TEXT,
			url      TEXT,
			source   TEXT
		) ON COMMIT DROP;
	`)
	if err != nil {
		return 0, fmt.Errorf("%w: create staging table: %w", entity.ErrStoreUnavailable, err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"staged_listings"}, stagedColumns,
		pgx.CopyFromSlice(len(listings), func(i int) ([]any, error) {
			l := listings[i]
			return []any{i, l.Title, l.Company, l.Location, l.URL, string(l.Source)}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: stage listings: %w", entity.ErrStoreUnavailable, err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO internships (title, company, location, url, source)
		SELECT title, company, location, url, source
		FROM (
			SELECT DISTINCT ON (url) ord, title, company, location, url, source
			FROM staged_listings
			ORDER BY url, ord
		) first_seen
		ORDER BY ord
		ON CONFLICT (url) DO NOTHING;
	`)
	if err != nil {
		return 0, fmt.Errorf("%w: merge listings: %w", entity.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", entity.ErrStoreUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

const listingColumns = `id, title, company, location, url, COALESCE(source, ''), created_at`

// FindByURL retrieves the stored listing for url.
func (r *ListingRepoImpl) FindByURL(ctx context.Context, url string) (*entity.CanonicalListing, error) {
	row := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM internships WHERE url = $1;`, url)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// List returns stored listings, newest first.
func (r *ListingRepoImpl) List(ctx context.Context, limit, offset int) ([]entity.CanonicalListing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+listingColumns+`
		FROM internships
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2;
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []entity.CanonicalListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (r *ListingRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanListing(row pgx.Row) (*entity.CanonicalListing, error) {
	var (
		l      entity.CanonicalListing
		source string
	)
	if err := row.Scan(&l.ID, &l.Title, &l.Company, &l.Location, &l.URL, &source, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Source = entity.Source(source)
	return &l, nil
}
