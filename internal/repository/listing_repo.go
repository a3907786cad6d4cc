package repository

import (
	"context"
	"errors"

	"github.com/user/internship-ingest/internal/entity"
)

var ErrListingNotFound = errors.New("listing not found")

// ListingRepository defines the interface for persisting canonical listings.
type ListingRepository interface {
	// UpsertBatch inserts every listing whose URL is not yet stored and returns how many rows were created.
	// Existing rows are never modified. Duplicate URLs inside the batch are inserted once (first occurrence wins).
	UpsertBatch(ctx context.Context, listings []entity.CanonicalListing) (int, error)
	// FindByURL retrieves the stored listing for url.
	FindByURL(ctx context.Context, url string) (*entity.CanonicalListing, error)
	// List returns stored listings, newest first.
	List(ctx context.Context, limit, offset int) ([]entity.CanonicalListing, error)
	Ping(ctx context.Context) error
}
