// Package memory keeps listings and run records in process memory. It backs
// dry runs of the CLI and gives the same insert-if-absent semantics as PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

// ListingRepo is an in-memory ListingRepository.
type ListingRepo struct {
	mu     sync.Mutex
	byURL  map[string]*entity.CanonicalListing
	nextID int64
	now    func() time.Time
}

func NewListingRepo() *ListingRepo {
	return &ListingRepo{
		byURL: make(map[string]*entity.CanonicalListing),
		now:   time.Now,
	}
}

// UpsertBatch inserts listings whose URL is unseen. The check and the insert happen under one lock.
func (r *ListingRepo) UpsertBatch(_ context.Context, listings []entity.CanonicalListing) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, l := range listings {
		if _, ok := r.byURL[l.URL]; ok {
			continue
		}
		r.nextID++
		stored := l
		stored.ID = r.nextID
		stored.CreatedAt = r.now()
		if l.Company != nil {
			company := *l.Company
			stored.Company = &company
		}
		r.byURL[l.URL] = &stored
		inserted++
	}
	return inserted, nil
}

func (r *ListingRepo) FindByURL(_ context.Context, url string) (*entity.CanonicalListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byURL[url]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

// List returns listings newest first, like the PostgreSQL implementation.
func (r *ListingRepo) List(_ context.Context, limit, offset int) ([]entity.CanonicalListing, error) {
	r.mu.Lock()
	all := make([]entity.CanonicalListing, 0, len(r.byURL))
	for _, l := range r.byURL {
		all = append(all, *l)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *ListingRepo) Ping(context.Context) error { return nil }

// Len returns the number of stored listings.
func (r *ListingRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURL)
}
