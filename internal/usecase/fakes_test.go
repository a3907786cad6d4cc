package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"github.com/user/internship-ingest/internal/source"
)

// fakeSession serves canned markup by host and records what it was asked to do.
type fakeSession struct {
	mu        sync.Mutex
	pages     map[string]string // host substring -> html
	navErrs   map[string]error
	onNav     func(url string)
	current   string
	navigated []string
	closed    int
}

func (s *fakeSession) Navigate(ctx context.Context, url string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
	if s.onNav != nil {
		s.onNav(url)
	}
	for host, err := range s.navErrs {
		if strings.Contains(url, host) {
			return err
		}
	}
	s.current = url
	return ctx.Err()
}

func (s *fakeSession) WaitReady(context.Context, string, time.Duration) error {
	return errors.New("not ready")
}

func (s *fakeSession) ScrollToBottom(context.Context, int, time.Duration) error { return nil }

func (s *fakeSession) ClickIfPresent(context.Context, string) (bool, error) { return false, nil }

func (s *fakeSession) CurrentHTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for host, html := range s.pages {
		if strings.Contains(s.current, host) {
			return html, nil
		}
	}
	return "<html><body></body></html>", nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeFactory struct {
	mu       sync.Mutex
	err      error
	pages    map[string]string
	navErrs  map[string]error
	onNav    func(url string)
	sessions []*fakeSession
}

func (f *fakeFactory) Open(context.Context) (repository.RenderingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSession{pages: f.pages, navErrs: f.navErrs, onNav: f.onNav}
	f.sessions = append(f.sessions, s)
	return s, nil
}

// stubAdapter returns fixed listings without looking at the markup.
type stubAdapter struct {
	src      entity.Source
	listings []entity.RawListing
	err      error
	panics   bool
}

func (a *stubAdapter) Source() entity.Source { return a.src }

func (a *stubAdapter) BuildSearchURL(query, _ string) string {
	return "https://" + strings.ToLower(string(a.src)) + ".example/?q=" + query
}

func (a *stubAdapter) Plan() source.RenderPlan {
	return source.RenderPlan{ReadySelector: ".card"}
}

func (a *stubAdapter) Extract(string, string, string) (source.Extraction, error) {
	if a.panics {
		panic("unexpected markup")
	}
	if a.err != nil {
		return source.Extraction{}, a.err
	}
	return source.Extraction{Listings: a.listings, Cards: len(a.listings)}, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	items []entity.RunRequest
	err   error
}

func (q *fakeQueue) Push(_ context.Context, req entity.RunRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, req)
	return nil
}

func (q *fakeQueue) Pop(context.Context) (*entity.RunRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, repository.ErrQueueEmpty
	}
	req := q.items[0]
	q.items = q.items[1:]
	return &req, nil
}

func (q *fakeQueue) Size(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type fakeRecent struct {
	mu      sync.Mutex
	keys    map[string]bool
	retries map[string]int64
}

func newFakeRecent() *fakeRecent {
	return &fakeRecent{keys: map[string]bool{}, retries: map[string]int64{}}
}

func (r *fakeRecent) MarkSubmitted(_ context.Context, key string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = true
	return nil
}

func (r *fakeRecent) MarkIfAbsent(_ context.Context, key string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys[key] {
		return false, nil
	}
	r.keys[key] = true
	return true, nil
}

func (r *fakeRecent) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
	return nil
}

func (r *fakeRecent) IncrementRetry(_ context.Context, runID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[runID]++
	return r.retries[runID], nil
}

// failingStore is a ListingRepository whose database is down.
type failingStore struct{}

func (failingStore) UpsertBatch(context.Context, []entity.CanonicalListing) (int, error) {
	return 0, entity.ErrStoreUnavailable
}

func (failingStore) FindByURL(context.Context, string) (*entity.CanonicalListing, error) {
	return nil, entity.ErrStoreUnavailable
}

func (failingStore) List(context.Context, int, int) ([]entity.CanonicalListing, error) {
	return nil, entity.ErrStoreUnavailable
}

func (failingStore) Ping(context.Context) error { return entity.ErrStoreUnavailable }
