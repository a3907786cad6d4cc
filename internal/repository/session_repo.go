package repository

import (
	"context"
	"time"
)

// RenderingSession is a browser session that renders pages for the source adapters.
// It knows nothing about any particular source.
type RenderingSession interface {
	// Navigate loads url and blocks until the settle delay has elapsed.
	Navigate(ctx context.Context, url string, settle time.Duration) error
	// WaitReady waits for selector to appear, bounded by timeout.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// ScrollToBottom scrolls to the end of the page times times, waiting delay after each scroll.
	ScrollToBottom(ctx context.Context, times int, delay time.Duration) error
	// ClickIfPresent clicks the first node matching selector and reports whether one existed.
	ClickIfPresent(ctx context.Context, selector string) (bool, error)
	// CurrentHTML returns the rendered markup of the current page.
	CurrentHTML(ctx context.Context) (string, error)
	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// SessionFactory opens rendering sessions.
type SessionFactory interface {
	// Open starts a new session. Failures wrap entity.ErrSessionInit.
	Open(ctx context.Context) (RenderingSession, error)
}
