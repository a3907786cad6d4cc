package chromedp_session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls how browser sessions are launched.
type Config struct {
	Headless             bool
	UserAgent            string
	ExecPath             string
	ProxyServer          string
	AcceptLanguage       string
	StartupTimeout       time.Duration
	NavigationTimeout    time.Duration
	NavigationsPerMinute int
}

// Factory opens headless Chrome sessions.
type Factory struct {
	cfg    Config
	logger *zap.Logger
}

// NewFactory creates a session factory.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Session drives one browser tab. Methods must not be called concurrently.
type Session struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	navTimeout    time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
	closeOnce     sync.Once
	closeErr      error
}

// Open launches a browser and checks that it can load a blank page within StartupTimeout.
func (f *Factory) Open(ctx context.Context) (repository.RenderingSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}
	if f.cfg.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(f.cfg.ProxyServer))
	}

	// The browser outlives the caller's ctx; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))

	s := &Session{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		navTimeout:    f.cfg.NavigationTimeout,
		limiter:       newLimiter(f.cfg.NavigationsPerMinute),
		logger:        f.logger,
	}

	startCtx, cancel := context.WithTimeout(ctx, f.cfg.StartupTimeout)
	defer cancel()
	if err := s.start(startCtx, f.cfg.AcceptLanguage); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %w", entity.ErrSessionInit, err)
	}

	f.logger.Debug("Browser session started", zap.Bool("headless", f.cfg.Headless))
	return s, nil
}

// start allocates the browser with the first Run, which must not carry a deadline,
// then checks it under ctx. It never returns while the allocating Run is still in flight.
func (s *Session) start(ctx context.Context, acceptLanguage string) error {
	errCh := make(chan error, 1)
	go func() {
		actions := []chromedp.Action{}
		if acceptLanguage != "" {
			actions = append(actions, network.Enable(),
				network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}))
		}
		if err := chromedp.Run(s.browserCtx, actions...); err != nil {
			errCh <- err
			return
		}
		checkCtx, cancel := s.bound(ctx, 0)
		defer cancel()
		errCh <- chromedp.Run(checkCtx, chromedp.Navigate("about:blank"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// Tear the browser down and let the Run observe it before Close touches the context.
		s.browserCancel()
		s.allocCancel()
		<-errCh
		return ctx.Err()
	}
}

// bound derives a context from the browser that is also cancelled with caller.
// A positive timeout adds a deadline.
func (s *Session) bound(caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(s.browserCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(s.browserCtx)
	}
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url within the navigation timeout and then waits settle.
func (s *Session) Navigate(ctx context.Context, url string, settle time.Duration) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	navCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	start := time.Now()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	s.logger.Debug("Page loaded", zap.String("url", url), zap.Duration("elapsed", time.Since(start)))

	return sleep(ctx, settle)
}

func (s *Session) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := s.bound(ctx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *Session) ScrollToBottom(ctx context.Context, times int, delay time.Duration) error {
	for i := 0; i < times; i++ {
		runCtx, cancel := s.bound(ctx, s.navTimeout)
		err := chromedp.Run(runCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil))
		cancel()
		if err != nil {
			return fmt.Errorf("scroll %d: %w", i+1, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// ClickIfPresent clicks the first match without waiting for one to appear.
func (s *Session) ClickIfPresent(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	if len(nodes) == 0 {
		return false, nil
	}
	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(nodes[0])); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) CurrentHTML(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx, s.navTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the browser down. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.browserCtx)
		s.browserCancel()
		s.allocCancel()
	})
	return s.closeErr
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
