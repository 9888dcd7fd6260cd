package scraper

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
	"golang.org/x/sync/semaphore"
)

// Batch schedules.
const (
	// ScheduleChunked runs consecutive groups of MaxConcurrent URLs, one
	// group at a time.
	ScheduleChunked = "chunked"

	// SchedulePool keeps up to MaxConcurrent URLs in flight at all times.
	SchedulePool = "pool"
)

// Scraper runs single-URL and batch scrapes. It holds no per-page state
// and is safe for concurrent use.
type Scraper struct {
	launcher engine.Launcher // nil when the renderer is disabled
	fetcher  engine.Fetcher

	// browsers caps live browser processes; nil means no cap.
	browsers *semaphore.Weighted

	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig

	env    func() engine.Env
	goos   string
	exists func(string) bool

	active atomic.Int32
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithLauncher replaces the browser launcher. A nil launcher disables the
// renderer.
func WithLauncher(l engine.Launcher) Option {
	return func(s *Scraper) { s.launcher = l }
}

// WithFetcher replaces the static HTTP fetcher.
func WithFetcher(f engine.Fetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithEnvironment replaces the inputs of browser install-path discovery.
func WithEnvironment(env func() engine.Env, goos string, exists func(string) bool) Option {
	return func(s *Scraper) {
		s.env = env
		s.goos = goos
		s.exists = exists
	}
}

// NewScraper creates a Scraper. Unless overridden by options, the renderer
// is go-rod (when browserCfg.Enabled) and the static path is an HTTPEngine.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		browserCfg: browserCfg,
		scraperCfg: normalizeConfig(scraperCfg),
		env:        engine.EnvFromOS,
		goos:       runtime.GOOS,
		exists:     engine.FileExists,
	}
	if browserCfg.Enabled {
		s.launcher = engine.NewRodLauncher()
	}
	if browserCfg.MaxBrowsers > 0 {
		s.browsers = semaphore.NewWeighted(int64(browserCfg.MaxBrowsers))
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		f, err := engine.NewHTTPEngine(browserCfg.Proxy)
		if err != nil {
			return nil, err
		}
		s.fetcher = f
	}

	slog.Info("scraper initialised",
		"renderer", s.launcher != nil,
		"schedule", s.scraperCfg.Schedule,
		"maxConcurrent", s.scraperCfg.MaxConcurrent,
		"maxRetries", s.scraperCfg.MaxRetries,
		"maxBrowsers", browserCfg.MaxBrowsers,
	)
	return s, nil
}

// normalizeConfig replaces unusable values with defaults instead of
// rejecting them.
func normalizeConfig(cfg config.ScraperConfig) config.ScraperConfig {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = models.DefaultTimeoutMs * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = models.DefaultMaxRetries
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = models.DefaultMaxConcurrent
	}
	if cfg.BackoffBase < 0 {
		cfg.BackoffBase = 0
	}
	if cfg.OverallGrace < 0 {
		cfg.OverallGrace = 0
	}
	if cfg.Schedule != SchedulePool {
		cfg.Schedule = ScheduleChunked
	}
	return cfg
}

// Options are the per-call scrape parameters. Zero values take the
// scraper's configured defaults.
type Options struct {
	// Timeout bounds each attempt and navigation.
	Timeout time.Duration

	// MaxRetries is the total number of attempts per URL.
	MaxRetries int

	// MaxConcurrent bounds concurrently running URLs in a batch.
	MaxConcurrent int

	// OnResult, if set, is called once per URL as soon as its result is
	// known. It may be called from several goroutines at once.
	OnResult func(index int, result models.ScrapeResult)
}

func (s *Scraper) withDefaults(o Options) Options {
	if o.Timeout <= 0 {
		o.Timeout = s.scraperCfg.DefaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = s.scraperCfg.MaxRetries
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = s.scraperCfg.MaxConcurrent
	}
	return o
}

// Stats returns a snapshot of the scraper's load.
func (s *Scraper) Stats() models.ScraperStats {
	return models.ScraperStats{
		ActiveScrapes:   int(s.active.Load()),
		RendererEnabled: s.launcher != nil,
	}
}

// MaxBatchSize is the configured cap on URLs per API call.
func (s *Scraper) MaxBatchSize() int {
	return s.scraperCfg.MaxBatchSize
}

// Close releases idle connections held by the static fetcher. Browsers are
// owned by individual attempts and need no shutdown here.
func (s *Scraper) Close() {
	if c, ok := s.fetcher.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	slog.Info("scraper shutdown complete")
}

// ScrapeOne scrapes a single URL with retries and returns its envelope.
//
// The URL is validated once; an invalid URL fails without any attempt.
// The retry sequence, including backoff waits, is bounded by the attempt
// timeout plus the configured grace period. When that budget runs out the
// result is an OVERALL_TIMEOUT failure whatever the in-flight attempt is
// doing. Cancelling ctx yields a CANCELED failure.
func (s *Scraper) ScrapeOne(ctx context.Context, rawURL string, opts Options) models.ScrapeResult {
	opts = s.withDefaults(opts)

	if err := validateURL(rawURL); err != nil {
		slog.Warn("rejecting URL", "url", rawURL, "error", err)
		return models.Failed(err.Code, err.Cause(), 0)
	}

	s.active.Add(1)
	defer s.active.Add(-1)

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout+s.scraperCfg.OverallGrace)
	defer cancel()

	var started atomic.Int32
	done := make(chan models.ScrapeResult, 1)
	go func() {
		done <- s.retry(ctx, runCtx, rawURL, opts, &started)
	}()

	select {
	case r := <-done:
		return r
	case <-runCtx.Done():
		st := interrupted(ctx, opts.MaxRetries)
		slog.Warn("scrape interrupted", "url", rawURL, "code", st.lastCode)
		return st.result(int(started.Load()))
	}
}

// retry drives the attempt state machine until it leaves Attempting.
func (s *Scraper) retry(parent, ctx context.Context, rawURL string, opts Options, started *atomic.Int32) models.ScrapeResult {
	st := newAttemptState(opts.MaxRetries)
	for st.phase == phaseAttempting {
		n := st.attempt
		started.Store(int32(n))

		content, err := s.attemptOnce(ctx, rawURL, opts.Timeout)
		if ctx.Err() != nil {
			return interrupted(parent, opts.MaxRetries).result(n)
		}
		if err != nil {
			slog.Warn("scrape attempt failed",
				"url", rawURL, "attempt", n, "maxRetries", opts.MaxRetries, "error", err)
		}

		st = st.advance(content, err)
		if st.phase != phaseAttempting {
			break
		}
		if !sleepCtx(ctx, backoff(s.scraperCfg.BackoffBase, n)) {
			return interrupted(parent, opts.MaxRetries).result(n)
		}
	}
	return st.result(int(started.Load()))
}

// attemptOnce is one attempt: the renderer, or the static fetcher when the
// renderer is disabled or its browser cannot be launched.
func (s *Scraper) attemptOnce(ctx context.Context, rawURL string, timeout time.Duration) (*models.ScrapedContent, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.launcher == nil {
		return s.FetchStatic(actx, rawURL, timeout)
	}

	content, err := s.Render(actx, rawURL, timeout)
	if err == nil {
		return content, nil
	}
	if models.CodeOf(err) == models.ErrCodeEngineLaunch {
		slog.Warn("renderer unavailable, falling back to static fetch",
			"url", rawURL, "error", err)
		return s.FetchStatic(actx, rawURL, timeout)
	}
	return nil, err
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
