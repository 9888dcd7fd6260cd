package scraper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/ysmood/gson"
)

// fakeRenderer implements engine.Launcher with hooks for every step of the
// page lifecycle. It also tracks how many navigations run at once.
type fakeRenderer struct {
	launchErr error
	pageErr   error
	navigate  func(ctx context.Context, url string) error
	evaluate  func(url, script string) (gson.JSON, error)

	launches atomic.Int32
	closes   atomic.Int32

	mu      sync.Mutex
	current int
	peak    int
	lastOpt engine.LaunchOptions
}

func (r *fakeRenderer) Launch(_ context.Context, opts engine.LaunchOptions) (engine.Browser, error) {
	r.launches.Add(1)
	r.mu.Lock()
	r.lastOpt = opts
	r.mu.Unlock()
	if r.launchErr != nil {
		return nil, r.launchErr
	}
	return &fakeBrowser{r: r}, nil
}

func (r *fakeRenderer) enter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	if r.current > r.peak {
		r.peak = r.current
	}
}

func (r *fakeRenderer) leave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current--
}

func (r *fakeRenderer) peakConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

type fakeBrowser struct{ r *fakeRenderer }

func (b *fakeBrowser) NewPage(context.Context) (engine.Page, error) {
	if b.r.pageErr != nil {
		return nil, b.r.pageErr
	}
	return &fakePage{r: b.r}, nil
}

func (b *fakeBrowser) Close() error {
	b.r.closes.Add(1)
	return nil
}

type fakePage struct {
	r   *fakeRenderer
	url string
}

func (p *fakePage) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.url = url
	p.r.enter()
	defer p.r.leave()
	if p.r.navigate != nil {
		return p.r.navigate(ctx, url)
	}
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, script string) (gson.JSON, error) {
	if p.r.evaluate != nil {
		return p.r.evaluate(p.url, script)
	}
	return gson.New(map[string]any{
		"content":       "Main   body\n text of " + p.url,
		"title":         " Page  title ",
		"publishedDate": "2024-05-01",
		"author":        nil,
	}), nil
}

func (p *fakePage) Close() error { return nil }

// fakeFetcher implements engine.Fetcher.
type fakeFetcher struct {
	get   func(ctx context.Context, url string) (*engine.Response, error)
	calls atomic.Int32
}

func (f *fakeFetcher) Get(ctx context.Context, url string, _ map[string]string, _ time.Duration) (*engine.Response, error) {
	f.calls.Add(1)
	if f.get != nil {
		return f.get(ctx, url)
	}
	body := fmt.Sprintf("<html><head><title>Static %s</title></head><body><p>hello</p></body></html>", url)
	return &engine.Response{StatusCode: 200, Body: []byte(body)}, nil
}

// testScraperConfig keeps waits short so the retry paths run quickly.
func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		DefaultTimeout: time.Second,
		MaxRetries:     3,
		MaxConcurrent:  5,
		BackoffBase:    10 * time.Millisecond,
		OverallGrace:   time.Second,
		Schedule:       ScheduleChunked,
		MaxBatchSize:   100,
	}
}

func newTestScraper(t *testing.T, cfg config.ScraperConfig, r *fakeRenderer, f *fakeFetcher) *Scraper {
	t.Helper()
	opts := []Option{
		WithFetcher(f),
		WithEnvironment(func() engine.Env { return engine.Env{} }, "linux", func(string) bool { return false }),
	}
	if r != nil {
		opts = append(opts, WithLauncher(r))
	}
	s, err := NewScraper(config.BrowserConfig{}, cfg, opts...)
	require.NoError(t, err)
	return s
}

func configBrowser(bin string) config.BrowserConfig {
	return config.BrowserConfig{Headless: true, NoSandbox: true, BrowserBin: bin}
}
