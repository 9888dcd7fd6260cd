package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/harvest/models"
	"golang.org/x/sync/errgroup"
)

// ScrapeAll scrapes urls and returns one result per URL in input order.
// A failing URL never cancels its siblings; failures are reported in the
// corresponding result. An empty input returns an empty slice without any
// browser or network activity.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, opts Options) []models.ScrapeResult {
	results := make([]models.ScrapeResult, len(urls))
	if len(urls) == 0 {
		return results
	}
	opts = s.withDefaults(opts)

	start := time.Now()
	switch s.scraperCfg.Schedule {
	case SchedulePool:
		s.runPool(ctx, urls, opts, results)
	default:
		s.runChunked(ctx, urls, opts, results)
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	slog.Info("batch finished",
		"total", len(urls),
		"succeeded", succeeded,
		"failed", len(urls)-succeeded,
		"schedule", s.scraperCfg.Schedule,
		"duration", time.Since(start),
	)
	return results
}

// ScrapeURL is ScrapeAll for a single URL.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string, opts Options) models.ScrapeResult {
	return s.ScrapeAll(ctx, []string{rawURL}, opts)[0]
}

// runChunked splits urls into consecutive groups of opts.MaxConcurrent and
// runs one group at a time. Each URL writes only its own slot.
func (s *Scraper) runChunked(ctx context.Context, urls []string, opts Options, results []models.ScrapeResult) {
	size := opts.MaxConcurrent
	for lo := 0; lo < len(urls); lo += size {
		hi := min(lo+size, len(urls))

		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				s.scrapeSlot(ctx, idx, urls[idx], opts, results)
			}(i)
		}
		wg.Wait()

		slog.Debug("batch group finished", "from", lo, "to", hi, "total", len(urls))
	}
}

// runPool keeps up to opts.MaxConcurrent URLs in flight until all are done.
func (s *Scraper) runPool(ctx context.Context, urls []string, opts Options, results []models.ScrapeResult) {
	var g errgroup.Group
	g.SetLimit(opts.MaxConcurrent)
	for i := range urls {
		g.Go(func() error {
			s.scrapeSlot(ctx, i, urls[i], opts, results)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scraper) scrapeSlot(ctx context.Context, idx int, rawURL string, opts Options, results []models.ScrapeResult) {
	r := s.ScrapeOne(ctx, rawURL, opts)
	results[idx] = r
	if opts.OnResult != nil {
		opts.OnResult(idx, r)
	}
}
