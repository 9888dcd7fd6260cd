package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
)

func TestScrapeAll_Empty(t *testing.T) {
	r := &fakeRenderer{}
	f := &fakeFetcher{}
	s := newTestScraper(t, testScraperConfig(), r, f)

	results := s.ScrapeAll(context.Background(), nil, Options{})

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.EqualValues(t, 0, r.launches.Load())
	assert.EqualValues(t, 0, f.calls.Load())
}

func TestScrapeAll_PreservesOrderAndShape(t *testing.T) {
	// Earlier URLs take longer so completion order is reversed.
	delays := map[string]time.Duration{}
	urls := make([]string, 7)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://site%d.example.com/", i)
		delays[urls[i]] = time.Duration(len(urls)-i) * 5 * time.Millisecond
	}
	urls[3] = "ftp://bad.example.com"

	r := &fakeRenderer{
		navigate: func(_ context.Context, u string) error {
			time.Sleep(delays[u])
			if strings.Contains(u, "site5") {
				return errors.New("refused")
			}
			return nil
		},
	}
	cfg := testScraperConfig()
	cfg.BackoffBase = time.Millisecond
	s := newTestScraper(t, cfg, r, &fakeFetcher{})

	results := s.ScrapeAll(context.Background(), urls, Options{MaxConcurrent: 3, MaxRetries: 2})

	require.Len(t, results, len(urls))
	for i, res := range results {
		assert.NotEqual(t, res.Content == nil, res.Error == "", "exactly one of content and error at %d", i)
		if res.Success {
			assert.Equal(t, urls[i], res.Content.URL)
		}
	}
	assert.False(t, results[3].Success)
	assert.Equal(t, models.ErrCodeInvalidURL, results[3].Code)
	assert.False(t, results[5].Success)
	assert.Equal(t, 2, results[5].Attempts)
	for _, i := range []int{0, 1, 2, 4, 6} {
		assert.True(t, results[i].Success, "url %d: %s", i, results[i].Error)
	}
}

func TestScrapeAll_ConcurrencyBound(t *testing.T) {
	const delay = 60 * time.Millisecond

	for _, schedule := range []string{ScheduleChunked, SchedulePool} {
		t.Run(schedule, func(t *testing.T) {
			r := &fakeRenderer{
				navigate: func(context.Context, string) error {
					time.Sleep(delay)
					return nil
				},
			}
			cfg := testScraperConfig()
			cfg.Schedule = schedule
			s := newTestScraper(t, cfg, r, &fakeFetcher{})

			urls := make([]string, 5)
			for i := range urls {
				urls[i] = fmt.Sprintf("https://example.com/%d", i)
			}

			start := time.Now()
			results := s.ScrapeAll(context.Background(), urls, Options{MaxConcurrent: 2})
			elapsed := time.Since(start)

			require.Len(t, results, 5)
			assert.LessOrEqual(t, r.peakConcurrency(), 2)
			assert.Equal(t, 2, r.peakConcurrency())
			// ceil(5/2) rounds of one delay each.
			assert.GreaterOrEqual(t, elapsed, 3*delay)
			assert.Less(t, elapsed, 5*delay)
		})
	}
}

func TestScrapeAll_ChunkedWaitsForSlowestInGroup(t *testing.T) {
	var mu sync.Mutex
	var order []string
	r := &fakeRenderer{
		navigate: func(_ context.Context, u string) error {
			if strings.HasSuffix(u, "/slow") {
				time.Sleep(80 * time.Millisecond)
			}
			mu.Lock()
			order = append(order, u)
			mu.Unlock()
			return nil
		},
	}
	s := newTestScraper(t, testScraperConfig(), r, &fakeFetcher{})

	urls := []string{"https://example.com/slow", "https://example.com/fast", "https://example.com/next"}
	s.ScrapeAll(context.Background(), urls, Options{MaxConcurrent: 2})

	require.Len(t, order, 3)
	assert.Equal(t, "https://example.com/next", order[2], "next group starts only after the whole group finished")
}

func TestScrapeAll_LaunchFailureBatchUsesStaticShape(t *testing.T) {
	r := &fakeRenderer{launchErr: engine.ErrLaunch}
	f := &fakeFetcher{}
	s := newTestScraper(t, testScraperConfig(), r, f)

	urls := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	results := s.ScrapeAll(context.Background(), urls, Options{})

	require.Len(t, results, 3)
	for i, res := range results {
		require.True(t, res.Success, res.Error)
		assert.Equal(t, urls[i], res.Content.URL)
		assert.Equal(t, "Static "+urls[i], res.Content.Title)
		assert.Equal(t, len(strings.Fields(res.Content.Content)), res.Content.Metadata.WordCount)
	}
	assert.EqualValues(t, 3, f.calls.Load())
}

func TestScrapeAll_OnResultOncePerURL(t *testing.T) {
	s := newTestScraper(t, testScraperConfig(), &fakeRenderer{}, &fakeFetcher{})

	var mu sync.Mutex
	seen := map[int]int{}
	urls := []string{"https://a.example.com", "mailto:x@example.com", "https://c.example.com"}
	results := s.ScrapeAll(context.Background(), urls, Options{
		OnResult: func(i int, _ models.ScrapeResult) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		},
	})

	require.Len(t, results, 3)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, seen)
}

func TestScrapeURL_IsBatchOfOne(t *testing.T) {
	r := &fakeRenderer{}
	s := newTestScraper(t, testScraperConfig(), r, &fakeFetcher{})

	res := s.ScrapeURL(context.Background(), "https://example.com", Options{})

	require.True(t, res.Success)
	assert.Equal(t, "https://example.com", res.Content.URL)
	assert.EqualValues(t, 1, r.launches.Load())
}
