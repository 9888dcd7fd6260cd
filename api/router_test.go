package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/scraper"
)

type okFetcher struct{}

func (okFetcher) Get(context.Context, string, map[string]string, time.Duration) (*engine.Response, error) {
	return &engine.Response{StatusCode: 200, Body: []byte("<title>ok</title>")}, nil
}

func TestRouter_AuthAndRoutes(t *testing.T) {
	t.Setenv("HARVEST_MODE", "test")
	t.Setenv("HARVEST_RENDERER", "false")
	t.Setenv("HARVEST_API_KEYS", "secret")
	cfg := config.Load()

	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, scraper.WithFetcher(okFetcher{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRouter(ctx, sc, cfg, time.Now())

	send := func(method, path, body, key string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/health", "", ""))
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost, "/api/v1/scrape", `{"url":"https://example.com"}`, ""))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/v1/scrape", `{"url":"https://example.com"}`, "secret"))
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, "/api/v1/batch/jobs/none", "", "secret"))
}
