package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
	"github.com/ysmood/gson"
)

// contentSelectors are tried in order; the first match is the main content.
// document.body is the last resort.
var contentSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".main-content",
	"#main-content",
	".content",
	"#content",
}

// metaSource reads attr of the first element matching selector, or its
// text content when attr is empty.
type metaSource struct {
	Selector string `json:"selector"`
	Attr     string `json:"attr,omitempty"`
}

var publishedDateSources = []metaSource{
	{Selector: `meta[property="article:published_time"]`, Attr: "content"},
	{Selector: `meta[name="date"]`, Attr: "content"},
	{Selector: "time[datetime]", Attr: "datetime"},
}

var authorSources = []metaSource{
	{Selector: `meta[name="author"]`, Attr: "content"},
	{Selector: `meta[property="article:author"]`, Attr: "content"},
	{Selector: `[rel="author"]`},
}

// extractScript is evaluated in the rendered page. Each metadata lookup is
// guarded on its own so one failing selector never fails the extraction.
var extractScript = buildExtractScript()

const (
	bodyTextScript = `() => document.body ? document.body.innerText : null`
	titleScript    = `() => document.title`
)

func buildExtractScript() string {
	sel, _ := json.Marshal(contentSelectors)
	dates, _ := json.Marshal(publishedDateSources)
	authors, _ := json.Marshal(authorSources)

	return fmt.Sprintf(`() => {
	const contentSelectors = %s;
	const dateSources = %s;
	const authorSources = %s;

	const lookup = (sources) => {
		for (const src of sources) {
			try {
				const el = document.querySelector(src.selector);
				if (!el) continue;
				const v = src.attr ? el.getAttribute(src.attr) : el.textContent;
				if (v && v.trim()) return v;
			} catch (e) {}
		}
		return null;
	};

	try {
		let root = null;
		for (const s of contentSelectors) {
			root = document.querySelector(s);
			if (root) break;
		}
		if (!root) root = document.body;

		return {
			content: root ? (root.innerText || '') : '',
			title: document.title || '',
			publishedDate: lookup(dateSources),
			author: lookup(authorSources),
		};
	} catch (e) {
		return null;
	}
}`, sel, dates, authors)
}

// extraction is the typed result of extractScript.
type extraction struct {
	Content       *string `json:"content"`
	Title         string  `json:"title"`
	PublishedDate *string `json:"publishedDate"`
	Author        *string `json:"author"`
}

// decodeExtraction validates the page's return value. It accepts only an
// object whose content field is a string.
func decodeExtraction(v gson.JSON) (extraction, bool) {
	var ex extraction
	if v.Nil() {
		return ex, false
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return ex, false
	}
	if err := json.Unmarshal(raw, &ex); err != nil {
		return ex, false
	}
	if ex.Content == nil {
		return ex, false
	}
	return ex, true
}

// Render loads rawURL in a freshly launched browser and extracts its main
// content, title, publish date and author.
//
// Lifecycle:
//
//  1. Launch        : new browser process once a slot is free (ENGINE_LAUNCH_FAILED on error)
//  2. New page      : isolated incognito tab
//  3. Navigate      : bounded by timeout, waits for the load event
//  4. Settle        : fixed delay for deferred scripts
//  5. Extract       : in-page routine, typed at the boundary
//  6. Body fallback : body innerText + title when step 5 yields nothing
//
// Browser and page are always closed before returning.
func (s *Scraper) Render(ctx context.Context, rawURL string, timeout time.Duration) (*models.ScrapedContent, error) {
	if s.launcher == nil {
		return nil, models.NewScrapeError(models.ErrCodeEngineLaunch, "renderer disabled", nil)
	}

	// ── 1. Launch ─────────────────────────────────────────────────────
	if s.browsers != nil {
		if err := s.browsers.Acquire(ctx, 1); err != nil {
			return nil, categorizeError(err, models.ErrCodeNavigation, "waiting for a free browser slot")
		}
		defer s.browsers.Release(1)
	}
	browser, err := s.launcher.Launch(ctx, s.launchOptions())
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, categorizeError(cerr, models.ErrCodeEngineLaunch, "failed to launch browser")
		}
		if !errors.Is(err, engine.ErrLaunch) {
			return nil, categorizeError(err, models.ErrCodeNavigation, "failed to start browser session")
		}
		return nil, models.NewScrapeError(models.ErrCodeEngineLaunch, "failed to launch browser", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			slog.Debug("browser close failed", "url", rawURL, "error", cerr)
		}
	}()

	// ── 2. New page ───────────────────────────────────────────────────
	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "failed to create tab")
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			slog.Debug("page close failed", "url", rawURL, "error", cerr)
		}
	}()

	// ── 3. Navigate ───────────────────────────────────────────────────
	if err := page.Navigate(ctx, rawURL, timeout); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "failed to navigate")
	}

	// ── 4. Settle ─────────────────────────────────────────────────────
	if !sleepCtx(ctx, s.browserCfg.SettleDelay) {
		return nil, categorizeError(ctx.Err(), models.ErrCodeNavigation, "interrupted while waiting for page to settle")
	}

	// ── 5. Extract ────────────────────────────────────────────────────
	value, err := page.Evaluate(ctx, extractScript)
	if err == nil {
		if ex, ok := decodeExtraction(value); ok {
			return cleaner.BuildContent(rawURL, ex.Title, *ex.Content, ex.PublishedDate, ex.Author), nil
		}
		slog.Debug("extraction returned no usable value, trying body text", "url", rawURL)
	} else {
		if ctx.Err() != nil {
			return nil, categorizeError(err, models.ErrCodeExtraction, "failed to extract content")
		}
		slog.Debug("extraction script failed, trying body text", "url", rawURL, "error", err)
	}

	// ── 6. Body fallback ──────────────────────────────────────────────
	return bodyFallback(ctx, page, rawURL)
}

// bodyFallback reads only document.body.innerText and document.title.
func bodyFallback(ctx context.Context, page engine.Page, rawURL string) (*models.ScrapedContent, error) {
	value, err := page.Evaluate(ctx, bodyTextScript)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeExtraction, "fallback extraction failed")
	}
	text, ok := value.Val().(string)
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeExtraction,
			"no value returned from extraction and fallback failed", nil)
	}

	title := ""
	if v, err := page.Evaluate(ctx, titleScript); err == nil {
		title, _ = v.Val().(string)
	}
	return cleaner.BuildContent(rawURL, title, text, nil, nil), nil
}

// launchOptions builds the options for one launch. Install-path discovery
// runs on every call against a fresh environment snapshot.
func (s *Scraper) launchOptions() engine.LaunchOptions {
	bin := s.browserCfg.BrowserBin
	if bin == "" {
		if found, ok := engine.LocateRenderer(s.env(), s.goos, s.exists); ok {
			bin = found
		}
	}
	return engine.LaunchOptions{
		Bin:                  bin,
		Headless:             s.browserCfg.Headless,
		NoSandbox:            s.browserCfg.NoSandbox,
		Proxy:                s.browserCfg.Proxy,
		Stealth:              s.browserCfg.Stealth,
		BlockedResourceTypes: s.browserCfg.BlockedResourceTypes,
		BlockAds:             s.browserCfg.BlockAds,
	}
}

// categorizeError wraps raw errors into typed ScrapeErrors. Deadline errors
// become ATTEMPT_TIMEOUT and cancellations CANCELED; everything else gets
// the given code.
func categorizeError(err error, code, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeAttemptTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeCanceled, "request canceled", err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}
