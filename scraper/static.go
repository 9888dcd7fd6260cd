package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/models"
)

// FetchStatic performs a single GET and builds content from the raw markup.
// The title is a naive scan for the first <title> element and the content is
// the whole response body with whitespace collapsed. No tags are stripped.
func (s *Scraper) FetchStatic(ctx context.Context, rawURL string, timeout time.Duration) (*models.ScrapedContent, error) {
	if verr := validateURL(rawURL); verr != nil {
		return nil, verr
	}
	resp, err := s.fetcher.Get(ctx, rawURL, nil, timeout)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeHTTP, "request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewScrapeError(models.ErrCodeHTTP,
			fmt.Sprintf("request failed with status %d", resp.StatusCode), nil)
	}

	body := string(resp.Body)
	return cleaner.BuildContent(rawURL, naiveTitle(body), body, nil, nil), nil
}

// naiveTitle returns the text between the first "<title" tag and the
// following "</title>", matched case-insensitively. Attributes on the
// opening tag are skipped. It returns "" when either tag is missing.
func naiveTitle(html string) string {
	start := indexFold(html, "<title")
	if start < 0 {
		return ""
	}
	rest := html[start+len("<title"):]
	gt := indexFold(rest, ">")
	if gt < 0 {
		return ""
	}
	rest = rest[gt+1:]
	end := indexFold(rest, "</title>")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// indexFold is strings.Index with ASCII case folding. Byte offsets refer to
// s unchanged, unlike indexing into strings.ToLower(s).
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if asciiEqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
