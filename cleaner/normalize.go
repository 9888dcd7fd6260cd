package cleaner

import (
	"net/url"
	"strings"

	"github.com/use-agent/harvest/models"
)

// UnknownDomain is reported when a URL has no parseable host.
const UnknownDomain = "unknown"

// DefaultTitle replaces a missing or blank page title.
const DefaultTitle = "Untitled"

// NormalizeText collapses every whitespace run into a single space and trims
// both ends. It is idempotent.
func NormalizeText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// DomainOf returns the host component of rawURL, or UnknownDomain.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return UnknownDomain
	}
	return u.Hostname()
}

// BuildContent assembles a ScrapedContent record from raw extraction output.
//
// Title and text are normalized, blank optional metadata becomes nil, and
// WordCount is computed from the normalized content.
func BuildContent(sourceURL, title, text string, publishedDate, author *string) *models.ScrapedContent {
	content := NormalizeText(text)

	t := NormalizeText(title)
	if t == "" {
		t = DefaultTitle
	}

	return &models.ScrapedContent{
		URL:     sourceURL,
		Title:   t,
		Content: content,
		Metadata: models.ContentMetadata{
			PublishedDate: optional(publishedDate),
			Author:        optional(author),
			Domain:        DomainOf(sourceURL),
			WordCount:     WordCount(content),
		},
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := NormalizeText(*s)
	if v == "" {
		return nil
	}
	return &v
}
