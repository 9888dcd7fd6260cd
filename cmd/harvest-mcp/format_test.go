package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/harvest/models"
)

func TestFormatContent(t *testing.T) {
	author := "Ada"
	out := formatContent(&models.ScrapedContent{
		URL:     "https://example.com",
		Title:   "Hello",
		Content: "one two",
		Metadata: models.ContentMetadata{
			Author:    &author,
			Domain:    "example.com",
			WordCount: 2,
		},
	})

	assert.Contains(t, out, "Title: Hello\nSource: https://example.com\nAuthor: Ada\n")
	assert.NotContains(t, out, "Published:")
	assert.Contains(t, out, "Words: 2\n\none two")
}

func TestFormatBatch(t *testing.T) {
	urls := []string{"https://a.example.com", "ftp://b"}
	results := []models.ScrapeResult{
		models.Succeeded(&models.ScrapedContent{URL: urls[0], Title: "A", Content: "x"}, 1),
		models.Failed(models.ErrCodeInvalidURL, "invalid URL: only http and https schemes are allowed", 0),
	}

	out := formatBatch(urls, results)

	assert.Contains(t, out, "## [1] https://a.example.com")
	assert.Contains(t, out, "## [2] ftp://b\n\nError: [INVALID_URL] invalid URL")
	assert.Contains(t, out, "Scraped 1/2 URLs successfully")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-3, 0, 10))
	assert.Equal(t, 10, clamp(99, 0, 10))
	assert.Equal(t, 4, clamp(4, 0, 10))
}
