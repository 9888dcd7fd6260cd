package main

import (
	"fmt"
	"strings"

	"github.com/use-agent/harvest/models"
)

// formatContent renders a page as a short metadata header followed by the
// content.
func formatContent(c *models.ScrapedContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nSource: %s\n", c.Title, c.URL)
	if c.Metadata.Author != nil {
		fmt.Fprintf(&b, "Author: %s\n", *c.Metadata.Author)
	}
	if c.Metadata.PublishedDate != nil {
		fmt.Fprintf(&b, "Published: %s\n", *c.Metadata.PublishedDate)
	}
	fmt.Fprintf(&b, "Words: %d\n\n", c.Metadata.WordCount)
	b.WriteString(c.Content)
	return b.String()
}

func formatFailure(r models.ScrapeResult) string {
	return fmt.Sprintf("[%s] %s", r.Code, r.Error)
}

// formatBatch renders results in input order with a summary line.
func formatBatch(urls []string, results []models.ScrapeResult) string {
	succeeded := 0
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "## [%d] %s\n\n", i+1, urls[i])
		if r.Success {
			succeeded++
			b.WriteString(formatContent(r.Content))
		} else {
			b.WriteString("Error: " + formatFailure(r))
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "---\nScraped %d/%d URLs successfully", succeeded, len(results))
	return b.String()
}
