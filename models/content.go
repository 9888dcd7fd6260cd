package models

// ScrapedContent is one successfully extracted page.
type ScrapedContent struct {
	// URL is the input URL exactly as supplied.
	URL string `json:"url"`

	// Title is the whitespace-collapsed page title, "Untitled" when absent.
	Title string `json:"title"`

	// Content is the normalized main-body text.
	Content string `json:"content"`

	Metadata ContentMetadata `json:"metadata"`
}

// ContentMetadata holds page-level information discovered during extraction.
type ContentMetadata struct {
	PublishedDate *string `json:"publishedDate,omitempty"`
	Author        *string `json:"author,omitempty"`

	// Domain is the host of URL, or "unknown".
	Domain string `json:"domain"`

	// WordCount is always derived from the final normalized Content.
	WordCount int `json:"wordCount"`
}

// ScrapeResult is the outcome envelope for exactly one URL.
// Exactly one of Content and Error is set.
type ScrapeResult struct {
	Success bool            `json:"success"`
	Content *ScrapedContent `json:"content,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Code is the error taxonomy code of a failed result.
	Code string `json:"code,omitempty"`

	// Attempts is the number of scrape attempts consumed.
	Attempts int `json:"attempts"`
}

// Succeeded builds a successful envelope.
func Succeeded(content *ScrapedContent, attempts int) ScrapeResult {
	return ScrapeResult{Success: true, Content: content, Attempts: attempts}
}

// Failed builds a failed envelope.
func Failed(code, message string, attempts int) ScrapeResult {
	return ScrapeResult{Success: false, Error: message, Code: code, Attempts: attempts}
}
