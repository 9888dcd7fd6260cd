package models

// Defaults shared by the API, the MCP tools and the scraper.
const (
	DefaultTimeoutMs     = 45000
	DefaultMaxRetries    = 3
	DefaultMaxConcurrent = 5
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required.
	URL string `json:"url" binding:"required"`

	// TimeoutMs bounds each attempt; the whole retry sequence gets
	// TimeoutMs plus a fixed grace period. Default: 45000.
	TimeoutMs int `json:"timeout_ms,omitempty" binding:"omitempty,min=1"`

	// MaxRetries is the total number of attempts. Default: 3.
	MaxRetries int `json:"max_retries,omitempty" binding:"omitempty,min=1,max=10"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.TimeoutMs <= 0 {
		r.TimeoutMs = DefaultTimeoutMs
	}
	if r.MaxRetries <= 0 {
		r.MaxRetries = DefaultMaxRetries
	}
}

// BatchRequest is the payload for POST /api/v1/batch and POST /api/v1/batch/jobs.
type BatchRequest struct {
	// URLs is the list of target pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1"`

	TimeoutMs     int `json:"timeout_ms,omitempty" binding:"omitempty,min=1"`
	MaxRetries    int `json:"max_retries,omitempty" binding:"omitempty,min=1,max=10"`
	MaxConcurrent int `json:"max_concurrent,omitempty" binding:"omitempty,min=1,max=50"`

	// WebhookURL receives a batch.completed event (jobs only).
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *BatchRequest) Defaults() {
	if r.TimeoutMs <= 0 {
		r.TimeoutMs = DefaultTimeoutMs
	}
	if r.MaxRetries <= 0 {
		r.MaxRetries = DefaultMaxRetries
	}
	if r.MaxConcurrent <= 0 {
		r.MaxConcurrent = DefaultMaxConcurrent
	}
}
