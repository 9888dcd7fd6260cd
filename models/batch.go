package models

// Batch job states.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobPartial    = "partial"
	JobFailed     = "failed"
)

// BatchResponse is the response for the synchronous POST /api/v1/batch.
type BatchResponse struct {
	Results   []ScrapeResult `json:"results"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// BatchJobResponse is the immediate response for POST /api/v1/batch/jobs.
type BatchJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/jobs/:id.
type BatchStatusResponse struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Results   []ScrapeResult `json:"results,omitempty"`
}

// JobStatus derives the final job state from per-URL outcomes.
func JobStatus(results []ScrapeResult) string {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	switch {
	case len(results) > 0 && failed == len(results):
		return JobFailed
	case failed > 0:
		return JobPartial
	default:
		return JobCompleted
	}
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "degraded"
	Uptime  string       `json:"uptime"`
	Scraper ScraperStats `json:"scraper"`
	Version string       `json:"version"`
}

// ScraperStats reports the scraper's current load.
type ScraperStats struct {
	ActiveScrapes   int  `json:"active_scrapes"`
	RendererEnabled bool `json:"renderer_enabled"`
}
