package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/webhook"
)

// Batch returns a handler for POST /api/v1/batch. It scrapes all URLs and
// responds once every result is known, in input order.
func Batch(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindBatch(c, sc)
		if !ok {
			return
		}

		results := sc.ScrapeAll(c.Request.Context(), req.URLs, batchOptions(req))

		resp := models.BatchResponse{Results: results, Total: len(results)}
		for _, r := range results {
			if r.Success {
				resp.Succeeded++
			} else {
				resp.Failed++
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PostBatchJob returns a handler for POST /api/v1/batch/jobs. It creates a
// job, scrapes in the background and answers immediately with the job ID.
// If webhook_url is set, a batch.completed event is delivered at the end.
func PostBatchJob(sc *scraper.Scraper, store *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindBatch(c, sc)
		if !ok {
			return
		}

		job := store.create(len(req.URLs))
		go runBatchJob(sc, job, req)

		c.JSON(http.StatusAccepted, models.BatchJobResponse{
			ID:     job.id,
			Status: models.JobProcessing,
			Total:  len(req.URLs),
		})
	}
}

// GetBatchJob returns a handler for GET /api/v1/batch/jobs/:id.
func GetBatchJob(store *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.NewErrorResponse(models.ErrCodeNotFound, "batch job not found"))
			return
		}
		c.JSON(http.StatusOK, job.snapshot())
	}
}

// runBatchJob detaches from the request: the job outlives the HTTP call.
func runBatchJob(sc *scraper.Scraper, job *batchJob, req models.BatchRequest) {
	opts := batchOptions(req)
	opts.OnResult = job.record

	start := time.Now()
	results := sc.ScrapeAll(context.Background(), req.URLs, opts)
	status := job.finish(results)

	slog.Info("batch job finished",
		"id", job.id,
		"status", status,
		"total", len(results),
		"duration", time.Since(start),
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret,
			webhook.NewEvent(webhook.EventBatchCompleted, job.id, job.snapshot()))
	}
}

func bindBatch(c *gin.Context, sc *scraper.Scraper) (models.BatchRequest, bool) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, err.Error())
		return req, false
	}
	if limit := sc.MaxBatchSize(); limit > 0 && len(req.URLs) > limit {
		abortInvalid(c, fmt.Sprintf("maximum %d URLs per batch", limit))
		return req, false
	}
	req.Defaults()
	return req, true
}

func batchOptions(req models.BatchRequest) scraper.Options {
	return scraper.Options{
		Timeout:       time.Duration(req.TimeoutMs) * time.Millisecond,
		MaxRetries:    req.MaxRetries,
		MaxConcurrent: req.MaxConcurrent,
	}
}
