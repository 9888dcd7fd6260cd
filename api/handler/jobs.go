package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/harvest/models"
)

// DefaultJobTTL is how long batch jobs stay queryable after creation.
const DefaultJobTTL = time.Hour

// batchJob is one asynchronous batch. Results are filled slot by slot as
// URLs finish.
type batchJob struct {
	mu        sync.Mutex
	id        string
	status    string
	completed int
	results   []models.ScrapeResult
	createdAt time.Time
}

func (j *batchJob) record(idx int, r models.ScrapeResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = r
	j.completed++
}

func (j *batchJob) finish(results []models.ScrapeResult) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	copy(j.results, results)
	j.completed = len(results)
	j.status = models.JobStatus(results)
	return j.status
}

// snapshot returns the job state. Results are included only once the job
// has finished, so every listed result is complete.
func (j *batchJob) snapshot() models.BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	resp := models.BatchStatusResponse{
		ID:        j.id,
		Status:    j.status,
		Completed: j.completed,
		Total:     len(j.results),
	}
	if j.status != models.JobProcessing {
		resp.Results = append([]models.ScrapeResult(nil), j.results...)
	}
	return resp
}

// JobStore holds in-flight and finished batch jobs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*batchJob
	ttl  time.Duration
	now  func() time.Time
}

// NewJobStore creates a JobStore whose jobs expire after ttl.
func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{jobs: make(map[string]*batchJob), ttl: ttl, now: time.Now}
}

func (s *JobStore) create(total int) *batchJob {
	j := &batchJob{
		id:        "batch-" + uuid.NewString(),
		status:    models.JobProcessing,
		results:   make([]models.ScrapeResult, total),
		createdAt: s.now(),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	return j
}

func (s *JobStore) get(id string) (*batchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Sweep removes expired jobs and returns how many were removed.
func (s *JobStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if j.createdAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Run sweeps expired jobs every interval until ctx is done.
func (s *JobStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired batch jobs removed", "count", n)
			}
		}
	}
}
