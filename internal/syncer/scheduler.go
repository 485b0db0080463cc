package syncer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/pkg/logger"
)

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job is the pollable state of one fire-and-forget sync submission.
type Job struct {
	ID             string     `json:"jobId"`
	SupplierID     int        `json:"supplierId"`
	Status         string     `json:"status"`
	ProductsSynced int        `json:"productsSynced"`
	Error          string     `json:"error,omitempty"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Scheduler owns the periodic sync loop and ad-hoc job submissions. Submitted
// jobs run in the background; callers poll by job id.
type Scheduler struct {
	service  *Service
	interval time.Duration
	log      logger.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewScheduler(service *Service, interval time.Duration, writer io.Writer) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		log:      logger.NewLogger(writer, "[SyncScheduler]"),
		jobs:     make(map[string]*Job),
	}
}

// Run executes the periodic full sync until ctx is cancelled. The first run
// starts after one interval; startup syncs are triggered explicitly.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Log("Sync loop stopped: %s", ctx.Err())
			return
		case <-ticker.C:
			if err := s.service.SyncAll(ctx); err != nil {
				s.log.Log("Scheduled sync failed: %s", err)
			}
		}
	}
}

// Submit queues one supplier sync and returns its job id immediately.
func (s *Scheduler) Submit(ctx context.Context, supplier models.Supplier) *Job {
	job := &Job{
		ID:          uuid.NewString(),
		SupplierID:  supplier.ID,
		Status:      JobQueued,
		SubmittedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	// The job outlives the request that submitted it.
	go s.execute(context.WithoutCancel(ctx), job, supplier)
	return job
}

func (s *Scheduler) execute(ctx context.Context, job *Job, supplier models.Supplier) {
	s.setStatus(job.ID, func(j *Job) { j.Status = JobRunning })

	count, err := s.service.SyncSupplier(ctx, supplier)
	now := time.Now()
	s.setStatus(job.ID, func(j *Job) {
		j.ProductsSynced = count
		j.CompletedAt = &now
		if err != nil {
			j.Status = JobFailed
			j.Error = err.Error()
			return
		}
		j.Status = JobSucceeded
	})
	if err != nil {
		s.log.Log("Job %s for supplier %d failed: %s", job.ID, supplier.ID, err)
	}
}

// JobStatus returns a snapshot of one job, or nil for an unknown id.
func (s *Scheduler) JobStatus(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

func (s *Scheduler) setStatus(id string, update func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		update(job)
	}
}
