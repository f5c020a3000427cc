package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edupay/edupay-api/internal/jobs"
	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
)

// SweepHealth reports whether the daily sweep is running on schedule
type SweepHealth struct {
	Healthy           bool             `json:"healthy"`
	Reason            string           `json:"reason,omitempty"`
	LastSuccessfulRun *models.JobRun   `json:"last_successful_run,omitempty"`
	StaleAfterHours   int              `json:"stale_after_hours"`
	Worker            jobs.WorkerStats `json:"worker"`
}

// JobService exposes background-job observability: worker pool statistics,
// sweep run history and a staleness check over the latest successful sweep.
type JobService struct {
	repos           *repository.Repositories
	worker          *jobs.Worker
	staleAfterHours int
}

// NewJobService creates a new job service. staleAfterHours bounds how old
// the latest successful sweep may be before health reports degraded.
func NewJobService(repos *repository.Repositories, worker *jobs.Worker, staleAfterHours int) *JobService {
	return &JobService{repos: repos, worker: worker, staleAfterHours: staleAfterHours}
}

// WorkerStats returns a snapshot of the worker pool
func (s *JobService) WorkerStats() jobs.WorkerStats {
	return s.worker.GetStats()
}

// SweepHealth checks the latest successful sweep against the staleness
// window. A sweep that has never run, or whose last success is older than
// the window, reports unhealthy so a missed run is caught within a day.
func (s *JobService) SweepHealth(ctx context.Context) (*SweepHealth, error) {
	health := &SweepHealth{
		StaleAfterHours: s.staleAfterHours,
		Worker:          s.worker.GetStats(),
	}

	last, err := s.repos.JobRun.FindLatestSuccessful(ctx, models.JobNameStatusSweep)
	if err != nil {
		return nil, err
	}
	if last == nil {
		health.Reason = "status sweep has never completed"
		return health, nil
	}

	health.LastSuccessfulRun = last
	age := time.Since(*last.CompletedAt)
	if age > time.Duration(s.staleAfterHours)*time.Hour {
		health.Reason = fmt.Sprintf("last successful sweep was %.0f hours ago", age.Hours())
		return health, nil
	}
	if last.AgenciesFailed > 0 {
		health.Reason = fmt.Sprintf("last sweep had %d failed agencies", last.AgenciesFailed)
		return health, nil
	}

	health.Healthy = true
	return health, nil
}

// ListRuns returns recent job executions, optionally filtered by job name
func (s *JobService) ListRuns(ctx context.Context, jobName string, limit int) ([]models.JobRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.JobRun.List(ctx, jobName, limit)
}
