package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
)

// JobRunRepository defines the interface for job execution records
type JobRunRepository interface {
	Create(ctx context.Context, run *models.JobRun) error
	Update(ctx context.Context, run *models.JobRun) error
	FindLatestSuccessful(ctx context.Context, jobName string) (*models.JobRun, error)
	List(ctx context.Context, jobName string, limit int) ([]models.JobRun, error)
}

type jobRunRepository struct {
	db *gorm.DB
}

// NewJobRunRepository creates a new job run repository
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Create(ctx context.Context, run *models.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *jobRunRepository) Update(ctx context.Context, run *models.JobRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindLatestSuccessful returns the most recent completed run of a job,
// or nil if the job has never completed.
func (r *jobRunRepository) FindLatestSuccessful(ctx context.Context, jobName string) (*models.JobRun, error) {
	var run models.JobRun
	err := r.db.WithContext(ctx).
		Where("job_name = ? AND status = ?", jobName, models.JobRunStatusCompleted).
		Order("completed_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *jobRunRepository) List(ctx context.Context, jobName string, limit int) ([]models.JobRun, error) {
	var runs []models.JobRun
	db := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if jobName != "" {
		db = db.Where("job_name = ?", jobName)
	}
	err := db.Find(&runs).Error
	return runs, err
}
