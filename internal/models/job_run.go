package models

import "time"

// Job run status constants
const (
	JobRunStatusRunning   = "running"
	JobRunStatusCompleted = "completed"
	JobRunStatusFailed    = "failed"
)

// Job name constants
const (
	JobNameStatusSweep = "installment_status_sweep"
)

// JobRun records one execution of a scheduled job. The health endpoint
// reads the latest successful run to detect missed sweeps.
type JobRun struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	JobName           string     `gorm:"size:64;not null;index" json:"job_name"`
	StartedAt         time.Time  `gorm:"not null;index" json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	Status            string     `gorm:"size:20;not null;default:'running'" json:"status"`
	RecordsUpdated    int        `gorm:"not null;default:0" json:"records_updated"`
	AgenciesProcessed int        `gorm:"not null;default:0" json:"agencies_processed"`
	AgenciesFailed    int        `gorm:"not null;default:0" json:"agencies_failed"`
	ErrorMessage      *string    `gorm:"type:text" json:"error_message"`
	CreatedAt         time.Time  `json:"created_at"`
}

// TableName specifies the table name for JobRun
func (JobRun) TableName() string {
	return "job_runs"
}
