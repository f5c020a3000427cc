package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/statemachine"
	"github.com/edupay/edupay-api/pkg/logger"
)

// statusRank orders the day-based ladder. The sweep only ever moves an
// installment up the ladder; a candidate whose computed target ranks at or
// below its current status is left untouched, which makes reruns idempotent.
var statusRank = map[string]int{
	models.InstallmentStatusPending: 0,
	models.InstallmentStatusDueSoon: 1,
	models.InstallmentStatusOverdue: 2,
}

// SweepSummary reports the outcome of one daily sweep run
type SweepSummary struct {
	JobRunID          uint     `json:"job_run_id"`
	AgenciesProcessed int      `json:"agencies_processed"`
	AgenciesFailed    int      `json:"agencies_failed"`
	RecordsUpdated    int      `json:"records_updated"`
	Errors            []string `json:"errors,omitempty"`
}

// SweepService runs the daily status sweep: for every agency it evaluates
// pending and due_soon installments on active plans against the agency's
// local calendar and moves them along the pending → due_soon → overdue
// ladder. One agency's failure never blocks the others.
type SweepService struct {
	db    *gorm.DB
	repos *repository.Repositories
	audit *AuditService
}

// NewSweepService creates a new sweep service
func NewSweepService(db *gorm.DB, repos *repository.Repositories, audit *AuditService) *SweepService {
	return &SweepService{db: db, repos: repos, audit: audit}
}

// RunDailySweep executes the sweep across all agencies, or a single agency
// when agencyID is non-nil. Every run is recorded as a JobRun row; partial
// failures complete the run with per-agency errors attached.
func (s *SweepService) RunDailySweep(ctx context.Context, agencyID *uint) (*SweepSummary, error) {
	run := &models.JobRun{
		JobName:   models.JobNameStatusSweep,
		StartedAt: time.Now().UTC(),
		Status:    models.JobRunStatusRunning,
	}
	if err := s.repos.JobRun.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("recording sweep start: %w", err)
	}

	summary := &SweepSummary{JobRunID: run.ID}

	agencies, err := s.resolveAgencies(ctx, agencyID)
	if err != nil {
		s.finalizeRun(ctx, run, summary, err)
		return summary, err
	}

	for i := range agencies {
		agency := &agencies[i]
		updated, err := s.sweepAgency(ctx, agency)
		summary.RecordsUpdated += updated
		if err != nil {
			summary.AgenciesFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("agency %d: %v", agency.ID, err))
			logger.Error(fmt.Sprintf("[Sweep] Agency %d failed: %v", agency.ID, err))
			continue
		}
		summary.AgenciesProcessed++
	}

	s.finalizeRun(ctx, run, summary, nil)
	logger.Info(fmt.Sprintf("[Sweep] Completed: %d agencies, %d failed, %d installments updated",
		summary.AgenciesProcessed, summary.AgenciesFailed, summary.RecordsUpdated))
	return summary, nil
}

func (s *SweepService) resolveAgencies(ctx context.Context, agencyID *uint) ([]models.Agency, error) {
	if agencyID == nil {
		return s.repos.Agency.FindAll(ctx)
	}
	agency, err := s.repos.Agency.FindByID(ctx, *agencyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: agency %d", ErrNotFound, *agencyID)
	}
	if err != nil {
		return nil, err
	}
	return []models.Agency{*agency}, nil
}

func (s *SweepService) finalizeRun(ctx context.Context, run *models.JobRun, summary *SweepSummary, fatal error) {
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.RecordsUpdated = summary.RecordsUpdated
	run.AgenciesProcessed = summary.AgenciesProcessed
	run.AgenciesFailed = summary.AgenciesFailed

	switch {
	case fatal != nil:
		run.Status = models.JobRunStatusFailed
		msg := fatal.Error()
		run.ErrorMessage = &msg
	case len(summary.Errors) > 0:
		// Per-agency failures do not fail the run; the errors are kept
		// for the health endpoint.
		run.Status = models.JobRunStatusCompleted
		msg := fmt.Sprintf("%d agencies failed: %s", summary.AgenciesFailed, summary.Errors[0])
		run.ErrorMessage = &msg
	default:
		run.Status = models.JobRunStatusCompleted
	}

	if err := s.repos.JobRun.Update(ctx, run); err != nil {
		logger.Error(fmt.Sprintf("[Sweep] Failed to finalize job run %d: %v", run.ID, err))
	}
}

// sweepAgency evaluates one agency's candidates in its local timezone
func (s *SweepService) sweepAgency(ctx context.Context, agency *models.Agency) (int, error) {
	loc, err := agency.Location()
	if err != nil {
		return 0, err
	}
	cutoffSecs, err := agency.CutoffClock()
	if err != nil {
		return 0, err
	}

	nowLocal := time.Now().In(loc)
	today := truncateToDay(nowLocal)
	nowSecs := nowLocal.Hour()*3600 + nowLocal.Minute()*60 + nowLocal.Second()

	candidates, err := s.repos.Installment.FindSweepCandidates(ctx, agency.ID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range candidates {
		inst := &candidates[i]
		target := classifyStatus(inst.StudentDueDate, today, nowSecs, cutoffSecs, agency.DueSoonDays())
		if statusRank[target] <= statusRank[inst.Status] {
			continue
		}
		if err := s.transition(ctx, agency.ID, inst, target); err != nil {
			if errors.Is(err, ErrConflict) {
				// Someone recorded a payment mid-sweep; the row is no
				// longer ours to move.
				logger.Warn(fmt.Sprintf("[Sweep] Installment %d changed concurrently, skipping", inst.ID))
				continue
			}
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// classifyStatus computes the target status for a due date evaluated at a
// moment in the agency's local day. The due date is date-only: an
// installment becomes overdue on any day after its due date, or on the due
// date itself once local time is strictly past the agency's cutoff clock.
// At the exact cutoff second the installment is still due_soon.
func classifyStatus(dueDate, today time.Time, nowSecs, cutoffSecs, dueSoonDays int) string {
	due := truncateToDay(dueDate)

	if due.Before(today) {
		return models.InstallmentStatusOverdue
	}
	if due.Equal(today) {
		if nowSecs > cutoffSecs {
			return models.InstallmentStatusOverdue
		}
		return models.InstallmentStatusDueSoon
	}

	if daysBetween(today, due) <= dueSoonDays {
		return models.InstallmentStatusDueSoon
	}
	return models.InstallmentStatusPending
}

// daysBetween counts calendar days from a to b. Both are rebuilt as UTC
// dates first so DST shifts in the agency's timezone cannot skew the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// transition applies one sweep transition with the optimistic lock and the
// system audit entry in a single transaction.
func (s *SweepService) transition(ctx context.Context, agencyID uint, inst *models.Installment, target string) error {
	oldStatus := inst.Status

	fsm := statemachine.NewInstallmentFSM(inst)
	var err error
	switch target {
	case models.InstallmentStatusDueSoon:
		err = fsm.MarkDueSoon(ctx)
	case models.InstallmentStatusOverdue:
		err = fsm.MarkOverdue(ctx)
	default:
		return fmt.Errorf("unexpected sweep target %q", target)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Installment{}).
			Where("id = ? AND lock_version = ?", inst.ID, inst.LockVersion).
			Updates(map[string]any{
				"status":       inst.Status,
				"lock_version": inst.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		inst.LockVersion++

		// UserID nil marks the entry as a system action
		return s.audit.LogTx(tx, StatusChangeEntry(
			agencyID, "installment", inst.ID, oldStatus, inst.Status, nil,
			models.Metadata{
				"job":              models.JobNameStatusSweep,
				"student_due_date": inst.StudentDueDate.Format("2006-01-02"),
			}))
	})
}
