package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/statemachine"
	"github.com/edupay/edupay-api/pkg/logger"
)

// RecordPaymentInput holds the inputs for recording a payment against an installment
type RecordPaymentInput struct {
	Amount   decimal.Decimal
	PaidDate time.Time
	Notes    *string
	UserID   *uint
}

// InstallmentService handles payment reconciliation and installment lifecycle.
// Mutations run through a compare-and-swap on lock_version inside a single
// transaction shared with the audit write, so two concurrent payments against
// the same installment can never both apply.
type InstallmentService struct {
	db    *gorm.DB
	repos *repository.Repositories
	audit *AuditService
}

// NewInstallmentService creates a new installment service
func NewInstallmentService(db *gorm.DB, repos *repository.Repositories, audit *AuditService) *InstallmentService {
	return &InstallmentService{db: db, repos: repos, audit: audit}
}

// GetInstallment retrieves a single installment scoped to the agency
func (s *InstallmentService) GetInstallment(ctx context.Context, agencyID, id uint) (*models.Installment, error) {
	installment, err := s.repos.Installment.FindByID(ctx, agencyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return installment, err
}

// ListInstallments retrieves installments for an agency with filters
func (s *InstallmentService) ListInstallments(ctx context.Context, agencyID uint, query *repository.ListQuery) ([]models.Installment, int64, error) {
	return s.repos.Installment.List(ctx, agencyID, query)
}

// paymentApplication is the computed effect of one payment: the accumulated
// paid amount, the paid date and the audit entry to write alongside the row
// update. The installment itself carries the resulting status.
type paymentApplication struct {
	NewPaid  decimal.Decimal
	PaidDate time.Time
	Audit    *models.AuditLog
}

// applyPayment validates a payment against the installment's current state
// and advances the installment in memory: a payment that settles the full
// amount fires the paid transition, anything less fires partial and keeps
// accumulating. Persistence is the caller's job.
func applyPayment(ctx context.Context, installment *models.Installment, agencyID uint, in RecordPaymentInput) (*paymentApplication, error) {
	if !installment.MayRecordPayment() {
		return nil, fmt.Errorf("%w: cannot record payment on %s installment", ErrInvalidState, installment.Status)
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("amount", "must be greater than zero")
	}
	if in.PaidDate.IsZero() {
		return nil, NewValidationError("paid_date", "is required")
	}
	if truncateToDay(in.PaidDate).After(truncateToDay(time.Now())) {
		return nil, NewValidationError("paid_date", "cannot be in the future")
	}

	outstanding := installment.OutstandingBalance()
	if in.Amount.GreaterThan(outstanding) {
		return nil, NewValidationError("amount",
			fmt.Sprintf("payment exceeds outstanding balance of %s", outstanding.StringFixed(2)))
	}

	oldStatus := installment.Status
	var oldPaid decimal.Decimal
	if installment.PaidAmount != nil {
		oldPaid = *installment.PaidAmount
	}
	newPaid := oldPaid.Add(in.Amount)

	fsm := statemachine.NewInstallmentFSM(installment)
	var err error
	if newPaid.Equal(installment.Amount) {
		err = fsm.RecordPaid(ctx)
	} else {
		err = fsm.RecordPartial(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	paidDate := truncateToDay(in.PaidDate)
	return &paymentApplication{
		NewPaid:  newPaid,
		PaidDate: paidDate,
		Audit: &models.AuditLog{
			AgencyID:   agencyID,
			EntityType: "installment",
			EntityID:   installment.ID,
			Action:     models.AuditActionPayment,
			UserID:     in.UserID,
			Changes: models.FieldChanges{
				"status":      {Old: oldStatus, New: installment.Status},
				"paid_amount": {Old: oldPaid.StringFixed(2), New: newPaid.StringFixed(2)},
			},
			Metadata: models.Metadata{
				"amount":    in.Amount.StringFixed(2),
				"paid_date": paidDate.Format("2006-01-02"),
			},
		},
	}, nil
}

// RecordPayment applies a payment to an installment. A payment covering the
// outstanding balance moves the installment to paid; anything less moves it
// to partial and accumulates into paid_amount. Overpayment is rejected, the
// caller must split the surplus onto another installment explicitly.
//
// When the payment settles the last open installment of the plan, the plan
// itself completes within the same transaction.
func (s *InstallmentService) RecordPayment(ctx context.Context, agencyID, id uint, in RecordPaymentInput) (*models.Installment, error) {
	installment, err := s.GetInstallment(ctx, agencyID, id)
	if err != nil {
		return nil, err
	}

	app, err := applyPayment(ctx, installment, agencyID, in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":       installment.Status,
			"paid_amount":  app.NewPaid,
			"paid_date":    app.PaidDate,
			"lock_version": installment.LockVersion + 1,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}

		res := tx.Model(&models.Installment{}).
			Where("id = ? AND agency_id = ? AND lock_version = ?", installment.ID, agencyID, installment.LockVersion).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := s.audit.LogTx(tx, app.Audit); err != nil {
			return err
		}

		if installment.Status == models.InstallmentStatusPaid {
			return s.completePlanIfSettled(tx, agencyID, installment.PaymentPlanID, in.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	installment.PaidAmount = &app.NewPaid
	installment.PaidDate = &app.PaidDate
	installment.LockVersion++
	if in.Notes != nil {
		installment.Notes = in.Notes
	}
	return installment, nil
}

// CancelInstallment moves a non-terminal installment to cancelled
func (s *InstallmentService) CancelInstallment(ctx context.Context, agencyID, id uint, userID *uint, reason string) (*models.Installment, error) {
	installment, err := s.GetInstallment(ctx, agencyID, id)
	if err != nil {
		return nil, err
	}

	oldStatus := installment.Status
	fsm := statemachine.NewInstallmentFSM(installment)
	if err := fsm.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Installment{}).
			Where("id = ? AND agency_id = ? AND lock_version = ?", installment.ID, agencyID, installment.LockVersion).
			Updates(map[string]any{
				"status":       installment.Status,
				"lock_version": installment.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		metadata := models.Metadata{}
		if reason != "" {
			metadata["reason"] = reason
		}
		return s.audit.LogTx(tx, StatusChangeEntry(
			agencyID, "installment", installment.ID, oldStatus, installment.Status, userID, metadata))
	})
	if err != nil {
		return nil, err
	}

	installment.LockVersion++
	return installment, nil
}

// completePlanIfSettled completes the plan once every installment is paid or
// cancelled. Runs inside the payment's transaction.
func (s *InstallmentService) completePlanIfSettled(tx *gorm.DB, agencyID, planID uint, userID *uint) error {
	var open int64
	err := tx.Model(&models.Installment{}).
		Where("payment_plan_id = ? AND status NOT IN ?", planID,
			[]string{models.InstallmentStatusPaid, models.InstallmentStatusCancelled}).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	res := tx.Model(&models.PaymentPlan{}).
		Where("id = ? AND agency_id = ? AND status = ?", planID, agencyID, models.PlanStatusActive).
		Update("status", models.PlanStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Plan was not active (draft payments or an already-completed plan);
		// nothing to audit.
		return nil
	}

	logger.Info(fmt.Sprintf("[Installments] Payment plan %d completed", planID))
	return s.audit.LogTx(tx, StatusChangeEntry(
		agencyID, "payment_plan", planID, models.PlanStatusActive, models.PlanStatusCompleted, userID,
		models.Metadata{"trigger": "final_installment_paid"}))
}
