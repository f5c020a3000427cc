package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/statemachine"
	"github.com/edupay/edupay-api/pkg/logger"
)

// CreatePlanInput holds the wizard inputs for creating a payment plan
// with its installment schedule.
type CreatePlanInput struct {
	EnrollmentID          uint
	TotalCourseValue      decimal.Decimal
	Currency              string
	CommissionRatePercent decimal.Decimal
	GSTInclusive          bool
	MaterialsCost         decimal.Decimal
	AdminFees             decimal.Decimal
	OtherFees             decimal.Decimal

	InitialPaymentAmount  decimal.Decimal
	InitialPaymentDueDate time.Time
	InitialPaymentPaid    bool
	NumberOfInstallments  int
	PaymentFrequency      string
	FirstCollegeDueDate   time.Time
	StudentLeadTimeDays   int

	NonCommissionInstallments map[int]bool

	UserID *uint
}

// CreatePlanResult carries the created plan plus schedule warnings
type CreatePlanResult struct {
	Plan     *models.PaymentPlan
	Warnings []string
}

// PlanService orchestrates payment plan creation and lifecycle. Creation
// runs the commission calculation and the schedule generation, then persists
// plan and installments atomically; the plan stays in draft until confirmed.
type PlanService struct {
	db         *gorm.DB
	repos      *repository.Repositories
	commission *CommissionService
	schedule   *ScheduleService
	audit      *AuditService
}

// NewPlanService creates a new payment plan service
func NewPlanService(db *gorm.DB, repos *repository.Repositories, commission *CommissionService, schedule *ScheduleService, audit *AuditService) *PlanService {
	return &PlanService{
		db:         db,
		repos:      repos,
		commission: commission,
		schedule:   schedule,
		audit:      audit,
	}
}

// CreatePlan validates the enrollment, derives the commission figures,
// generates the installment schedule and persists everything in one
// transaction. The plan comes back in draft status with draft installments.
func (s *PlanService) CreatePlan(ctx context.Context, agencyID uint, in CreatePlanInput) (*CreatePlanResult, error) {
	enrollment, err := s.repos.Enrollment.FindByID(ctx, agencyID, in.EnrollmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: enrollment %d", ErrNotFound, in.EnrollmentID)
	}
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusWithdrawn {
		return nil, NewValidationError("enrollment_id", "cannot create a plan for a withdrawn enrollment")
	}

	commission, err := s.commission.Calculate(CommissionInput{
		TotalCourseValue:      in.TotalCourseValue,
		MaterialsCost:         in.MaterialsCost,
		AdminFees:             in.AdminFees,
		OtherFees:             in.OtherFees,
		CommissionRatePercent: in.CommissionRatePercent,
		GSTInclusive:          in.GSTInclusive,
	})
	if err != nil {
		return nil, err
	}

	scheduleResult, err := s.schedule.Generate(ctx, GenerateScheduleInput{
		TotalCourseValue:          in.TotalCourseValue,
		InitialPaymentAmount:      in.InitialPaymentAmount,
		InitialPaymentDueDate:     in.InitialPaymentDueDate,
		InitialPaymentPaid:        in.InitialPaymentPaid,
		NumberOfInstallments:      in.NumberOfInstallments,
		PaymentFrequency:          in.PaymentFrequency,
		FirstCollegeDueDate:       in.FirstCollegeDueDate,
		StudentLeadTimeDays:       in.StudentLeadTimeDays,
		CourseStartDate:           enrollment.CourseStartDate,
		CourseEndDate:             enrollment.CourseEndDate,
		NonCommissionInstallments: in.NonCommissionInstallments,
	})
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "AUD"
	}

	plan := &models.PaymentPlan{
		GUID:                  uuid.New().String(),
		AgencyID:              agencyID,
		EnrollmentID:          enrollment.ID,
		TotalAmount:           in.TotalCourseValue.Round(2),
		Currency:              currency,
		CommissionRatePercent: in.CommissionRatePercent,
		GSTInclusive:          in.GSTInclusive,
		MaterialsCost:         in.MaterialsCost.Round(2),
		AdminFees:             in.AdminFees.Round(2),
		OtherFees:             in.OtherFees.Round(2),
		CommissionableValue:   commission.CommissionableValue,
		ExpectedCommission:    commission.ExpectedCommission,
		Status:                models.PlanStatusDraft,
	}

	if err := s.repos.Plan.CreateWithInstallments(ctx, plan, scheduleResult.Installments); err != nil {
		return nil, err
	}

	if err := s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   agencyID,
		EntityType: "payment_plan",
		EntityID:   plan.ID,
		Action:     models.AuditActionCreate,
		UserID:     in.UserID,
		Metadata: models.Metadata{
			"guid":         plan.GUID,
			"total_amount": plan.TotalAmount.StringFixed(2),
			"installments": len(scheduleResult.Installments),
		},
	}); err != nil {
		logger.Error(fmt.Sprintf("[Plans] Audit write failed for plan %d: %v", plan.ID, err))
	}

	plan.Enrollment = *enrollment
	logger.Info(fmt.Sprintf("[Plans] Created plan %s with %d installments", plan.GUID, len(scheduleResult.Installments)))

	return &CreatePlanResult{Plan: plan, Warnings: scheduleResult.Warnings}, nil
}

// GetPlan retrieves a plan with its installments, scoped to the agency
func (s *PlanService) GetPlan(ctx context.Context, agencyID, id uint) (*models.PaymentPlan, error) {
	plan, err := s.repos.Plan.FindByIDWithInstallments(ctx, agencyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return plan, err
}

// ListPlans retrieves plans for an agency with filters and pagination
func (s *PlanService) ListPlans(ctx context.Context, agencyID uint, query *repository.ListQuery) ([]models.PaymentPlan, int64, error) {
	return s.repos.Plan.List(ctx, agencyID, query)
}

// ConfirmPlan activates a draft plan: the plan moves to active and every
// draft installment moves to pending, all in one transaction so a plan is
// never half-confirmed.
func (s *PlanService) ConfirmPlan(ctx context.Context, agencyID, id uint, userID *uint) (*models.PaymentPlan, error) {
	plan, err := s.GetPlan(ctx, agencyID, id)
	if err != nil {
		return nil, err
	}
	if !plan.MayConfirm() {
		return nil, fmt.Errorf("%w: cannot confirm %s plan", ErrInvalidState, plan.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentPlan{}).
			Where("id = ? AND agency_id = ? AND status = ?", plan.ID, agencyID, models.PlanStatusDraft).
			Update("status", models.PlanStatusActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		for i := range plan.Installments {
			inst := &plan.Installments[i]
			fsm := statemachine.NewInstallmentFSM(inst)
			if err := fsm.Confirm(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
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
		}

		return s.audit.LogTx(tx, StatusChangeEntry(
			agencyID, "payment_plan", plan.ID, models.PlanStatusDraft, models.PlanStatusActive, userID, nil))
	})
	if err != nil {
		return nil, err
	}

	plan.Status = models.PlanStatusActive
	logger.Info(fmt.Sprintf("[Plans] Confirmed plan %s", plan.GUID))
	return plan, nil
}

// CancelPlan cancels a draft or active plan along with every non-terminal
// installment. Paid installments keep their history untouched.
func (s *PlanService) CancelPlan(ctx context.Context, agencyID, id uint, userID *uint, reason string) (*models.PaymentPlan, error) {
	plan, err := s.GetPlan(ctx, agencyID, id)
	if err != nil {
		return nil, err
	}
	if !plan.MayCancel() {
		return nil, fmt.Errorf("%w: cannot cancel %s plan", ErrInvalidState, plan.Status)
	}

	oldStatus := plan.Status
	metadata := models.Metadata{}
	if reason != "" {
		metadata["reason"] = reason
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentPlan{}).
			Where("id = ? AND agency_id = ? AND status = ?", plan.ID, agencyID, oldStatus).
			Update("status", models.PlanStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		for i := range plan.Installments {
			inst := &plan.Installments[i]
			if !inst.MayCancel() {
				continue
			}
			instOldStatus := inst.Status
			fsm := statemachine.NewInstallmentFSM(inst)
			if err := fsm.Cancel(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
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

			if err := s.audit.LogTx(tx, StatusChangeEntry(
				agencyID, "installment", inst.ID, instOldStatus, inst.Status, userID, metadata)); err != nil {
				return err
			}
		}

		return s.audit.LogTx(tx, StatusChangeEntry(
			agencyID, "payment_plan", plan.ID, oldStatus, models.PlanStatusCancelled, userID, metadata))
	})
	if err != nil {
		return nil, err
	}

	plan.Status = models.PlanStatusCancelled
	logger.Info(fmt.Sprintf("[Plans] Cancelled plan %s", plan.GUID))
	return plan, nil
}
