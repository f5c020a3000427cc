package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
)

// InstallmentRepository defines the interface for installment data access.
// Status mutations go through the services' transactional paths so the
// audit write always shares the installment update's transaction; this
// interface covers reads.
type InstallmentRepository interface {
	FindByID(ctx context.Context, agencyID, id uint) (*models.Installment, error)
	FindByPlan(ctx context.Context, agencyID, planID uint) ([]models.Installment, error)
	FindSweepCandidates(ctx context.Context, agencyID uint) ([]models.Installment, error)
	List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Installment, int64, error)
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByID(ctx context.Context, agencyID, id uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Preload("PaymentPlan").
		First(&installment, id).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) FindByPlan(ctx context.Context, agencyID, planID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND payment_plan_id = ?", agencyID, planID).
		Order("installment_number ASC").
		Find(&installments).Error
	return installments, err
}

// FindSweepCandidates returns every installment the daily sweep must
// evaluate for an agency: pending or due_soon rows on active plans.
func (r *installmentRepository) FindSweepCandidates(ctx context.Context, agencyID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Joins("JOIN payment_plans ON payment_plans.id = installments.payment_plan_id").
		Where("installments.agency_id = ?", agencyID).
		Where("installments.status IN ?", []string{models.InstallmentStatusPending, models.InstallmentStatusDueSoon}).
		Where("payment_plans.status = ?", models.PlanStatusActive).
		Order("installments.student_due_date ASC, installments.id ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Installment, int64, error) {
	var installments []models.Installment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Installment{}).Where("installments.agency_id = ?", agencyID)

	if query.Filters != nil {
		if val := query.Filters["status"]; val != "" {
			db = db.Where("installments.status = ?", val)
		}
		if val := query.Filters["plan_id"]; val != "" {
			db = db.Where("installments.payment_plan_id = ?", val)
		}
		if val := query.Filters["due_from"]; val != "" {
			db = db.Where("installments.student_due_date >= ?", val)
		}
		if val := query.Filters["due_to"]; val != "" {
			db = db.Where("installments.student_due_date <= ?", val)
		}
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("installments.student_due_date ASC, installments.id ASC").
		Offset(query.offset()).Limit(query.PerPage).
		Preload("PaymentPlan").
		Find(&installments).Error
	return installments, total, err
}
