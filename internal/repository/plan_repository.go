package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
)

// PlanRepository defines the interface for payment plan data access
type PlanRepository interface {
	FindByID(ctx context.Context, agencyID, id uint) (*models.PaymentPlan, error)
	FindByIDWithInstallments(ctx context.Context, agencyID, id uint) (*models.PaymentPlan, error)
	CreateWithInstallments(ctx context.Context, plan *models.PaymentPlan, installments []models.Installment) error
	Update(ctx context.Context, plan *models.PaymentPlan) error
	List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.PaymentPlan, int64, error)
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new payment plan repository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) FindByID(ctx context.Context, agencyID, id uint) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) FindByIDWithInstallments(ctx context.Context, agencyID, id uint) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Preload("Enrollment.Student").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateWithInstallments persists the plan and its generated installments
// in a single transaction so a schedule is never half-saved.
func (r *planRepository) CreateWithInstallments(ctx context.Context, plan *models.PaymentPlan, installments []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].PaymentPlanID = plan.ID
			installments[i].AgencyID = plan.AgencyID
		}
		if len(installments) > 0 {
			if err := tx.Create(&installments).Error; err != nil {
				return err
			}
		}
		plan.Installments = installments
		return nil
	})
}

func (r *planRepository) Update(ctx context.Context, plan *models.PaymentPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *planRepository) List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.PaymentPlan, int64, error) {
	var plans []models.PaymentPlan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PaymentPlan{}).Where("payment_plans.agency_id = ?", agencyID)

	if query.Filters != nil {
		if val := query.Filters["status_in"]; val != "" {
			statuses := strings.Split(val, ",")
			for i, s := range statuses {
				statuses[i] = strings.TrimSpace(s)
			}
			db = db.Where("payment_plans.status IN ?", statuses)
		} else if val := query.Filters["status"]; val != "" {
			db = db.Where("payment_plans.status = ?", val)
		}
		if val := query.Filters["enrollment_id"]; val != "" {
			db = db.Where("payment_plans.enrollment_id = ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN enrollments ON enrollments.id = payment_plans.enrollment_id").
			Joins("LEFT JOIN students ON students.id = enrollments.student_id").
			Where("students.first_name ILIKE ? OR students.last_name ILIKE ? OR enrollments.college_name ILIKE ? OR payment_plans.guid ILIKE ?",
				search, search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := "payment_plans." + query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("payment_plans.created_at DESC")
	}

	err := db.Offset(query.offset()).Limit(query.PerPage).
		Preload("Enrollment.Student").
		Find(&plans).Error
	return plans, total, err
}
