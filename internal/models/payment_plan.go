package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan status constants
const (
	PlanStatusDraft     = "draft"
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"
)

// PaymentPlan represents the financial agreement behind an enrollment:
// the total course value, deductible pass-through fees, and the commission
// the agency expects to earn. Amounts are immutable once installments have
// been generated; only status moves after that.
type PaymentPlan struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	GUID                  string          `gorm:"size:36;uniqueIndex;not null" json:"guid"`
	AgencyID              uint            `gorm:"not null;index" json:"agency_id"`
	EnrollmentID          uint            `gorm:"not null;index" json:"enrollment_id"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency              string          `gorm:"size:3;not null;default:'AUD'" json:"currency"`
	CommissionRatePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate_percent"`
	GSTInclusive          bool            `gorm:"not null;default:true" json:"gst_inclusive"`
	MaterialsCost         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"materials_cost"`
	AdminFees             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"admin_fees"`
	OtherFees             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"other_fees"`
	CommissionableValue   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commissionable_value"`
	ExpectedCommission    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"expected_commission"`
	Status                string          `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	// Associations
	Agency       Agency        `gorm:"foreignKey:AgencyID" json:"-"`
	Enrollment   Enrollment    `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
	Installments []Installment `gorm:"foreignKey:PaymentPlanID" json:"installments,omitempty"`
}

// TableName specifies the table name for PaymentPlan
func (PaymentPlan) TableName() string {
	return "payment_plans"
}

// MayConfirm returns true if the plan can be confirmed (draft → active)
func (p *PaymentPlan) MayConfirm() bool {
	return p.Status == PlanStatusDraft
}

// MayCancel returns true if the plan can be cancelled
func (p *PaymentPlan) MayCancel() bool {
	return p.Status == PlanStatusDraft || p.Status == PlanStatusActive
}

// PaymentPlanResponse is the JSON response format for payment plans
type PaymentPlanResponse struct {
	ID                    uint                  `json:"id"`
	GUID                  string                `json:"guid"`
	EnrollmentID          uint                  `json:"enrollment_id"`
	TotalAmount           decimal.Decimal       `json:"total_amount"`
	Currency              string                `json:"currency"`
	CommissionRatePercent decimal.Decimal       `json:"commission_rate_percent"`
	GSTInclusive          bool                  `json:"gst_inclusive"`
	MaterialsCost         decimal.Decimal       `json:"materials_cost"`
	AdminFees             decimal.Decimal       `json:"admin_fees"`
	OtherFees             decimal.Decimal       `json:"other_fees"`
	CommissionableValue   decimal.Decimal       `json:"commissionable_value"`
	ExpectedCommission    decimal.Decimal       `json:"expected_commission"`
	Status                string                `json:"status"`
	StudentName           string                `json:"student_name,omitempty"`
	CollegeName           string                `json:"college_name,omitempty"`
	CourseName            string                `json:"course_name,omitempty"`
	Installments          []InstallmentResponse `json:"installments,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// ToResponse converts PaymentPlan to PaymentPlanResponse
func (p *PaymentPlan) ToResponse() PaymentPlanResponse {
	resp := PaymentPlanResponse{
		ID:                    p.ID,
		GUID:                  p.GUID,
		EnrollmentID:          p.EnrollmentID,
		TotalAmount:           p.TotalAmount,
		Currency:              p.Currency,
		CommissionRatePercent: p.CommissionRatePercent,
		GSTInclusive:          p.GSTInclusive,
		MaterialsCost:         p.MaterialsCost,
		AdminFees:             p.AdminFees,
		OtherFees:             p.OtherFees,
		CommissionableValue:   p.CommissionableValue,
		ExpectedCommission:    p.ExpectedCommission,
		Status:                p.Status,
		CreatedAt:             p.CreatedAt,
	}

	if p.Enrollment.ID != 0 {
		resp.CollegeName = p.Enrollment.CollegeName
		resp.CourseName = p.Enrollment.CourseName
		if p.Enrollment.Student.ID != 0 {
			resp.StudentName = p.Enrollment.Student.FullName()
		}
	}

	for i := range p.Installments {
		resp.Installments = append(resp.Installments, p.Installments[i].ToResponse())
	}

	return resp
}
