package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment status constants
const (
	InstallmentStatusDraft     = "draft"
	InstallmentStatusPending   = "pending"
	InstallmentStatusDueSoon   = "due_soon"
	InstallmentStatusOverdue   = "overdue"
	InstallmentStatusPartial   = "partial"
	InstallmentStatusPaid      = "paid"
	InstallmentStatusCancelled = "cancelled"
)

// Installment represents one scheduled payment within a payment plan.
// The student owes the agency by StudentDueDate; the agency owes the
// college by CollegeDueDate (typically earlier, offset by the lead time).
// Rows are never deleted, only status-transitioned.
type Installment struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	AgencyID            uint             `gorm:"not null;index" json:"agency_id"`
	PaymentPlanID       uint             `gorm:"not null;index;uniqueIndex:idx_installments_plan_number" json:"payment_plan_id"`
	InstallmentNumber   int              `gorm:"not null;uniqueIndex:idx_installments_plan_number" json:"installment_number"`
	Amount              decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	StudentDueDate      time.Time        `gorm:"type:date;not null;index" json:"student_due_date"`
	CollegeDueDate      time.Time        `gorm:"type:date;not null;index" json:"college_due_date"`
	IsInitialPayment    bool             `gorm:"not null;default:false" json:"is_initial_payment"`
	GeneratesCommission bool             `gorm:"not null;default:true" json:"generates_commission"`
	Status              string           `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PaidDate            *time.Time       `gorm:"type:date" json:"paid_date"`
	PaidAmount          *decimal.Decimal `gorm:"type:decimal(12,2)" json:"paid_amount"`
	Notes               *string          `gorm:"type:text" json:"notes"`
	LockVersion         int              `gorm:"not null;default:0" json:"-"`
	CreatedAt           time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`

	// Associations
	PaymentPlan PaymentPlan `gorm:"foreignKey:PaymentPlanID" json:"payment_plan,omitempty"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// IsTerminal returns true once the installment can never transition again
func (i *Installment) IsTerminal() bool {
	return i.Status == InstallmentStatusPaid || i.Status == InstallmentStatusCancelled
}

// MayRecordPayment returns true if a payment can be recorded against the installment
func (i *Installment) MayRecordPayment() bool {
	switch i.Status {
	case InstallmentStatusPending, InstallmentStatusDueSoon, InstallmentStatusOverdue, InstallmentStatusPartial:
		return true
	}
	return false
}

// MayCancel returns true if the installment can be cancelled
func (i *Installment) MayCancel() bool {
	return !i.IsTerminal()
}

// OutstandingBalance returns the amount still owed on the installment
func (i *Installment) OutstandingBalance() decimal.Decimal {
	if i.PaidAmount == nil {
		return i.Amount
	}
	return i.Amount.Sub(*i.PaidAmount)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID                 uint             `json:"id"`
	PaymentPlanID      uint             `json:"payment_plan_id"`
	InstallmentNumber  int              `json:"installment_number"`
	Amount             decimal.Decimal  `json:"amount"`
	StudentDueDate     string           `json:"student_due_date"`
	CollegeDueDate     string           `json:"college_due_date"`
	IsInitialPayment   bool             `json:"is_initial_payment"`
	GeneratesCommission bool            `json:"generates_commission"`
	Status             string           `json:"status"`
	PaidDate           *string          `json:"paid_date"`
	PaidAmount         *decimal.Decimal `json:"paid_amount"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	Notes              *string          `json:"notes,omitempty"`
}

const dateLayout = "2006-01-02"

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	resp := InstallmentResponse{
		ID:                 i.ID,
		PaymentPlanID:      i.PaymentPlanID,
		InstallmentNumber:  i.InstallmentNumber,
		Amount:             i.Amount,
		StudentDueDate:     i.StudentDueDate.Format(dateLayout),
		CollegeDueDate:     i.CollegeDueDate.Format(dateLayout),
		IsInitialPayment:   i.IsInitialPayment,
		GeneratesCommission: i.GeneratesCommission,
		Status:             i.Status,
		PaidAmount:         i.PaidAmount,
		OutstandingBalance: i.OutstandingBalance(),
		Notes:              i.Notes,
	}
	if i.PaidDate != nil {
		d := i.PaidDate.Format(dateLayout)
		resp.PaidDate = &d
	}
	return resp
}
