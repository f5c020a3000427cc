package services

import (
	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
	// GST divisor for Australian GST-exclusive commission: 10% tax is
	// stripped from the commissionable base before the rate applies.
	gstDivisor = decimal.RequireFromString("1.1")
)

// CommissionInput holds the inputs for a commission calculation
type CommissionInput struct {
	TotalCourseValue      decimal.Decimal `json:"total_course_value"`
	MaterialsCost         decimal.Decimal `json:"materials_cost"`
	AdminFees             decimal.Decimal `json:"admin_fees"`
	OtherFees             decimal.Decimal `json:"other_fees"`
	CommissionRatePercent decimal.Decimal `json:"commission_rate_percent"`
	GSTInclusive          bool            `json:"gst_inclusive"`
}

// CommissionResult holds the derived commission figures
type CommissionResult struct {
	CommissionableValue decimal.Decimal `json:"commissionable_value"`
	ExpectedCommission  decimal.Decimal `json:"expected_commission"`
}

// CommissionService computes commissionable value and expected commission.
// Pure calculation, no I/O.
type CommissionService struct{}

// NewCommissionService creates a new commission service
func NewCommissionService() *CommissionService {
	return &CommissionService{}
}

// Calculate derives the commissionable value (course value net of
// pass-through fees) and the expected commission.
//
// GST handling: when the commission rate applies to GST-inclusive values
// the rate is taken directly against the commissionable value. Otherwise
// the commissionable value is divided by 1.1 first, removing the 10% GST
// component from the base. Fees are always deducted before the GST
// adjustment. Results are rounded half-up to cents.
func (s *CommissionService) Calculate(in CommissionInput) (*CommissionResult, error) {
	if in.TotalCourseValue.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("total_course_value", "must be greater than zero")
	}
	for _, fee := range []struct {
		field string
		value decimal.Decimal
	}{
		{"materials_cost", in.MaterialsCost},
		{"admin_fees", in.AdminFees},
		{"other_fees", in.OtherFees},
	} {
		if fee.value.IsNegative() {
			return nil, NewValidationError(fee.field, "cannot be negative")
		}
	}
	if in.CommissionRatePercent.IsNegative() {
		return nil, NewValidationError("commission_rate_percent", "cannot be negative")
	}
	if in.CommissionRatePercent.GreaterThan(oneHundred) {
		return nil, NewValidationError("commission_rate_percent", "cannot exceed 100")
	}

	commissionable := in.TotalCourseValue.
		Sub(in.MaterialsCost).
		Sub(in.AdminFees).
		Sub(in.OtherFees)
	if commissionable.IsNegative() {
		return nil, NewValidationError("total_course_value", "deductible fees exceed the total course value")
	}

	base := commissionable
	if !in.GSTInclusive {
		base = commissionable.Div(gstDivisor)
	}

	commission := base.Mul(in.CommissionRatePercent).Div(oneHundred)

	return &CommissionResult{
		CommissionableValue: commissionable.Round(2),
		ExpectedCommission:  commission.Round(2),
	}, nil
}
