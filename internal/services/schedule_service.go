package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edupay/edupay-api/internal/models"
)

// Payment frequency constants
const (
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
)

// GenerateScheduleInput holds the wizard inputs for schedule generation
type GenerateScheduleInput struct {
	TotalCourseValue      decimal.Decimal
	InitialPaymentAmount  decimal.Decimal
	InitialPaymentDueDate time.Time
	InitialPaymentPaid    bool
	NumberOfInstallments  int    // remaining installments, after the initial payment
	PaymentFrequency      string // weekly|monthly|quarterly
	FirstCollegeDueDate   time.Time
	StudentLeadTimeDays   int
	CourseStartDate       time.Time
	CourseEndDate         time.Time

	// Installment numbers excluded from commission (pure fee collections)
	NonCommissionInstallments map[int]bool
}

// ScheduleResult carries the generated installment drafts plus any
// non-fatal warnings the caller should surface.
type ScheduleResult struct {
	Installments []models.Installment
	Warnings     []string
}

// ScheduleService builds the installment schedule for a payment plan
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// Generate builds the ordered installment list: installment #0 is the
// initial payment, installments #1..#N spread the remaining amount at the
// configured frequency. The base amount is the remaining amount floor-divided
// by N to cents; the final installment absorbs the rounding remainder so the
// schedule always sums exactly to the total course value.
//
// All installments come back in draft status; confirmation flips them to
// pending atomically.
func (s *ScheduleService) Generate(ctx context.Context, in GenerateScheduleInput) (*ScheduleResult, error) {
	if in.TotalCourseValue.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("total_course_value", "must be greater than zero")
	}
	if in.InitialPaymentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("initial_payment_amount", "must be greater than zero")
	}
	if in.InitialPaymentDueDate.IsZero() {
		return nil, NewValidationError("initial_payment_due_date", "is required")
	}
	if in.StudentLeadTimeDays < 0 {
		return nil, NewValidationError("student_lead_time_days", "cannot be negative")
	}

	remaining := in.TotalCourseValue.Sub(in.InitialPaymentAmount)
	if remaining.IsNegative() {
		return nil, NewValidationError("initial_payment_amount", "exceeds the total course value")
	}
	if remaining.IsPositive() {
		if in.NumberOfInstallments < 1 {
			return nil, NewValidationError("number_of_installments", "at least one installment is required for the remaining amount")
		}
		switch in.PaymentFrequency {
		case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		default:
			return nil, NewValidationError("payment_frequency", fmt.Sprintf("unknown frequency %q", in.PaymentFrequency))
		}
		if in.FirstCollegeDueDate.IsZero() {
			return nil, NewValidationError("first_college_due_date", "is required")
		}
	} else if in.NumberOfInstallments > 0 {
		return nil, NewValidationError("number_of_installments", "must be zero when the initial payment covers the full amount")
	}

	result := &ScheduleResult{}

	// Installment #0: the initial payment. Its college due date backs off
	// by the lead time; when the initial payment was already collected the
	// college date is clamped so it never lands in the past.
	initialCollegeDue := in.InitialPaymentDueDate.AddDate(0, 0, -in.StudentLeadTimeDays)
	if in.InitialPaymentPaid {
		today := truncateToDay(time.Now())
		if initialCollegeDue.Before(today) {
			initialCollegeDue = today
		}
	}
	result.Installments = append(result.Installments, models.Installment{
		InstallmentNumber:   0,
		Amount:              in.InitialPaymentAmount.Round(2),
		StudentDueDate:      truncateToDay(in.InitialPaymentDueDate),
		CollegeDueDate:      truncateToDay(initialCollegeDue),
		IsInitialPayment:    true,
		GeneratesCommission: !in.NonCommissionInstallments[0],
		Status:              models.InstallmentStatusDraft,
	})

	if remaining.IsZero() {
		return result, nil
	}

	n := in.NumberOfInstallments
	base := remaining.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	if base.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("number_of_installments", "produces installments below one cent")
	}
	// The last installment absorbs the rounding remainder so the schedule
	// reconciles exactly to the total course value.
	last := remaining.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))

	for k := 1; k <= n; k++ {
		collegeDue := stepDueDate(in.FirstCollegeDueDate, in.PaymentFrequency, k-1)
		studentDue := collegeDue.AddDate(0, 0, in.StudentLeadTimeDays)

		amount := base
		if k == n {
			amount = last
		}

		result.Installments = append(result.Installments, models.Installment{
			InstallmentNumber:   k,
			Amount:              amount,
			StudentDueDate:      truncateToDay(studentDue),
			CollegeDueDate:      truncateToDay(collegeDue),
			GeneratesCommission: !in.NonCommissionInstallments[k],
			Status:              models.InstallmentStatusDraft,
		})
	}

	if !in.CourseEndDate.IsZero() {
		final := result.Installments[len(result.Installments)-1]
		if final.StudentDueDate.After(in.CourseEndDate) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"final installment due %s falls after the course end date %s",
				final.StudentDueDate.Format("2006-01-02"),
				in.CourseEndDate.Format("2006-01-02")))
		}
	}

	return result, nil
}

// stepDueDate advances the first college due date by `steps` periods of
// the given frequency. Month and quarter steps preserve the day-of-month,
// clamping to the last day of shorter months (Jan 31 + 1 month = Feb 28/29),
// instead of letting date normalization spill into the next month.
func stepDueDate(first time.Time, frequency string, steps int) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return first.AddDate(0, 0, 7*steps)
	case FrequencyQuarterly:
		return addMonthsClamped(first, 3*steps)
	default: // monthly
		return addMonthsClamped(first, steps)
	}
}

// addMonthsClamped adds calendar months, clamping the day-of-month to the
// target month's length.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	anchor := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysInMonth(anchor.Year(), anchor.Month()); d > last {
		d = last
	}
	return time.Date(anchor.Year(), anchor.Month(), d, 0, 0, 0, 0, t.Location())
}

// daysInMonth returns the number of days in the given month
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// truncateToDay drops the time-of-day component
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
