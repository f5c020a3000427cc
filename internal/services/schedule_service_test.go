package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupay/edupay-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sumAmounts(installments []models.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}

func TestScheduleService_Generate(t *testing.T) {
	svc := NewScheduleService()
	ctx := context.Background()

	t.Run("monthly schedule with remainder on the final installment", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("10000"),
			InitialPaymentAmount:  dec("1500"),
			InitialPaymentDueDate: day(2026, time.March, 1),
			NumberOfInstallments:  3,
			PaymentFrequency:      FrequencyMonthly,
			FirstCollegeDueDate:   day(2026, time.April, 15),
			StudentLeadTimeDays:   14,
		})
		require.NoError(t, err)
		require.Len(t, result.Installments, 4)

		// 8500 / 3 = 2833.33 floor; final absorbs the remainder
		assert.Equal(t, "1500.00", result.Installments[0].Amount.StringFixed(2))
		assert.Equal(t, "2833.33", result.Installments[1].Amount.StringFixed(2))
		assert.Equal(t, "2833.33", result.Installments[2].Amount.StringFixed(2))
		assert.Equal(t, "2833.34", result.Installments[3].Amount.StringFixed(2))

		assert.True(t, sumAmounts(result.Installments).Equal(dec("10000")))

		// Numbering is contiguous from zero; only #0 is the initial payment
		for i, inst := range result.Installments {
			assert.Equal(t, i, inst.InstallmentNumber)
			assert.Equal(t, i == 0, inst.IsInitialPayment)
			assert.Equal(t, models.InstallmentStatusDraft, inst.Status)
		}

		// College dates advance monthly, student dates trail by the lead time
		assert.Equal(t, day(2026, time.April, 15), result.Installments[1].CollegeDueDate)
		assert.Equal(t, day(2026, time.April, 29), result.Installments[1].StudentDueDate)
		assert.Equal(t, day(2026, time.May, 15), result.Installments[2].CollegeDueDate)
		assert.Equal(t, day(2026, time.June, 15), result.Installments[3].CollegeDueDate)
	})

	t.Run("month-end dates clamp instead of spilling over", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("5000"),
			InitialPaymentAmount:  dec("1000"),
			InitialPaymentDueDate: day(2026, time.January, 10),
			NumberOfInstallments:  4,
			PaymentFrequency:      FrequencyMonthly,
			FirstCollegeDueDate:   day(2026, time.January, 31),
		})
		require.NoError(t, err)
		require.Len(t, result.Installments, 5)

		assert.Equal(t, day(2026, time.January, 31), result.Installments[1].CollegeDueDate)
		assert.Equal(t, day(2026, time.February, 28), result.Installments[2].CollegeDueDate)
		assert.Equal(t, day(2026, time.March, 31), result.Installments[3].CollegeDueDate)
		assert.Equal(t, day(2026, time.April, 30), result.Installments[4].CollegeDueDate)
	})

	t.Run("weekly schedule steps seven days", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("2000"),
			InitialPaymentAmount:  dec("500"),
			InitialPaymentDueDate: day(2026, time.February, 1),
			NumberOfInstallments:  3,
			PaymentFrequency:      FrequencyWeekly,
			FirstCollegeDueDate:   day(2026, time.February, 10),
		})
		require.NoError(t, err)
		require.Len(t, result.Installments, 4)

		assert.Equal(t, day(2026, time.February, 10), result.Installments[1].CollegeDueDate)
		assert.Equal(t, day(2026, time.February, 17), result.Installments[2].CollegeDueDate)
		assert.Equal(t, day(2026, time.February, 24), result.Installments[3].CollegeDueDate)
	})

	t.Run("quarterly schedule steps three months with clamping", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("9000"),
			InitialPaymentAmount:  dec("3000"),
			InitialPaymentDueDate: day(2026, time.October, 1),
			NumberOfInstallments:  2,
			PaymentFrequency:      FrequencyQuarterly,
			FirstCollegeDueDate:   day(2026, time.November, 30),
		})
		require.NoError(t, err)
		require.Len(t, result.Installments, 3)

		assert.Equal(t, day(2026, time.November, 30), result.Installments[1].CollegeDueDate)
		// Nov 30 + 3 months clamps to Feb 28
		assert.Equal(t, day(2027, time.February, 28), result.Installments[2].CollegeDueDate)
	})

	t.Run("initial payment covering the full amount yields a single installment", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("3000"),
			InitialPaymentAmount:  dec("3000"),
			InitialPaymentDueDate: day(2026, time.May, 1),
			NumberOfInstallments:  0,
		})
		require.NoError(t, err)
		require.Len(t, result.Installments, 1)
		assert.True(t, result.Installments[0].IsInitialPayment)
		assert.True(t, sumAmounts(result.Installments).Equal(dec("3000")))
	})

	t.Run("initial payment college date backs off by the lead time", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("4000"),
			InitialPaymentAmount:  dec("4000"),
			InitialPaymentDueDate: day(2026, time.June, 20),
			StudentLeadTimeDays:   10,
		})
		require.NoError(t, err)
		assert.Equal(t, day(2026, time.June, 10), result.Installments[0].CollegeDueDate)
		assert.Equal(t, day(2026, time.June, 20), result.Installments[0].StudentDueDate)
	})

	t.Run("non-commission installments are flagged", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("6000"),
			InitialPaymentAmount:  dec("2000"),
			InitialPaymentDueDate: day(2026, time.March, 1),
			NumberOfInstallments:  2,
			PaymentFrequency:      FrequencyMonthly,
			FirstCollegeDueDate:   day(2026, time.April, 1),
			NonCommissionInstallments: map[int]bool{
				0: true,
				2: true,
			},
		})
		require.NoError(t, err)
		assert.False(t, result.Installments[0].GeneratesCommission)
		assert.True(t, result.Installments[1].GeneratesCommission)
		assert.False(t, result.Installments[2].GeneratesCommission)
	})

	t.Run("warns when the final installment lands after the course end", func(t *testing.T) {
		result, err := svc.Generate(ctx, GenerateScheduleInput{
			TotalCourseValue:      dec("5000"),
			InitialPaymentAmount:  dec("1000"),
			InitialPaymentDueDate: day(2026, time.January, 5),
			NumberOfInstallments:  6,
			PaymentFrequency:      FrequencyMonthly,
			FirstCollegeDueDate:   day(2026, time.February, 1),
			CourseEndDate:         day(2026, time.May, 1),
		})
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "course end date")
	})
}

func TestScheduleService_GenerateValidation(t *testing.T) {
	svc := NewScheduleService()
	ctx := context.Background()

	tests := []struct {
		name          string
		input         GenerateScheduleInput
		expectedField string
	}{
		{
			name: "zero total",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("0"),
				InitialPaymentAmount:  dec("100"),
				InitialPaymentDueDate: day(2026, time.March, 1),
			},
			expectedField: "total_course_value",
		},
		{
			name: "zero initial payment",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("0"),
				InitialPaymentDueDate: day(2026, time.March, 1),
			},
			expectedField: "initial_payment_amount",
		},
		{
			name: "initial payment exceeds total",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("1500"),
				InitialPaymentDueDate: day(2026, time.March, 1),
			},
			expectedField: "initial_payment_amount",
		},
		{
			name: "missing initial due date",
			input: GenerateScheduleInput{
				TotalCourseValue:     dec("1000"),
				InitialPaymentAmount: dec("200"),
			},
			expectedField: "initial_payment_due_date",
		},
		{
			name: "remaining amount without installments",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("200"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				NumberOfInstallments:  0,
			},
			expectedField: "number_of_installments",
		},
		{
			name: "unknown frequency",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("200"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				NumberOfInstallments:  2,
				PaymentFrequency:      "fortnightly",
				FirstCollegeDueDate:   day(2026, time.April, 1),
			},
			expectedField: "payment_frequency",
		},
		{
			name: "missing first college due date",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("200"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				NumberOfInstallments:  2,
				PaymentFrequency:      FrequencyMonthly,
			},
			expectedField: "first_college_due_date",
		},
		{
			name: "installments when nothing remains",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("1000"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				NumberOfInstallments:  2,
			},
			expectedField: "number_of_installments",
		},
		{
			name: "negative lead time",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("1000"),
				InitialPaymentAmount:  dec("200"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				StudentLeadTimeDays:   -1,
			},
			expectedField: "student_lead_time_days",
		},
		{
			name: "too many installments for the remaining cents",
			input: GenerateScheduleInput{
				TotalCourseValue:      dec("100.01"),
				InitialPaymentAmount:  dec("100"),
				InitialPaymentDueDate: day(2026, time.March, 1),
				NumberOfInstallments:  5,
				PaymentFrequency:      FrequencyWeekly,
				FirstCollegeDueDate:   day(2026, time.April, 1),
			},
			expectedField: "number_of_installments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Generate(ctx, tt.input)
			require.Error(t, err)
			assert.Nil(t, result)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.expectedField, ve.Field)
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{"Jan 31 + 1 month clamps to Feb 28", day(2026, time.January, 31), 1, day(2026, time.February, 28)},
		{"Jan 31 + 1 month in a leap year clamps to Feb 29", day(2028, time.January, 31), 1, day(2028, time.February, 29)},
		{"Jan 31 + 2 months lands on Mar 31", day(2026, time.January, 31), 2, day(2026, time.March, 31)},
		{"mid-month is unaffected", day(2026, time.March, 15), 1, day(2026, time.April, 15)},
		{"year rollover", day(2026, time.November, 30), 3, day(2027, time.February, 28)},
		{"zero months is identity", day(2026, time.July, 31), 0, day(2026, time.July, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, addMonthsClamped(tt.start, tt.months))
		})
	}
}
