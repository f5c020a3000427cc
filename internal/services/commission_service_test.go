package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCommissionService_Calculate(t *testing.T) {
	svc := NewCommissionService()

	tests := []struct {
		name                   string
		input                  CommissionInput
		expectedCommissionable string
		expectedCommission     string
	}{
		{
			name: "GST inclusive with all fee types",
			input: CommissionInput{
				TotalCourseValue:      dec("10000"),
				MaterialsCost:         dec("500"),
				AdminFees:             dec("200"),
				OtherFees:             dec("100"),
				CommissionRatePercent: dec("15"),
				GSTInclusive:          true,
			},
			expectedCommissionable: "9200.00",
			expectedCommission:     "1380.00",
		},
		{
			name: "GST exclusive strips the 10% component before the rate",
			input: CommissionInput{
				TotalCourseValue:      dec("11000"),
				CommissionRatePercent: dec("20"),
				GSTInclusive:          false,
			},
			expectedCommissionable: "11000.00",
			expectedCommission:     "2000.00",
		},
		{
			name: "no fees, full value commissionable",
			input: CommissionInput{
				TotalCourseValue:      dec("8500.50"),
				CommissionRatePercent: dec("12.5"),
				GSTInclusive:          true,
			},
			expectedCommissionable: "8500.50",
			expectedCommission:     "1062.56",
		},
		{
			name: "zero rate yields zero commission",
			input: CommissionInput{
				TotalCourseValue:      dec("5000"),
				CommissionRatePercent: dec("0"),
				GSTInclusive:          true,
			},
			expectedCommissionable: "5000.00",
			expectedCommission:     "0.00",
		},
		{
			name: "fees exactly consume the course value",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				MaterialsCost:         dec("600"),
				AdminFees:             dec("400"),
				CommissionRatePercent: dec("15"),
				GSTInclusive:          true,
			},
			expectedCommissionable: "0.00",
			expectedCommission:     "0.00",
		},
		{
			name: "sub-cent result rounds half up",
			input: CommissionInput{
				TotalCourseValue:      dec("333.33"),
				CommissionRatePercent: dec("10"),
				GSTInclusive:          true,
			},
			expectedCommissionable: "333.33",
			expectedCommission:     "33.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Calculate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCommissionable, result.CommissionableValue.StringFixed(2))
			assert.Equal(t, tt.expectedCommission, result.ExpectedCommission.StringFixed(2))
		})
	}
}

func TestCommissionService_CalculateValidation(t *testing.T) {
	svc := NewCommissionService()

	tests := []struct {
		name          string
		input         CommissionInput
		expectedField string
	}{
		{
			name: "zero course value",
			input: CommissionInput{
				TotalCourseValue:      dec("0"),
				CommissionRatePercent: dec("15"),
			},
			expectedField: "total_course_value",
		},
		{
			name: "negative course value",
			input: CommissionInput{
				TotalCourseValue:      dec("-100"),
				CommissionRatePercent: dec("15"),
			},
			expectedField: "total_course_value",
		},
		{
			name: "negative materials cost",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				MaterialsCost:         dec("-50"),
				CommissionRatePercent: dec("15"),
			},
			expectedField: "materials_cost",
		},
		{
			name: "negative admin fees",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				AdminFees:             dec("-1"),
				CommissionRatePercent: dec("15"),
			},
			expectedField: "admin_fees",
		},
		{
			name: "rate above 100",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				CommissionRatePercent: dec("101"),
			},
			expectedField: "commission_rate_percent",
		},
		{
			name: "negative rate",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				CommissionRatePercent: dec("-5"),
			},
			expectedField: "commission_rate_percent",
		},
		{
			name: "fees exceed course value",
			input: CommissionInput{
				TotalCourseValue:      dec("1000"),
				MaterialsCost:         dec("800"),
				AdminFees:             dec("300"),
				CommissionRatePercent: dec("15"),
			},
			expectedField: "total_course_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Calculate(tt.input)
			require.Error(t, err)
			assert.Nil(t, result)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.expectedField, ve.Field)
		})
	}
}
