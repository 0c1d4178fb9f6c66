package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-origination/internal/domain"
	customError "github.com/segyhp/loan-origination/pkg/errors"
)

var startDate = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func sumAmounts(schedule []*domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.DueAmount)
	}
	return total
}

func TestGenerateSchedule_RoundingRemainder(t *testing.T) {
	schedule, err := GenerateSchedule(decimal.RequireFromString("100.00"), 3, startDate, domain.FrequencyWeekly)
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	expected := []string{"33.33", "33.33", "33.34"}
	for i, inst := range schedule {
		assert.True(t, inst.DueAmount.Equal(decimal.RequireFromString(expected[i])),
			"installment %d: expected %s, got %s", i+1, expected[i], inst.DueAmount)
		assert.True(t, inst.OutstandingAmount.Equal(inst.DueAmount))
		assert.True(t, inst.PaidAmount.IsZero())
		assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
		assert.Equal(t, i+1, inst.Number)
		assert.NotEmpty(t, inst.ID)
	}
	assert.True(t, sumAmounts(schedule).Equal(decimal.NewFromInt(100)))
}

func TestGenerateSchedule_LastInstallmentSmaller(t *testing.T) {
	schedule, err := GenerateSchedule(decimal.NewFromInt(200), 3, startDate, domain.FrequencyMonthly)
	require.NoError(t, err)

	assert.True(t, schedule[0].DueAmount.Equal(decimal.RequireFromString("66.67")))
	assert.True(t, schedule[1].DueAmount.Equal(decimal.RequireFromString("66.67")))
	assert.True(t, schedule[2].DueAmount.Equal(decimal.RequireFromString("66.66")))
	assert.True(t, sumAmounts(schedule).Equal(decimal.NewFromInt(200)))
}

func TestGenerateSchedule_SumInvariant(t *testing.T) {
	principals := []string{"0.01", "1.00", "99.99", "100.00", "1000.01", "5000000", "12345.67", "7"}
	terms := []int{1, 2, 3, 7, 12, 13, 52}
	frequencies := []domain.Frequency{domain.FrequencyWeekly, domain.FrequencyBiWeekly, domain.FrequencyMonthly}

	for _, p := range principals {
		for _, n := range terms {
			for _, f := range frequencies {
				principal := decimal.RequireFromString(p)
				schedule, err := GenerateSchedule(principal, n, startDate, f)
				if err != nil {
					// Only tiny principals may be rejected, and only as invalid input.
					assert.True(t, errors.Is(err, customError.ErrInvalidScheduleInput), "%s/%d/%s: %v", p, n, f, err)
					continue
				}
				require.Len(t, schedule, n)
				assert.True(t, sumAmounts(schedule).Equal(principal), "%s/%d/%s: sum %s", p, n, f, sumAmounts(schedule))
				for i := 0; i < n-1; i++ {
					assert.True(t, schedule[i].DueAmount.Equal(schedule[0].DueAmount))
				}
			}
		}
	}
}

func TestGenerateSchedule_DueDates(t *testing.T) {
	tests := []struct {
		name      string
		frequency domain.Frequency
		step      func(time.Time) time.Time
	}{
		{name: "weekly", frequency: domain.FrequencyWeekly, step: func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }},
		{name: "bi-weekly", frequency: domain.FrequencyBiWeekly, step: func(t time.Time) time.Time { return t.AddDate(0, 0, 14) }},
		{name: "monthly", frequency: domain.FrequencyMonthly, step: func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := GenerateSchedule(decimal.NewFromInt(1200), 12, startDate, tt.frequency)
			require.NoError(t, err)

			assert.Equal(t, startDate, schedule[0].DueDate)
			for i := 1; i < len(schedule); i++ {
				assert.Equal(t, tt.step(schedule[i-1].DueDate), schedule[i].DueDate, "installment %d", i+1)
			}
		})
	}
}

// Every frequency the domain accepts must advance the due date.
func TestGenerateSchedule_DomainFrequenciesAdvance(t *testing.T) {
	for _, frequency := range []domain.Frequency{domain.FrequencyWeekly, domain.FrequencyBiWeekly, domain.FrequencyMonthly, "daily", ""} {
		schedule, err := GenerateSchedule(decimal.NewFromInt(100), 2, startDate, frequency)
		if !frequency.IsValid() {
			assert.Equal(t, customError.ErrCodeInvalidScheduleInput, customError.Code(err), "frequency %q", frequency)
			continue
		}
		require.NoError(t, err, "frequency %q", frequency)
		assert.True(t, schedule[1].DueDate.After(schedule[0].DueDate), "frequency %q", frequency)
	}
}

func TestGenerateSchedule_MonthlyUsesCalendarMonths(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(decimal.NewFromInt(300), 3, start, domain.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
}

func TestGenerateSchedule_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		terms     int
		frequency domain.Frequency
	}{
		{name: "zero principal", principal: decimal.Zero, terms: 3, frequency: domain.FrequencyWeekly},
		{name: "negative principal", principal: decimal.NewFromInt(-10), terms: 3, frequency: domain.FrequencyWeekly},
		{name: "fractional cents", principal: decimal.RequireFromString("10.001"), terms: 3, frequency: domain.FrequencyWeekly},
		{name: "zero terms", principal: decimal.NewFromInt(100), terms: 0, frequency: domain.FrequencyWeekly},
		{name: "unknown frequency", principal: decimal.NewFromInt(100), terms: 3, frequency: "daily"},
		{name: "too small to split", principal: decimal.RequireFromString("0.10"), terms: 20, frequency: domain.FrequencyWeekly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := GenerateSchedule(tt.principal, tt.terms, startDate, tt.frequency)
			assert.Nil(t, schedule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, customError.ErrInvalidScheduleInput))
			assert.Equal(t, customError.ErrCodeInvalidScheduleInput, customError.Code(err))
		})
	}
}
