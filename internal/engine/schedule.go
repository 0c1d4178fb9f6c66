package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/domain"
	customError "github.com/segyhp/loan-origination/pkg/errors"
	"github.com/segyhp/loan-origination/pkg/utils"
)

// GenerateSchedule splits principal into termCount installments due from
// startDate onward. Every installment but the last gets round(principal/termCount, 2);
// the last one absorbs the rounding remainder so the amounts sum to principal exactly.
func GenerateSchedule(principal decimal.Decimal, termCount int, startDate time.Time, frequency domain.Frequency) ([]*domain.Installment, error) {
	if !principal.IsPositive() {
		return nil, customError.WrapInvalidScheduleInput("principal must be greater than 0").
			WithDetail("principal", principal.String())
	}
	if !utils.IsWholeCents(principal) {
		return nil, customError.WrapInvalidScheduleInput("principal must not have more than two decimal places").
			WithDetail("principal", principal.String())
	}
	if termCount < 1 {
		return nil, customError.WrapInvalidScheduleInput("term count must be at least 1").
			WithDetail("term_count", termCount)
	}
	if _, ok := utils.NextDueDate(startDate, string(frequency)); !ok {
		return nil, unknownFrequency(frequency)
	}

	perInstallment := utils.CalculateInstallmentAmount(principal, termCount)
	last := principal.Sub(perInstallment.Mul(decimal.NewFromInt(int64(termCount - 1))))
	if last.IsNegative() {
		return nil, customError.WrapInvalidScheduleInput("principal is too small to split into the requested number of installments").
			WithDetail("principal", principal.String()).
			WithDetail("term_count", termCount)
	}

	schedule := make([]*domain.Installment, 0, termCount)
	dueDate := startDate
	for n := 1; n <= termCount; n++ {
		amount := perInstallment
		if n == termCount {
			amount = last
		}

		schedule = append(schedule, &domain.Installment{
			ID:                uuid.NewString(),
			Number:            n,
			DueDate:           dueDate,
			DueAmount:         amount,
			OutstandingAmount: amount,
			PaidAmount:        decimal.Zero,
			Status:            domain.InstallmentStatusPending,
		})

		next, ok := utils.NextDueDate(dueDate, string(frequency))
		if !ok {
			return nil, unknownFrequency(frequency)
		}
		dueDate = next
	}

	return schedule, nil
}

func unknownFrequency(frequency domain.Frequency) error {
	return customError.WrapInvalidScheduleInput(fmt.Sprintf("unknown repayment frequency %q", frequency)).
		WithDetail("frequency", string(frequency))
}
