package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/domain"
	customError "github.com/segyhp/loan-origination/pkg/errors"
	"github.com/segyhp/loan-origination/pkg/utils"
)

// ApplyPayment allocates amount to the loan's installments starting at the
// target installment and moving forward in due order. All checks run before
// the loan is touched, so a rejected payment leaves it unchanged.
//
// The loan is mutated in place; persisting it is the caller's job.
func ApplyPayment(loan *domain.LoanApplication, installmentID string, amount decimal.Decimal, now time.Time) (*domain.PaymentReceipt, error) {
	if !amount.IsPositive() || !utils.IsWholeCents(amount) {
		return nil, customError.WrapInvalidPaymentAmount(amount)
	}

	if loan == nil {
		return nil, customError.WrapLoanNotFound("")
	}
	if loan.Status.IsTerminal() {
		return nil, customError.WrapLoanAlreadySettled(loan.ID, string(loan.Status))
	}
	if loan.Status != domain.LoanStatusApproved {
		return nil, customError.WrapInvalidStateTransition(string(loan.Status), string(domain.LoanStatusPaid)).
			WithDetail("reason", "loan must be approved before accepting payments")
	}

	totalRemaining := loan.TotalRemaining()
	if amount.GreaterThan(totalRemaining) {
		return nil, customError.WrapOverpayment(amount, totalRemaining)
	}

	target, index := loan.FindInstallment(installmentID)
	if target == nil {
		return nil, customError.WrapInstallmentNotFound(installmentID)
	}
	if target.IsPaid() {
		return nil, customError.WrapAlreadyPaid(installmentID)
	}

	for _, earlier := range loan.Installments[:index] {
		if !earlier.IsPaid() {
			return nil, customError.WrapOutOfOrderPayment(installmentID, earlier.ID)
		}
	}

	if amount.LessThan(target.OutstandingAmount) {
		return nil, customError.WrapInsufficientPayment(amount, target.OutstandingAmount)
	}

	paidAt := now
	remaining := amount
	allocations := make([]domain.Allocation, 0, 1)

	for _, inst := range loan.Installments[index:] {
		if inst.IsPaid() {
			continue
		}

		if remaining.GreaterThanOrEqual(inst.OutstandingAmount) {
			applied := inst.OutstandingAmount
			remaining = remaining.Sub(applied)

			inst.PaidAmount = inst.PaidAmount.Add(applied)
			inst.OutstandingAmount = decimal.Zero
			inst.Status = domain.InstallmentStatusPaid
			inst.PaidDate = &paidAt

			allocations = append(allocations, domain.Allocation{
				InstallmentID: inst.ID,
				Number:        inst.Number,
				Amount:        applied,
				Settled:       true,
			})
			continue
		}

		if remaining.IsPositive() {
			inst.OutstandingAmount = inst.OutstandingAmount.Sub(remaining)
			inst.PaidAmount = inst.PaidAmount.Add(remaining)
			inst.PartiallyPaid = true

			allocations = append(allocations, domain.Allocation{
				InstallmentID: inst.ID,
				Number:        inst.Number,
				Amount:        remaining,
				Settled:       false,
			})
			remaining = decimal.Zero
		}
		break
	}

	loan.UpdatedAt = now
	if loan.AllPaid() {
		if err := Transition(loan.Status, domain.LoanStatusPaid); err == nil {
			completedAt := now
			loan.Status = domain.LoanStatusPaid
			loan.CompletionDate = &completedAt
		}
	}

	return &domain.PaymentReceipt{
		PaymentID:            uuid.NewString(),
		LoanID:               loan.ID,
		InstallmentID:        installmentID,
		AmountPaid:           amount,
		RemainingLoanBalance: totalRemaining.Sub(amount),
		LoanStatus:           loan.Status,
		PaidAt:               paidAt,
		Allocations:          allocations,
	}, nil
}
