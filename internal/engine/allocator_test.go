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

var paidAt = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// approvedLoan builds an approved loan with one installment per amount.
func approvedLoan(t *testing.T, amounts ...string) *domain.LoanApplication {
	t.Helper()

	principal := decimal.Zero
	installments := make([]*domain.Installment, len(amounts))
	for i, a := range amounts {
		amount := dec(a)
		principal = principal.Add(amount)
		installments[i] = &domain.Installment{
			ID:                []string{"inst-1", "inst-2", "inst-3", "inst-4", "inst-5"}[i],
			LoanID:            "loan-1",
			Number:            i + 1,
			DueDate:           startDate.AddDate(0, 0, 7*i),
			DueAmount:         amount,
			OutstandingAmount: amount,
			PaidAmount:        decimal.Zero,
			Status:            domain.InstallmentStatusPending,
		}
	}

	return &domain.LoanApplication{
		ID:           "loan-1",
		ApplicantID:  "applicant-1",
		Principal:    principal,
		TermCount:    len(amounts),
		Frequency:    domain.FrequencyWeekly,
		Status:       domain.LoanStatusApproved,
		AppliedDate:  startDate,
		Version:      1,
		Installments: installments,
	}
}

func TestApplyPayment_PartialOverflow(t *testing.T) {
	loan := approvedLoan(t, "100", "100", "100")

	receipt, err := ApplyPayment(loan, "inst-1", dec("150"), paidAt)
	require.NoError(t, err)

	first, second, third := loan.Installments[0], loan.Installments[1], loan.Installments[2]
	assert.Equal(t, domain.InstallmentStatusPaid, first.Status)
	assert.True(t, first.PaidAmount.Equal(dec("100")))
	assert.True(t, first.OutstandingAmount.IsZero())
	assert.Equal(t, paidAt, *first.PaidDate)

	assert.Equal(t, domain.InstallmentStatusPending, second.Status)
	assert.True(t, second.PartiallyPaid)
	assert.True(t, second.OutstandingAmount.Equal(dec("50")))
	assert.True(t, second.PaidAmount.Equal(dec("50")))
	assert.True(t, second.DueAmount.Equal(dec("100")), "original amount must not change")
	assert.Nil(t, second.PaidDate)

	assert.True(t, third.PaidAmount.IsZero())
	assert.Equal(t, domain.LoanStatusApproved, loan.Status)

	assert.True(t, receipt.AmountPaid.Equal(dec("150")))
	assert.True(t, receipt.RemainingLoanBalance.Equal(dec("150")))
	assert.Equal(t, domain.LoanStatusApproved, receipt.LoanStatus)
	require.Len(t, receipt.Allocations, 2)
	assert.True(t, receipt.Allocations[0].Settled)
	assert.False(t, receipt.Allocations[1].Settled)
	assert.True(t, receipt.Allocations[1].Amount.Equal(dec("50")))

	// The reduced balance is now the minimum for installment 2.
	receipt, err = ApplyPayment(loan, "inst-2", dec("50"), paidAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPaid, second.Status)
	assert.True(t, second.PaidAmount.Equal(dec("100")))
	assert.True(t, receipt.RemainingLoanBalance.Equal(dec("100")))
}

func TestApplyPayment_MinimumPayment(t *testing.T) {
	loan := approvedLoan(t, "75")

	_, err := ApplyPayment(loan, "inst-1", dec("50"), paidAt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrInsufficientPayment))
	var be *customError.BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "75.00", be.Details["minimum_amount"])
	assert.Equal(t, domain.InstallmentStatusPending, loan.Installments[0].Status)

	receipt, err := ApplyPayment(loan, "inst-1", dec("75"), paidAt)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, loan.Status)
	assert.Equal(t, domain.LoanStatusPaid, receipt.LoanStatus)
	require.NotNil(t, loan.CompletionDate)
	assert.Equal(t, paidAt, *loan.CompletionDate)
	assert.True(t, receipt.RemainingLoanBalance.IsZero())
}

func TestApplyPayment_FullSettlement(t *testing.T) {
	schedule, err := GenerateSchedule(dec("100.00"), 3, startDate, domain.FrequencyWeekly)
	require.NoError(t, err)
	loan := approvedLoan(t, "1")
	loan.Principal = dec("100.00")
	loan.Installments = schedule

	receipt, err := ApplyPayment(loan, schedule[0].ID, loan.TotalRemaining(), paidAt)
	require.NoError(t, err)

	for _, inst := range loan.Installments {
		assert.Equal(t, domain.InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(inst.DueAmount))
	}
	assert.Equal(t, domain.LoanStatusPaid, loan.Status)
	assert.NotNil(t, loan.CompletionDate)
	assert.Len(t, receipt.Allocations, 3)
	assert.True(t, receipt.RemainingLoanBalance.IsZero())
}

func TestApplyPayment_OverdueInstallmentCountsAsUnpaid(t *testing.T) {
	loan := approvedLoan(t, "100", "100")
	loan.Installments[0].Status = domain.InstallmentStatusOverdue

	_, err := ApplyPayment(loan, "inst-2", dec("100"), paidAt)
	assert.True(t, errors.Is(err, customError.ErrOutOfOrderPayment))

	_, err = ApplyPayment(loan, "inst-1", dec("100"), paidAt)
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPaid, loan.Installments[0].Status)
}

func TestApplyPayment_OrderingEnforcement(t *testing.T) {
	for k := 1; k < 5; k++ {
		loan := approvedLoan(t, "10", "10", "10", "10", "10")
		for i := 0; i < k-1; i++ {
			_, err := ApplyPayment(loan, loan.Installments[i].ID, dec("10"), paidAt)
			require.NoError(t, err)
		}
		before := loan.Clone()

		_, err := ApplyPayment(loan, loan.Installments[k].ID, dec("10"), paidAt)
		assert.True(t, errors.Is(err, customError.ErrOutOfOrderPayment), "k=%d", k)
		assert.Equal(t, before, loan, "k=%d: loan must not change", k)
	}
}

func TestApplyPayment_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*domain.LoanApplication)
		target    string
		amount    string
		wantErr   error
		wantCode  string
		wantField string
	}{
		{name: "zero amount", target: "inst-1", amount: "0", wantErr: customError.ErrInvalidPaymentAmount, wantCode: customError.ErrCodeInvalidPaymentAmount},
		{name: "negative amount", target: "inst-1", amount: "-5", wantErr: customError.ErrInvalidPaymentAmount, wantCode: customError.ErrCodeInvalidPaymentAmount},
		{name: "fractional cents", target: "inst-1", amount: "10.005", wantErr: customError.ErrInvalidPaymentAmount, wantCode: customError.ErrCodeInvalidPaymentAmount},
		{
			name:     "loan already paid",
			setup:    func(l *domain.LoanApplication) { l.Status = domain.LoanStatusPaid },
			target:   "inst-1",
			amount:   "100",
			wantErr:  customError.ErrLoanAlreadySettled,
			wantCode: customError.ErrCodeLoanAlreadySettled,
		},
		{
			name:     "loan rejected",
			setup:    func(l *domain.LoanApplication) { l.Status = domain.LoanStatusRejected },
			target:   "inst-1",
			amount:   "100",
			wantErr:  customError.ErrLoanAlreadySettled,
			wantCode: customError.ErrCodeLoanAlreadySettled,
		},
		{
			name:     "loan not approved yet",
			setup:    func(l *domain.LoanApplication) { l.Status = domain.LoanStatusPending },
			target:   "inst-1",
			amount:   "100",
			wantErr:  customError.ErrInvalidStateTransition,
			wantCode: customError.ErrCodeInvalidStateTransition,
		},
		{name: "overpayment", target: "inst-1", amount: "300.01", wantErr: customError.ErrOverpayment, wantCode: customError.ErrCodeOverpayment, wantField: "total_remaining"},
		{name: "overpayment checked before target lookup", target: "missing", amount: "1000", wantErr: customError.ErrOverpayment, wantCode: customError.ErrCodeOverpayment},
		{name: "unknown installment", target: "missing", amount: "100", wantErr: customError.ErrInstallmentNotFound, wantCode: customError.ErrCodeInstallmentNotFound},
		{
			name: "target already paid",
			setup: func(l *domain.LoanApplication) {
				l.Installments[0].Status = domain.InstallmentStatusPaid
				l.Installments[0].OutstandingAmount = decimal.Zero
			},
			target:   "inst-1",
			amount:   "100",
			wantErr:  customError.ErrAlreadyPaid,
			wantCode: customError.ErrCodeAlreadyPaid,
		},
		{name: "out of order", target: "inst-3", amount: "100", wantErr: customError.ErrOutOfOrderPayment, wantCode: customError.ErrCodeOutOfOrderPayment},
		{name: "insufficient", target: "inst-1", amount: "99.99", wantErr: customError.ErrInsufficientPayment, wantCode: customError.ErrCodeInsufficientPayment, wantField: "minimum_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := approvedLoan(t, "100", "100", "100")
			if tt.setup != nil {
				tt.setup(loan)
			}
			before := loan.Clone()

			receipt, err := ApplyPayment(loan, tt.target, dec(tt.amount), paidAt)

			assert.Nil(t, receipt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.wantCode, customError.Code(err))
			if tt.wantField != "" {
				var be *customError.BusinessError
				require.True(t, errors.As(err, &be))
				assert.Contains(t, be.Details, tt.wantField)
			}
			assert.Equal(t, before, loan, "rejected payment must not mutate the loan")
		})
	}
}

func TestApplyPayment_TerminalImmutability(t *testing.T) {
	loan := approvedLoan(t, "50", "50")
	_, err := ApplyPayment(loan, "inst-1", dec("100"), paidAt)
	require.NoError(t, err)
	require.Equal(t, domain.LoanStatusPaid, loan.Status)

	settled := loan.Clone()
	for _, target := range []string{"inst-1", "inst-2", "missing"} {
		_, err := ApplyPayment(loan, target, dec("1"), paidAt.Add(time.Hour))
		assert.True(t, errors.Is(err, customError.ErrLoanAlreadySettled))
	}
	assert.Equal(t, settled, loan)
}

func TestApplyPayment_NilLoan(t *testing.T) {
	_, err := ApplyPayment(nil, "inst-1", dec("1"), paidAt)
	assert.True(t, errors.Is(err, customError.ErrLoanNotFound))
}

func TestApplyPayment_ZeroAmountInstallmentsSettleInPassing(t *testing.T) {
	loan := approvedLoan(t, "0.00", "0.00", "0.01")

	receipt, err := ApplyPayment(loan, "inst-1", dec("0.01"), paidAt)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, loan.Status)
	assert.Len(t, receipt.Allocations, 3)
}
