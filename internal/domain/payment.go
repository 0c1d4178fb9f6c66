package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the persisted record of one accepted payment call.
type Payment struct {
	ID               string          `json:"id" db:"id"`
	LoanID           string          `json:"loan_id" db:"loan_id"`
	InstallmentID    string          `json:"installment_id" db:"installment_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// PaymentHistory is a loan's payment ledger with its running total.
type PaymentHistory struct {
	LoanID    string          `json:"loan_id"`
	Payments  []*Payment      `json:"payments"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Latest    *Payment        `json:"latest,omitempty"`
}

// Allocation is the share of a payment applied to one installment.
type Allocation struct {
	InstallmentID string          `json:"installment_id"`
	Number        int             `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	Settled       bool            `json:"settled"`
}

type PaymentReceipt struct {
	PaymentID            string          `json:"payment_id"`
	LoanID               string          `json:"loan_id"`
	InstallmentID        string          `json:"installment_id"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
	RemainingLoanBalance decimal.Decimal `json:"remaining_loan_balance"`
	LoanStatus           LoanStatus      `json:"loan_status"`
	PaidAt               time.Time       `json:"paid_at"`
	Allocations          []Allocation    `json:"allocations"`
}

// Record converts the receipt into the payment row stored with the loan.
func (r *PaymentReceipt) Record() *Payment {
	return &Payment{
		ID:               r.PaymentID,
		LoanID:           r.LoanID,
		InstallmentID:    r.InstallmentID,
		Amount:           r.AmountPaid,
		RemainingBalance: r.RemainingLoanBalance,
		CreatedAt:        r.PaidAt,
	}
}
