package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

// Installment is one scheduled repayment. DueAmount never changes after
// generation; OutstandingAmount is what is still owed.
type Installment struct {
	ID                string            `json:"id" db:"id"`
	LoanID            string            `json:"loan_id" db:"loan_id"`
	Number            int               `json:"number" db:"number"`
	DueDate           time.Time         `json:"due_date" db:"due_date"`
	DueAmount         decimal.Decimal   `json:"due_amount" db:"due_amount"`
	OutstandingAmount decimal.Decimal   `json:"outstanding_amount" db:"outstanding_amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount" db:"paid_amount"`
	PaidDate          *time.Time        `json:"paid_date,omitempty" db:"paid_date"`
	PartiallyPaid     bool              `json:"partially_paid" db:"partially_paid"`
	Status            InstallmentStatus `json:"status" db:"status"` // PENDING, PAID, OVERDUE
}

func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

type ScheduleResponse struct {
	LoanID   string         `json:"loan_id"`
	Schedule []*Installment `json:"schedule"`
}
