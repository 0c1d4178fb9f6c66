package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "PENDING"
	LoanStatusApproved LoanStatus = "APPROVED"
	LoanStatusRejected LoanStatus = "REJECTED"
	LoanStatusPaid     LoanStatus = "PAID"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusPaid || s == LoanStatusRejected
}

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusPaid:
		return true
	}
	return false
}

// Frequency fixes the calendar increment between two due dates.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// LoanApplication is the aggregate root. Installments are ordered by due date
// and that order is also the required payment order.
type LoanApplication struct {
	ID             string          `json:"id" db:"id"`
	ApplicantID    string          `json:"applicant_id" db:"applicant_id"`
	Principal      decimal.Decimal `json:"principal" db:"principal"`
	TermCount      int             `json:"term_count" db:"term_count"`
	Frequency      Frequency       `json:"frequency" db:"frequency"`
	Status         LoanStatus      `json:"status" db:"status"`
	AppliedDate    time.Time       `json:"applied_date" db:"applied_date"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty" db:"decided_at"`
	CompletionDate *time.Time      `json:"completion_date,omitempty" db:"completion_date"`
	Version        int             `json:"version" db:"version"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	Installments   []*Installment  `json:"installments" db:"-"`
}

// FindInstallment returns the installment with the given id and its index.
func (l *LoanApplication) FindInstallment(installmentID string) (*Installment, int) {
	for i, inst := range l.Installments {
		if inst.ID == installmentID {
			return inst, i
		}
	}
	return nil, -1
}

// TotalRemaining sums the outstanding amount of every installment not yet paid.
func (l *LoanApplication) TotalRemaining() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.Installments {
		if !inst.IsPaid() {
			total = total.Add(inst.OutstandingAmount)
		}
	}
	return total
}

func (l *LoanApplication) AllPaid() bool {
	for _, inst := range l.Installments {
		if !inst.IsPaid() {
			return false
		}
	}
	return len(l.Installments) > 0
}

// NextUnpaid returns the earliest installment that is not paid, or nil.
func (l *LoanApplication) NextUnpaid() *Installment {
	for _, inst := range l.Installments {
		if !inst.IsPaid() {
			return inst
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can mutate it without touching shared state.
func (l *LoanApplication) Clone() *LoanApplication {
	if l == nil {
		return nil
	}
	out := *l
	out.DecidedAt = cloneTime(l.DecidedAt)
	out.CompletionDate = cloneTime(l.CompletionDate)
	out.Installments = make([]*Installment, len(l.Installments))
	for i, inst := range l.Installments {
		c := *inst
		c.PaidDate = cloneTime(inst.PaidDate)
		out.Installments[i] = &c
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// LoanFilter narrows admin listings. Zero value lists everything.
type LoanFilter struct {
	Status LoanStatus
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ApplicantID string          `json:"applicant_id,omitempty"`
	Amount      decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
	Term        int             `json:"term" validate:"required,gt=0,lte=520"`
	Frequency   Frequency       `json:"frequency" validate:"required,oneof=weekly bi-weekly monthly"`
}

type DecisionRequest struct {
	Decision LoanStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
}

type MakePaymentRequest struct {
	InstallmentID string          `json:"installment_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type DelinquentResponse struct {
	LoanID       string `json:"loan_id"`
	IsDelinquent bool   `json:"is_delinquent"`
	MissedCount  int    `json:"missed_count"`
}
