package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by Update when the stored loan version
	// no longer matches the version the caller read.
	ErrVersionConflict = errors.New("loan version conflict")
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create stores a new loan together with its installments
	Create(ctx context.Context, loan *domain.LoanApplication) error

	// GetByID retrieves a loan and its installments in due order
	GetByID(ctx context.Context, id string) (*domain.LoanApplication, error)

	// ListByApplicant retrieves every loan of one applicant, newest first
	ListByApplicant(ctx context.Context, applicantID string) ([]*domain.LoanApplication, error)

	// List retrieves loans matching the filter, newest first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.LoanApplication, error)

	// Update writes loan status and installment state, plus any payment
	// records, in one transaction. It only succeeds when the stored version
	// equals loan.Version and bumps loan.Version on success.
	Update(ctx context.Context, loan *domain.LoanApplication, payments ...*domain.Payment) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// GetByLoanID retrieves all payments for a loan, oldest first
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// GetTotalPaid calculates total amount paid for a loan
	GetTotalPaid(ctx context.Context, loanID string) (decimal.Decimal, error)

	// GetLatestPayment gets the most recent payment for a loan
	GetLatestPayment(ctx context.Context, loanID string) (*domain.Payment, error)
}

// ApplicantRepository is the applicant directory used for notifications
type ApplicantRepository interface {
	// Create registers the applicant, or updates name and email when the id
	// already exists. CreatedAt of an existing entry is preserved.
	Create(ctx context.Context, applicant *domain.Applicant) error
	GetByID(ctx context.Context, id string) (*domain.Applicant, error)
}
