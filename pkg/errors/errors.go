package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrApplicantNotFound      = errors.New("applicant not found")
	ErrInvalidScheduleInput   = errors.New("invalid schedule input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrLoanAlreadySettled     = errors.New("loan is already settled")
	ErrOverpayment            = errors.New("payment exceeds remaining balance")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrAlreadyPaid            = errors.New("installment is already paid")
	ErrOutOfOrderPayment      = errors.New("earlier installments must be paid first")
	ErrInsufficientPayment    = errors.New("payment is below the installment amount")
	ErrConflict               = errors.New("concurrent modification")
	ErrForbidden              = errors.New("forbidden")
	ErrValidation             = errors.New("validation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail attaches an offending value the caller can display.
func (e *BusinessError) WithDetail(key string, value interface{}) *BusinessError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes
const (
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeApplicantNotFound      = "APPLICANT_NOT_FOUND"
	ErrCodeInvalidScheduleInput   = "INVALID_SCHEDULE_INPUT"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeInvalidPaymentAmount   = "INVALID_PAYMENT_AMOUNT"
	ErrCodeLoanAlreadySettled     = "LOAN_ALREADY_SETTLED"
	ErrCodeOverpayment            = "OVERPAYMENT"
	ErrCodeInstallmentNotFound    = "INSTALLMENT_NOT_FOUND"
	ErrCodeAlreadyPaid            = "INSTALLMENT_ALREADY_PAID"
	ErrCodeOutOfOrderPayment      = "OUT_OF_ORDER_PAYMENT"
	ErrCodeInsufficientPayment    = "INSUFFICIENT_PAYMENT"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
	ErrCodeRequestCanceled        = "REQUEST_CANCELED"
)

// Code extracts the business code from err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	).WithDetail("loan_id", loanID)
}

func WrapApplicantNotFound(applicantID string) *BusinessError {
	return NewBusinessError(
		ErrCodeApplicantNotFound,
		fmt.Sprintf("Applicant with ID %s not found", applicantID),
		ErrApplicantNotFound,
	).WithDetail("applicant_id", applicantID)
}

func WrapInvalidScheduleInput(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidScheduleInput,
		reason,
		ErrInvalidScheduleInput,
	)
}

func WrapInvalidStateTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStateTransition,
		fmt.Sprintf("Loan cannot move from %s to %s", from, to),
		ErrInvalidStateTransition,
	).WithDetail("from", from).WithDetail("to", to)
}

func WrapInvalidPaymentAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount.String()),
		ErrInvalidPaymentAmount,
	).WithDetail("amount", amount.String())
}

func WrapLoanAlreadySettled(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadySettled,
		fmt.Sprintf("Loan with ID %s is already %s", loanID, status),
		ErrLoanAlreadySettled,
	).WithDetail("loan_id", loanID).WithDetail("status", status)
}

func WrapOverpayment(amount, totalRemaining decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Payment amount (%s) exceeds the total remaining amount (%s)", amount.StringFixed(2), totalRemaining.StringFixed(2)),
		ErrOverpayment,
	).WithDetail("total_remaining", totalRemaining.StringFixed(2))
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrInstallmentNotFound,
	).WithDetail("installment_id", installmentID)
}

func WrapAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Installment with ID %s has already been paid", installmentID),
		ErrAlreadyPaid,
	).WithDetail("installment_id", installmentID)
}

func WrapOutOfOrderPayment(installmentID, earliestUnpaidID string) *BusinessError {
	return NewBusinessError(
		ErrCodeOutOfOrderPayment,
		"Please pay earlier installments first",
		ErrOutOfOrderPayment,
	).WithDetail("installment_id", installmentID).WithDetail("earliest_unpaid_id", earliestUnpaidID)
}

func WrapInsufficientPayment(amount, minimum decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientPayment,
		fmt.Sprintf("Payment amount must be at least %s for this installment", minimum.StringFixed(2)),
		ErrInsufficientPayment,
	).WithDetail("amount", amount.StringFixed(2)).WithDetail("minimum_amount", minimum.StringFixed(2))
}

func WrapConflict(loanID string, err error) *BusinessError {
	if err == nil {
		err = ErrConflict
	} else if !errors.Is(err, ErrConflict) {
		err = fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return NewBusinessError(
		ErrCodeConflict,
		fmt.Sprintf("Loan with ID %s was modified concurrently, reload and retry", loanID),
		err,
	).WithDetail("loan_id", loanID)
}

func WrapForbidden(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		message,
		ErrForbidden,
	)
}

func WrapValidation(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		"Request validation failed",
		fmt.Errorf("%w: %v", ErrValidation, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// WrapRequestCanceled reports a context that was canceled or timed out before
// the operation could run. err stays in the chain for errors.Is.
func WrapRequestCanceled(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeRequestCanceled,
		"Request was canceled or timed out",
		err,
	)
}
