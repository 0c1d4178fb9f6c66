package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculateInstallmentAmount returns the per-installment share rounded to cents.
// Formula: round(Principal / Terms, 2)
func CalculateInstallmentAmount(principal decimal.Decimal, terms int) decimal.Decimal {
	return principal.Div(decimal.NewFromInt(int64(terms))).Round(2)
}

// NextDueDate advances a due date by one period. Monthly periods use calendar
// arithmetic, so Jan 31 normalizes to early March.
func NextDueDate(previous time.Time, frequency string) (time.Time, bool) {
	switch frequency {
	case "weekly":
		return previous.AddDate(0, 0, 7), true
	case "bi-weekly":
		return previous.AddDate(0, 0, 14), true
	case "monthly":
		return previous.AddDate(0, 1, 0), true
	}
	return previous, false
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDateOverdue checks if a due date falls on a calendar day before asOf.
func IsDateOverdue(dueDate, asOf time.Time) bool {
	return DateOnly(dueDate).Before(DateOnly(asOf))
}

// DaysUntil returns the number of whole calendar days from asOf to dueDate.
func DaysUntil(dueDate, asOf time.Time) int {
	return int(DateOnly(dueDate).Sub(DateOnly(asOf)).Hours() / 24)
}

// IsWholeCents reports whether d has no more than two decimal places.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}
