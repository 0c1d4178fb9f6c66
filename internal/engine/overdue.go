package engine

import (
	"time"

	"github.com/segyhp/loan-origination/internal/domain"
	"github.com/segyhp/loan-origination/pkg/utils"
)

// MarkOverdue flags PENDING installments of an approved loan whose due day is
// before asOf. It returns how many installments changed.
func MarkOverdue(loan *domain.LoanApplication, asOf time.Time) int {
	if loan.Status != domain.LoanStatusApproved {
		return 0
	}

	changed := 0
	for _, inst := range loan.Installments {
		if inst.Status == domain.InstallmentStatusPending && utils.IsDateOverdue(inst.DueDate, asOf) {
			inst.Status = domain.InstallmentStatusOverdue
			changed++
		}
	}
	if changed > 0 {
		loan.UpdatedAt = asOf
	}
	return changed
}

// ConsecutiveOverdue returns the longest run of OVERDUE installments.
func ConsecutiveOverdue(loan *domain.LoanApplication) int {
	longest, current := 0, 0
	for _, inst := range loan.Installments {
		switch inst.Status {
		case domain.InstallmentStatusOverdue:
			current++
			if current > longest {
				longest = current
			}
		case domain.InstallmentStatusPaid:
			current = 0 // Reset counter if payment was made
		}
	}
	return longest
}
