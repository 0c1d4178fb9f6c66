package engine

import (
	"time"

	"github.com/segyhp/loan-origination/internal/domain"
	customError "github.com/segyhp/loan-origination/pkg/errors"
)

var transitions = map[domain.LoanStatus][]domain.LoanStatus{
	domain.LoanStatusPending:  {domain.LoanStatusApproved, domain.LoanStatusRejected},
	domain.LoanStatusApproved: {domain.LoanStatusPaid},
}

// Transition validates a loan status change against the state table.
func Transition(from, to domain.LoanStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return customError.WrapInvalidStateTransition(string(from), string(to))
}

// Decide records an admin decision on a pending loan.
func Decide(loan *domain.LoanApplication, decision domain.LoanStatus, now time.Time) error {
	if decision != domain.LoanStatusApproved && decision != domain.LoanStatusRejected {
		return customError.WrapInvalidStateTransition(string(loan.Status), string(decision))
	}
	if err := Transition(loan.Status, decision); err != nil {
		return err
	}

	decidedAt := now
	loan.Status = decision
	loan.DecidedAt = &decidedAt
	loan.UpdatedAt = now
	return nil
}
