package notification

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/domain"
)

// Message is a rendered subject and plain-text body.
type Message struct {
	Subject string
	Body    string
}

// DecisionMessage renders the email sent after an admin approves or rejects.
func DecisionMessage(name string, decision domain.LoanStatus) Message {
	if decision == domain.LoanStatusApproved {
		return Message{
			Subject: "Loan Application Approved",
			Body: fmt.Sprintf("Dear %s,\n\nCongratulations! Your loan application has been approved. "+
				"You will be contacted with further details soon.", name),
		}
	}
	return Message{
		Subject: "Loan Application Rejected",
		Body: fmt.Sprintf("Dear %s,\n\nWe regret to inform you that your loan application has been rejected. "+
			"Please contact support for more details.", name),
	}
}

func RepaidMessage(name string, loanID string, principal decimal.Decimal) Message {
	return Message{
		Subject: "Loan Fully Repaid",
		Body: fmt.Sprintf("Dear %s,\n\nYour loan %s of %s has been fully repaid. Thank you!",
			name, loanID, principal.StringFixed(2)),
	}
}

func ReminderMessage(name string, loanID string, inst *domain.Installment) Message {
	return Message{
		Subject: "Upcoming Loan Payment",
		Body: fmt.Sprintf("Dear %s,\n\nInstallment %d of loan %s for %s is due on %s.",
			name, inst.Number, loanID,
			inst.OutstandingAmount.StringFixed(2), inst.DueDate.Format(time.DateOnly)),
	}
}
