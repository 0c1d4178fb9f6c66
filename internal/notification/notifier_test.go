package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"

	"github.com/segyhp/loan-origination/internal/config"
	"github.com/segyhp/loan-origination/internal/domain"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestSMTPNotifier_Notify(t *testing.T) {
	fake := &fakeSender{}
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 465, Sender: "loans@example.com"})
	n.dialer = fake

	err := n.Notify(context.Background(), "ada@example.com", "Hello", "Body")

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, []string{"loans@example.com"}, fake.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, fake.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Hello"}, fake.sent[0].GetHeader("Subject"))
}

func TestSMTPNotifier_Errors(t *testing.T) {
	fake := &fakeSender{err: errors.New("dial tcp: refused")}
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 465})
	n.dialer = fake

	assert.Error(t, n.Notify(context.Background(), "ada@example.com", "s", "b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(n.Notify(ctx, "ada@example.com", "s", "b"), context.Canceled))
	assert.Len(t, fake.sent, 1)
}

func TestNew(t *testing.T) {
	assert.IsType(t, &LogNotifier{}, New(config.SMTPConfig{}, zap.NewNop()))
	assert.IsType(t, &SMTPNotifier{}, New(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, zap.NewNop()))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), "ada@example.com", "Subject", "Body"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ada@example.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "Subject", entries[0].ContextMap()["subject"])
}

func TestMessages(t *testing.T) {
	approved := DecisionMessage("Ada", domain.LoanStatusApproved)
	assert.Equal(t, "Loan Application Approved", approved.Subject)
	assert.Contains(t, approved.Body, "Dear Ada,")
	assert.Contains(t, approved.Body, "has been approved")

	rejected := DecisionMessage("Ada", domain.LoanStatusRejected)
	assert.Equal(t, "Loan Application Rejected", rejected.Subject)
	assert.Contains(t, rejected.Body, "Please contact support")

	repaid := RepaidMessage("Ada", "loan-1", decimal.NewFromInt(100))
	assert.Contains(t, repaid.Body, "loan-1 of 100.00")

	reminder := ReminderMessage("Ada", "loan-1", &domain.Installment{
		Number:            2,
		OutstandingAmount: decimal.RequireFromString("33.33"),
		DueDate:           time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "Upcoming Loan Payment", reminder.Subject)
	assert.Contains(t, reminder.Body, "Installment 2 of loan loan-1 for 33.33 is due on 2024-02-29.")
}
