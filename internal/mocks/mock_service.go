package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-origination/internal/auth"
	"github.com/segyhp/loan-origination/internal/domain"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) Apply(ctx context.Context, principal auth.Principal, request *domain.CreateLoanRequest) (*domain.LoanApplication, error) {
	args := m.Called(ctx, principal, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, principal auth.Principal, loanID string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanService) ListApplicantLoans(ctx context.Context, principal auth.Principal, applicantID string) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, principal, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, principal auth.Principal, filter domain.LoanFilter) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, principal, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, principal auth.Principal, loanID string) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockLoanService) GetOutstanding(ctx context.Context, principal auth.Principal, loanID string) (*domain.OutstandingResponse, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutstandingResponse), args.Error(1)
}

func (m *MockLoanService) GetPayments(ctx context.Context, principal auth.Principal, loanID string) (*domain.PaymentHistory, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentHistory), args.Error(1)
}

func (m *MockLoanService) IsDelinquent(ctx context.Context, principal auth.Principal, loanID string) (*domain.DelinquentResponse, error) {
	args := m.Called(ctx, principal, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquentResponse), args.Error(1)
}

func (m *MockLoanService) Decide(ctx context.Context, principal auth.Principal, loanID string, decision domain.LoanStatus) (*domain.LoanApplication, error) {
	args := m.Called(ctx, principal, loanID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanService) MakePayment(ctx context.Context, principal auth.Principal, loanID string, request *domain.MakePaymentRequest) (*domain.PaymentReceipt, error) {
	args := m.Called(ctx, principal, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentReceipt), args.Error(1)
}

func (m *MockLoanService) RegisterApplicant(ctx context.Context, principal auth.Principal, request *domain.RegisterApplicantRequest) (*domain.Applicant, error) {
	args := m.Called(ctx, principal, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}

func (m *MockLoanService) GetApplicant(ctx context.Context, principal auth.Principal, applicantID string) (*domain.Applicant, error) {
	args := m.Called(ctx, principal, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Applicant), args.Error(1)
}
