package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/domain"
)

// MemoryStore is an in-memory implementation of the loan, payment and
// applicant repositories. It keeps its own copies, so callers never share
// state with it, and enforces the same version check as the SQL store.
type MemoryStore struct {
	mu         sync.RWMutex
	loans      map[string]*domain.LoanApplication
	payments   map[string][]*domain.Payment
	applicants map[string]*domain.Applicant
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loans:      make(map[string]*domain.LoanApplication),
		payments:   make(map[string][]*domain.Payment),
		applicants: make(map[string]*domain.Applicant),
	}
}

// Loans, Payments and Applicants expose the store through the narrower interfaces.
func (s *MemoryStore) Loans() LoanRepository           { return memoryLoans{s} }
func (s *MemoryStore) Payments() PaymentRepository     { return memoryPayments{s} }
func (s *MemoryStore) Applicants() ApplicantRepository { return memoryApplicants{s} }

type memoryLoans struct{ s *MemoryStore }

func (m memoryLoans) Create(ctx context.Context, loan *domain.LoanApplication) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, exists := m.s.loans[loan.ID]; exists {
		return fmt.Errorf("loan %s already exists", loan.ID)
	}
	m.s.loans[loan.ID] = loan.Clone()
	return nil
}

func (m memoryLoans) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	loan, ok := m.s.loans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return loan.Clone(), nil
}

func (m memoryLoans) ListByApplicant(ctx context.Context, applicantID string) ([]*domain.LoanApplication, error) {
	return m.list(func(l *domain.LoanApplication) bool { return l.ApplicantID == applicantID }), nil
}

func (m memoryLoans) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.LoanApplication, error) {
	return m.list(func(l *domain.LoanApplication) bool {
		return filter.Status == "" || l.Status == filter.Status
	}), nil
}

func (m memoryLoans) list(match func(*domain.LoanApplication) bool) []*domain.LoanApplication {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]*domain.LoanApplication, 0)
	for _, loan := range m.s.loans {
		if match(loan) {
			out = append(out, loan.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppliedDate.Equal(out[j].AppliedDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].AppliedDate.After(out[j].AppliedDate)
	})
	return out
}

func (m memoryLoans) Update(ctx context.Context, loan *domain.LoanApplication, payments ...*domain.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.loans[loan.ID]
	if !ok || stored.Version != loan.Version {
		return ErrVersionConflict
	}

	next := loan.Clone()
	next.Version++
	m.s.loans[loan.ID] = next
	for _, p := range payments {
		c := *p
		m.s.payments[p.LoanID] = append(m.s.payments[p.LoanID], &c)
	}

	loan.Version = next.Version
	return nil
}

type memoryPayments struct{ s *MemoryStore }

func (m memoryPayments) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]*domain.Payment, 0, len(m.s.payments[loanID]))
	for _, p := range m.s.payments[loanID] {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (m memoryPayments) GetTotalPaid(ctx context.Context, loanID string) (decimal.Decimal, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	total := decimal.Zero
	for _, p := range m.s.payments[loanID] {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (m memoryPayments) GetLatestPayment(ctx context.Context, loanID string) (*domain.Payment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	payments := m.s.payments[loanID]
	if len(payments) == 0 {
		return nil, ErrNotFound
	}
	c := *payments[len(payments)-1]
	return &c, nil
}

type memoryApplicants struct{ s *MemoryStore }

func (m memoryApplicants) Create(ctx context.Context, applicant *domain.Applicant) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if existing, ok := m.s.applicants[applicant.ID]; ok {
		applicant.CreatedAt = existing.CreatedAt
	}
	c := *applicant
	m.s.applicants[applicant.ID] = &c
	return nil
}

func (m memoryApplicants) GetByID(ctx context.Context, id string) (*domain.Applicant, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	applicant, ok := m.s.applicants[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *applicant
	return &c, nil
}
