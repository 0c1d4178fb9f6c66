package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/loan-origination/internal/auth"
	"github.com/segyhp/loan-origination/internal/cache"
	"github.com/segyhp/loan-origination/internal/config"
	"github.com/segyhp/loan-origination/internal/domain"
	"github.com/segyhp/loan-origination/internal/engine"
	"github.com/segyhp/loan-origination/internal/lock"
	"github.com/segyhp/loan-origination/internal/notification"
	"github.com/segyhp/loan-origination/internal/repository"
	customError "github.com/segyhp/loan-origination/pkg/errors"
	"github.com/segyhp/loan-origination/pkg/utils"
)

type LoanService struct {
	loanRepo      repository.LoanRepository
	paymentRepo   repository.PaymentRepository
	applicantRepo repository.ApplicantRepository
	cache         cache.LoanCache
	locker        lock.Locker
	notifier      notification.Notifier
	config        *config.Config
	log           *zap.Logger
	now           func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	applicantRepo repository.ApplicantRepository,
	loanCache cache.LoanCache,
	locker lock.Locker,
	notifier notification.Notifier,
	config *config.Config,
	log *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		paymentRepo:   paymentRepo,
		applicantRepo: applicantRepo,
		cache:         loanCache,
		locker:        locker,
		notifier:      notifier,
		config:        config,
		log:           log,
		now:           time.Now,
	}
}

// Apply creates a pending loan application with its repayment schedule
// starting today.
func (s *LoanService) Apply(ctx context.Context, principal auth.Principal, request *domain.CreateLoanRequest) (*domain.LoanApplication, error) {
	applicantID := principal.ID
	if request.ApplicantID != "" && request.ApplicantID != principal.ID {
		if !principal.IsAdmin() {
			return nil, customError.WrapForbidden("Applicants may only apply for themselves")
		}
		applicantID = request.ApplicantID
	}

	now := s.now().UTC()
	installments, err := engine.GenerateSchedule(request.Amount, request.Term, utils.DateOnly(now), request.Frequency)
	if err != nil {
		return nil, err
	}

	loan := &domain.LoanApplication{
		ID:           uuid.NewString(),
		ApplicantID:  applicantID,
		Principal:    request.Amount,
		TermCount:    request.Term,
		Frequency:    request.Frequency,
		Status:       domain.LoanStatusPending,
		AppliedDate:  now,
		Version:      1,
		UpdatedAt:    now,
		Installments: installments,
	}
	for _, inst := range loan.Installments {
		inst.LoanID = loan.ID
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.Info("Loan application created",
		zap.String("loan_id", loan.ID),
		zap.String("applicant_id", applicantID),
		zap.String("principal", loan.Principal.StringFixed(2)),
		zap.Int("term_count", loan.TermCount),
		zap.String("frequency", string(loan.Frequency)),
	)
	return loan, nil
}

// GetLoan returns the loan if the principal may see it. Reads go through the cache.
func (s *LoanService) GetLoan(ctx context.Context, principal auth.Principal, loanID string) (*domain.LoanApplication, error) {
	loan, err := s.cache.Get(ctx, loanID)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("Loan cache read failed", zap.String("loan_id", loanID), zap.Error(err))
		}
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, loan); err != nil {
			s.log.Warn("Loan cache write failed", zap.String("loan_id", loanID), zap.Error(err))
		}
	}

	if !principal.CanAccess(loan.ApplicantID) {
		return nil, customError.WrapForbidden("Loan belongs to another applicant")
	}
	return loan, nil
}

func (s *LoanService) ListApplicantLoans(ctx context.Context, principal auth.Principal, applicantID string) ([]*domain.LoanApplication, error) {
	if !principal.CanAccess(applicantID) {
		return nil, customError.WrapForbidden("Cannot list loans of another applicant")
	}
	loans, err := s.loanRepo.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// ListLoans is the admin view over all applications.
func (s *LoanService) ListLoans(ctx context.Context, principal auth.Principal, filter domain.LoanFilter) ([]*domain.LoanApplication, error) {
	if !principal.IsAdmin() {
		return nil, customError.WrapForbidden("Admin role required")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, customError.WrapValidation(errors.New("unknown loan status " + string(filter.Status)))
	}
	loans, err := s.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

func (s *LoanService) GetSchedule(ctx context.Context, principal auth.Principal, loanID string) (*domain.ScheduleResponse, error) {
	loan, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return nil, err
	}
	return &domain.ScheduleResponse{LoanID: loan.ID, Schedule: loan.Installments}, nil
}

// GetOutstanding returns what is still owed. A rejected loan owes nothing.
func (s *LoanService) GetOutstanding(ctx context.Context, principal auth.Principal, loanID string) (*domain.OutstandingResponse, error) {
	loan, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return nil, err
	}

	outstanding := decimal.Zero
	if loan.Status != domain.LoanStatusRejected {
		outstanding = loan.TotalRemaining()
	}
	return &domain.OutstandingResponse{LoanID: loan.ID, Outstanding: outstanding}, nil
}

// GetPayments returns the payment ledger of a loan, oldest first, with the
// total paid and the most recent payment.
func (s *LoanService) GetPayments(ctx context.Context, principal auth.Principal, loanID string) (*domain.PaymentHistory, error) {
	loan, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	total, err := s.paymentRepo.GetTotalPaid(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	latest, err := s.paymentRepo.GetLatestPayment(ctx, loanID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}

	// Every cent paid reduced some installment's outstanding amount.
	if loan.Status != domain.LoanStatusRejected {
		if scheduled := loan.Principal.Sub(loan.TotalRemaining()); !scheduled.Equal(total) {
			s.log.Warn("Payment ledger disagrees with schedule",
				zap.String("loan_id", loanID),
				zap.String("total_paid", total.StringFixed(2)),
				zap.String("schedule_paid", scheduled.StringFixed(2)),
			)
		}
	}

	return &domain.PaymentHistory{
		LoanID:    loanID,
		Payments:  payments,
		TotalPaid: total,
		Latest:    latest,
	}, nil
}

// IsDelinquent reports whether the loan has missed DELINQUENCY_THRESHOLD
// consecutive installments as of now, whether or not the overdue sweep has run.
func (s *LoanService) IsDelinquent(ctx context.Context, principal auth.Principal, loanID string) (*domain.DelinquentResponse, error) {
	loan, err := s.GetLoan(ctx, principal, loanID)
	if err != nil {
		return nil, err
	}

	current := loan.Clone()
	engine.MarkOverdue(current, s.now().UTC())
	missed := engine.ConsecutiveOverdue(current)

	return &domain.DelinquentResponse{
		LoanID:       loan.ID,
		IsDelinquent: missed >= s.config.Business.DelinquencyThreshold,
		MissedCount:  missed,
	}, nil
}

// Decide approves or rejects a pending application and notifies the applicant.
func (s *LoanService) Decide(ctx context.Context, principal auth.Principal, loanID string, decision domain.LoanStatus) (*domain.LoanApplication, error) {
	if !principal.IsAdmin() {
		return nil, customError.WrapForbidden("Admin role required")
	}

	var loan *domain.LoanApplication
	err := s.withLoanLock(ctx, loanID, func() error {
		var err error
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if err := engine.Decide(loan, decision, s.now().UTC()); err != nil {
			return err
		}
		return s.saveLoan(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Loan decision recorded",
		zap.String("loan_id", loanID),
		zap.String("decision", string(decision)),
		zap.String("admin_id", principal.ID),
	)
	s.notify(ctx, loan.ApplicantID, func(name string) notification.Message {
		return notification.DecisionMessage(name, decision)
	})
	return loan, nil
}

// MakePayment applies a payment to the loan under the per-loan lock and
// persists the result together with the payment record.
func (s *LoanService) MakePayment(ctx context.Context, principal auth.Principal, loanID string, request *domain.MakePaymentRequest) (*domain.PaymentReceipt, error) {
	var (
		loan    *domain.LoanApplication
		receipt *domain.PaymentReceipt
	)
	err := s.withLoanLock(ctx, loanID, func() error {
		var err error
		loan, err = s.loadLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if !principal.CanAccess(loan.ApplicantID) {
			return customError.WrapForbidden("Loan belongs to another applicant")
		}

		receipt, err = engine.ApplyPayment(loan, request.InstallmentID, request.Amount, s.now().UTC())
		if err != nil {
			return err
		}
		return s.saveLoan(ctx, loan, receipt.Record())
	})
	if err != nil {
		s.log.Info("Payment rejected",
			zap.String("loan_id", loanID),
			zap.String("installment_id", request.InstallmentID),
			zap.String("amount", request.Amount.String()),
			zap.String("code", customError.Code(err)),
		)
		return nil, err
	}

	s.log.Info("Payment applied",
		zap.String("loan_id", loanID),
		zap.String("payment_id", receipt.PaymentID),
		zap.String("amount", receipt.AmountPaid.StringFixed(2)),
		zap.String("remaining", receipt.RemainingLoanBalance.StringFixed(2)),
		zap.Int("allocations", len(receipt.Allocations)),
	)

	if receipt.LoanStatus == domain.LoanStatusPaid {
		s.notify(ctx, loan.ApplicantID, func(name string) notification.Message {
			return notification.RepaidMessage(name, loan.ID, loan.Principal)
		})
	}
	return receipt, nil
}

// SweepOverdue flags past-due installments of every approved loan. Loans that
// are locked or concurrently modified are skipped until the next run.
func (s *LoanService) SweepOverdue(ctx context.Context, asOf time.Time) (int, error) {
	loans, err := s.loanRepo.List(ctx, domain.LoanFilter{Status: domain.LoanStatusApproved})
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	marked := 0
	for _, candidate := range loans {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		if engine.MarkOverdue(candidate.Clone(), asOf) == 0 {
			continue
		}

		err := s.withLoanLock(ctx, candidate.ID, func() error {
			loan, err := s.loadLoan(ctx, candidate.ID)
			if err != nil {
				return err
			}
			changed := engine.MarkOverdue(loan, asOf)
			if changed == 0 {
				return nil
			}
			if err := s.saveLoan(ctx, loan); err != nil {
				return err
			}
			marked += changed
			return nil
		})
		if err != nil {
			s.log.Warn("Overdue sweep skipped loan",
				zap.String("loan_id", candidate.ID),
				zap.String("code", customError.Code(err)),
				zap.Error(err),
			)
		}
	}

	s.log.Info("Overdue sweep finished", zap.Int("loans", len(loans)), zap.Int("installments_marked", marked))
	return marked, nil
}

// SendReminders emails applicants whose next unpaid installment falls due
// within REMINDER_LEAD_DAYS of asOf.
func (s *LoanService) SendReminders(ctx context.Context, asOf time.Time) (int, error) {
	loans, err := s.loanRepo.List(ctx, domain.LoanFilter{Status: domain.LoanStatusApproved})
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	sent := 0
	for _, loan := range loans {
		next := loan.NextUnpaid()
		if next == nil {
			continue
		}
		days := utils.DaysUntil(next.DueDate, asOf)
		if days < 0 || days > s.config.Business.ReminderLeadDays {
			continue
		}
		if s.notify(ctx, loan.ApplicantID, func(name string) notification.Message {
			return notification.ReminderMessage(name, loan.ID, next)
		}) {
			sent++
		}
	}

	s.log.Info("Payment reminders sent", zap.Int("loans", len(loans)), zap.Int("sent", sent))
	return sent, nil
}

// RegisterApplicant stores the caller's directory entry used for notifications.
func (s *LoanService) RegisterApplicant(ctx context.Context, principal auth.Principal, request *domain.RegisterApplicantRequest) (*domain.Applicant, error) {
	applicant := &domain.Applicant{
		ID:          principal.ID,
		DisplayName: request.DisplayName,
		Email:       request.Email,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.applicantRepo.Create(ctx, applicant); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return applicant, nil
}

func (s *LoanService) GetApplicant(ctx context.Context, principal auth.Principal, applicantID string) (*domain.Applicant, error) {
	if !principal.CanAccess(applicantID) {
		return nil, customError.WrapForbidden("Cannot read another applicant")
	}
	applicant, err := s.applicantRepo.GetByID(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapApplicantNotFound(applicantID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return applicant, nil
}

func (s *LoanService) withLoanLock(ctx context.Context, loanID string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, lock.LoanKey(loanID), s.config.Business.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return customError.WrapConflict(loanID, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return customError.WrapRequestCanceled(err)
	}
	if err != nil {
		return customError.WrapCacheError(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("Failed to release loan lock", zap.String("loan_id", loanID), zap.Error(err))
		}
	}()
	return fn()
}

// loadLoan reads the loan from storage, bypassing the cache.
func (s *LoanService) loadLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LoanService) saveLoan(ctx context.Context, loan *domain.LoanApplication, payments ...*domain.Payment) error {
	err := s.loanRepo.Update(ctx, loan, payments...)
	if errors.Is(err, repository.ErrVersionConflict) {
		return customError.WrapConflict(loan.ID, err)
	}
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	if err := s.cache.Set(ctx, loan); err != nil {
		s.log.Warn("Loan cache refresh failed", zap.String("loan_id", loan.ID), zap.Error(err))
		if err := s.cache.Delete(ctx, loan.ID); err != nil {
			s.log.Warn("Loan cache invalidation failed", zap.String("loan_id", loan.ID), zap.Error(err))
		}
	}
	return nil
}

// notify looks up the applicant and sends the rendered message. Failures are
// logged and reported as false.
func (s *LoanService) notify(ctx context.Context, applicantID string, render func(name string) notification.Message) bool {
	applicant, err := s.applicantRepo.GetByID(ctx, applicantID)
	if err != nil {
		s.log.Warn("Skipping notification, applicant not available",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
		return false
	}

	msg := render(applicant.DisplayName)
	if err := s.notifier.Notify(ctx, applicant.Email, msg.Subject, msg.Body); err != nil {
		s.log.Error("Failed to send notification",
			zap.String("applicant_id", applicantID),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return false
	}
	return true
}
