package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/loan-origination/internal/domain"
)

const loanColumns = `id, applicant_id, principal, term_count, frequency, status, applied_date, decided_at, completion_date, version, updated_at`

const installmentColumns = `id, loan_id, number, due_date, due_amount, outstanding_amount, paid_amount, paid_date, partially_paid, status`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.LoanApplication) error {
	loanQuery := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.ApplicantID,
		loan.Principal,
		loan.TermCount,
		loan.Frequency,
		loan.Status,
		loan.AppliedDate,
		loan.DecidedAt,
		loan.CompletionDate,
		loan.Version,
		loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}

	installmentQuery := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, inst := range loan.Installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			inst.ID,
			inst.LoanID,
			inst.Number,
			inst.DueDate,
			inst.DueAmount,
			inst.OutstandingAmount,
			inst.PaidAmount,
			inst.PaidDate,
			inst.PartiallyPaid,
			inst.Status,
		)
		if err != nil {
			return fmt.Errorf("insert installment %d: %w", inst.Number, err)
		}
	}

	return tx.Commit()
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.LoanApplication
	err := r.db.GetContext(ctx, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	installmentQuery := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY number
	`
	if err := r.db.SelectContext(ctx, &loan.Installments, installmentQuery, id); err != nil {
		return nil, fmt.Errorf("select installments: %w", err)
	}

	return &loan, nil
}

func (r *loanRepository) ListByApplicant(ctx context.Context, applicantID string) ([]*domain.LoanApplication, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE applicant_id = $1
		ORDER BY applied_date DESC, id
	`
	return r.selectLoans(ctx, query, applicantID)
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.LoanApplication, error) {
	if filter.Status != "" {
		query := `
			SELECT ` + loanColumns + `
			FROM loans
			WHERE status = $1
			ORDER BY applied_date DESC, id
		`
		return r.selectLoans(ctx, query, filter.Status)
	}

	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY applied_date DESC, id`
	return r.selectLoans(ctx, query)
}

func (r *loanRepository) selectLoans(ctx context.Context, query string, args ...interface{}) ([]*domain.LoanApplication, error) {
	var loans []*domain.LoanApplication
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return loans, nil
	}

	ids := make([]string, len(loans))
	byID := make(map[string]*domain.LoanApplication, len(loans))
	for i, loan := range loans {
		ids[i] = loan.ID
		byID[loan.ID] = loan
	}

	installmentQuery := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = ANY($1)
		ORDER BY loan_id, number
	`
	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, installmentQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select installments: %w", err)
	}
	for _, inst := range installments {
		if loan, ok := byID[inst.LoanID]; ok {
			loan.Installments = append(loan.Installments, inst)
		}
	}

	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.LoanApplication, payments ...*domain.Payment) error {
	loanQuery := `
		UPDATE loans
		SET status = $3, decided_at = $4, completion_date = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.Version,
		loan.Status,
		loan.DecidedAt,
		loan.CompletionDate,
		loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	installmentQuery := `
		UPDATE installments
		SET outstanding_amount = $2, paid_amount = $3, paid_date = $4, partially_paid = $5, status = $6
		WHERE id = $1
	`
	for _, inst := range loan.Installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			inst.ID,
			inst.OutstandingAmount,
			inst.PaidAmount,
			inst.PaidDate,
			inst.PartiallyPaid,
			inst.Status,
		)
		if err != nil {
			return fmt.Errorf("update installment %d: %w", inst.Number, err)
		}
	}

	for _, payment := range payments {
		if err := insertPayment(ctx, tx, payment); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	loan.Version++
	return nil
}
