package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-origination/internal/domain"
)

type applicantRepository struct {
	db *sqlx.DB
}

func NewApplicantRepository(db *sqlx.DB) ApplicantRepository {
	return &applicantRepository{db: db}
}

// Create inserts the applicant or updates the contact fields of an existing
// entry. created_at keeps its first value and is written back to applicant.
func (r *applicantRepository) Create(ctx context.Context, applicant *domain.Applicant) error {
	query := `
		INSERT INTO applicants (id, display_name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, email = EXCLUDED.email
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		applicant.ID,
		applicant.DisplayName,
		applicant.Email,
		applicant.CreatedAt,
	).Scan(&applicant.CreatedAt)
}

func (r *applicantRepository) GetByID(ctx context.Context, id string) (*domain.Applicant, error) {
	query := `SELECT id, display_name, email, created_at FROM applicants WHERE id = $1`

	var applicant domain.Applicant
	err := r.db.GetContext(ctx, &applicant, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &applicant, nil
}
