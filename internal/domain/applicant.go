package domain

import "time"

// Applicant is the directory entry used for notification text only.
type Applicant struct {
	ID          string    `json:"id" db:"id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type RegisterApplicantRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
}
