package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/loan-origination/internal/auth"
	"github.com/segyhp/loan-origination/pkg/response"
)

// NewRouter wires every route. Everything under /api/v1 requires a bearer token.
func NewRouter(loans *LoanHandler, health *HealthHandler, authenticator *auth.Authenticator, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authenticator.Middleware)

	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", loans.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/outstanding", loans.GetOutstanding).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/delinquent", loans.IsDelinquent).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", loans.GetPayments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payment", loans.MakePayment).Methods(http.MethodPost)

	api.HandleFunc("/applicants", loans.RegisterApplicant).Methods(http.MethodPost)
	api.HandleFunc("/applicants/{applicantId}", loans.GetApplicant).Methods(http.MethodGet)
	api.HandleFunc("/applicants/{applicantId}/loans", loans.ListApplicantLoans).Methods(http.MethodGet)

	api.HandleFunc("/admin/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/admin/loans/{loanId}/decision", loans.Decide).Methods(http.MethodPost)

	return router
}
