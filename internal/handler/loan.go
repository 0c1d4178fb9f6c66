package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-origination/internal/auth"
	"github.com/segyhp/loan-origination/internal/domain"
	customError "github.com/segyhp/loan-origination/pkg/errors"
	"github.com/segyhp/loan-origination/pkg/response"
)

const maxRequestBodyBytes = 1 << 20

// LoanService is the workflow the HTTP layer drives.
type LoanService interface {
	Apply(ctx context.Context, principal auth.Principal, request *domain.CreateLoanRequest) (*domain.LoanApplication, error)
	GetLoan(ctx context.Context, principal auth.Principal, loanID string) (*domain.LoanApplication, error)
	ListApplicantLoans(ctx context.Context, principal auth.Principal, applicantID string) ([]*domain.LoanApplication, error)
	ListLoans(ctx context.Context, principal auth.Principal, filter domain.LoanFilter) ([]*domain.LoanApplication, error)
	GetSchedule(ctx context.Context, principal auth.Principal, loanID string) (*domain.ScheduleResponse, error)
	GetOutstanding(ctx context.Context, principal auth.Principal, loanID string) (*domain.OutstandingResponse, error)
	GetPayments(ctx context.Context, principal auth.Principal, loanID string) (*domain.PaymentHistory, error)
	IsDelinquent(ctx context.Context, principal auth.Principal, loanID string) (*domain.DelinquentResponse, error)
	Decide(ctx context.Context, principal auth.Principal, loanID string, decision domain.LoanStatus) (*domain.LoanApplication, error)
	MakePayment(ctx context.Context, principal auth.Principal, loanID string, request *domain.MakePaymentRequest) (*domain.PaymentReceipt, error)
	RegisterApplicant(ctx context.Context, principal auth.Principal, request *domain.RegisterApplicantRequest) (*domain.Applicant, error)
	GetApplicant(ctx context.Context, principal auth.Principal, applicantID string) (*domain.Applicant, error)
}

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
}

func NewLoanHandler(service LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: NewValidator(),
	}
}

// NewValidator returns a validator that treats decimal.Decimal as its string
// form and understands the decimal_gt=<bound> tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThan(bound)
	})
	return v
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if !h.decode(w, r, &request) {
		return
	}

	loan, err := h.service.Apply(r.Context(), principal(r), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, loan)
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), principal(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), principal(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

// GetOutstanding handles GET /api/v1/loans/{loanId}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	outstanding, err := h.service.GetOutstanding(r.Context(), principal(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, outstanding)
}

// IsDelinquent handles GET /api/v1/loans/{loanId}/delinquent
func (h *LoanHandler) IsDelinquent(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.IsDelinquent(r.Context(), principal(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, status)
}

func (h *LoanHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.GetPayments(r.Context(), principal(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payments)
}

// MakePayment handles POST /api/v1/loans/{loanId}/payment
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var request domain.MakePaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	receipt, err := h.service.MakePayment(r.Context(), principal(r), mux.Vars(r)["loanId"], &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, receipt)
}

func (h *LoanHandler) ListApplicantLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListApplicantLoans(r.Context(), principal(r), mux.Vars(r)["applicantId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) RegisterApplicant(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterApplicantRequest
	if !h.decode(w, r, &request) {
		return
	}

	applicant, err := h.service.RegisterApplicant(r.Context(), principal(r), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, applicant)
}

func (h *LoanHandler) GetApplicant(w http.ResponseWriter, r *http.Request) {
	applicant, err := h.service.GetApplicant(r.Context(), principal(r), mux.Vars(r)["applicantId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, applicant)
}

// ListLoans handles GET /api/v1/admin/loans?status=
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	filter := domain.LoanFilter{Status: domain.LoanStatus(r.URL.Query().Get("status"))}

	loans, err := h.service.ListLoans(r.Context(), principal(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

// Decide handles POST /api/v1/admin/loans/{loanId}/decision
func (h *LoanHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var request domain.DecisionRequest
	if !h.decode(w, r, &request) {
		return
	}

	loan, err := h.service.Decide(r.Context(), principal(r), mux.Vars(r)["loanId"], request.Decision)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// decode parses and validates the JSON body, writing a 4xx on failure.
func (h *LoanHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return false
		}
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		be := customError.WrapValidation(err)
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				be.WithDetail(fe.Field(), fe.Tag())
			}
		}
		response.FromError(w, be)
		return false
	}
	return true
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
