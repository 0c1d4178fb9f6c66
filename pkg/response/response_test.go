package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/loan-origination/pkg/errors"
)

func TestFromError_BusinessError(t *testing.T) {
	w := httptest.NewRecorder()

	FromError(w, customError.WrapInsufficientPayment(decimal.NewFromInt(50), decimal.NewFromInt(75)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, customError.ErrCodeInsufficientPayment, body.Code)
	assert.Equal(t, "75.00", body.Details["minimum_amount"])
}

func TestFromError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()

	FromError(w, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestFromError_DatabaseErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()

	FromError(w, customError.WrapDatabaseError(errors.New("pq: relation missing")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation missing")
}

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		customError.ErrCodeLoanNotFound:           http.StatusNotFound,
		customError.ErrCodeInstallmentNotFound:    http.StatusNotFound,
		customError.ErrCodeConflict:               http.StatusConflict,
		customError.ErrCodeLoanAlreadySettled:     http.StatusConflict,
		customError.ErrCodeInvalidStateTransition: http.StatusConflict,
		customError.ErrCodeOverpayment:            http.StatusBadRequest,
		customError.ErrCodeOutOfOrderPayment:      http.StatusBadRequest,
		customError.ErrCodeForbidden:              http.StatusForbidden,
		customError.ErrCodeDatabaseError:          http.StatusInternalServerError,
		customError.ErrCodeCacheError:             http.StatusInternalServerError,
		customError.ErrCodeRequestCanceled:        http.StatusServiceUnavailable,
	}

	for code, status := range tests {
		assert.Equal(t, status, StatusForCode(code), code)
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, mustData(t, w))
}

func mustData(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return string(body.Data)
}
