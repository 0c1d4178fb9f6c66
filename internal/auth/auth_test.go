package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthenticator("secret", "loan-origination")

	token, err := a.IssueToken(Principal{ID: "applicant-1", Role: RoleApplicant}, time.Hour)
	require.NoError(t, err)

	p, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "applicant-1", p.ID)
	assert.Equal(t, RoleApplicant, p.Role)
	assert.False(t, p.IsAdmin())
}

func TestParse_Rejects(t *testing.T) {
	a := NewAuthenticator("secret", "loan-origination")
	good := Principal{ID: "applicant-1", Role: RoleApplicant}

	expired, err := a.IssueToken(good, -time.Minute)
	require.NoError(t, err)
	otherSecret, err := NewAuthenticator("other", "loan-origination").IssueToken(good, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewAuthenticator("secret", "someone-else").IssueToken(good, time.Hour)
	require.NoError(t, err)
	badRole, err := a.IssueToken(Principal{ID: "applicant-1", Role: "root"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := a.IssueToken(Principal{Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "applicant-1", Issuer: "loan-origination"},
		Role:             RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
		{"unknown role", badRole},
		{"missing subject", noSubject},
		{"alg none", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Parse(tt.token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestMiddleware(t *testing.T) {
	a := NewAuthenticator("secret", "")
	adminToken, err := a.IssueToken(Principal{ID: "admin-1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	var seen Principal
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + adminToken, http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}

	assert.Equal(t, Principal{ID: "admin-1", Role: RoleAdmin}, seen)
}

func TestPrincipal(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithPrincipal(context.Background(), Principal{ID: "a", Role: RoleApplicant})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.True(t, p.CanAccess("a"))
	assert.False(t, p.CanAccess("b"))
	assert.True(t, Principal{ID: "x", Role: RoleAdmin}.CanAccess("b"))
}
