package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sjmc-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "admin@sjmc.com", Email: "admin@sjmc.com"}, nil
	}
	return auth.Claims{}, errors.New("bad token")
}

func protected(verifier auth.AuthVerifier) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := GetClaims(r.Context())
		_, _ = w.Write([]byte(c.Email))
	})
	return AuthContext(verifier)(RequireAuth(ok))
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name     string
		verifier auth.AuthVerifier
		header   string
		value    string
		status   int
		body     string
	}{
		{"no token", stubVerifier{}, "", "", http.StatusUnauthorized, "Authentication token required"},
		{"not bearer", stubVerifier{}, "Authorization", "Basic abc", http.StatusUnauthorized, "Authentication token required"},
		{"invalid token", stubVerifier{}, "Authorization", "Bearer nope", http.StatusForbidden, "Invalid or expired token"},
		{"valid token", stubVerifier{}, "Authorization", "bearer good", http.StatusOK, "admin@sjmc.com"},
		{"dev mode header", nil, "X-Debug-User-ID", "dev@sjmc.com", http.StatusOK, "dev@sjmc.com"},
		{"dev mode without header", nil, "", "", http.StatusUnauthorized, "Authentication token required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()

			protected(tc.verifier).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer  abc "))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}
