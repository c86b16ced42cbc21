package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "gymcheckins-tests"}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeGymsWrite},
	}
}

func TestParseAcceptsValidToken(t *testing.T) {
	claims, err := Parse(signToken(t, testConfig.Secret, validClaims()), testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeGymsWrite))
	require.False(t, claims.HasScope(ScopeCheckInsValidate))
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 2*time.Second)
}

func TestParseRejectsBadTokens(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	noSubject := validClaims()
	delete(noSubject, "sub")

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "  ", want: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "wrong secret", token: signToken(t, "other", validClaims()), want: ErrInvalidToken},
		{name: "expired", token: signToken(t, testConfig.Secret, expired), want: ErrInvalidToken},
		{name: "wrong issuer", token: signToken(t, testConfig.Secret, wrongIssuer), want: ErrInvalidToken},
		{name: "no subject", token: signToken(t, testConfig.Secret, noSubject), want: ErrInvalidToken},
		{name: "no expiry", token: signToken(t, testConfig.Secret, noExpiry), want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, testConfig)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeScopes(t *testing.T) {
	require.Len(t, normalizeScopes("gyms:write  check-ins:validate"), 2)
	require.Len(t, normalizeScopes([]interface{}{"gyms:write", "", 3}), 1)
	require.Empty(t, normalizeScopes(nil))
}

func TestMiddlewareWrap(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig).Wrap(next)

	t.Run("public path skips auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check-ins/history", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"type":"unauthorized","detail":"`+ErrMissingToken.Error()+`"}`, rec.Body.String())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/check-ins/history", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/check-ins/history", nil)
		req.Header.Set("Authorization", "bearer "+signToken(t, testConfig.Secret, validClaims()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, "user-1", seen.Subject)
	})
}

func TestRequireScope(t *testing.T) {
	handler := RequireScope(ScopeCheckInsValidate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	member := &Claims{Subject: "user-1", Scopes: map[string]struct{}{ScopeGymsWrite: {}}}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/", nil).WithContext(WithClaims(t.Context(), member)))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"type":"forbidden","detail":"missing scope `+ScopeCheckInsValidate+`"}`, rec.Body.String())

	admin := &Claims{Subject: "admin", Scopes: map[string]struct{}{ScopeCheckInsValidate: {}}}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/", nil).WithContext(WithClaims(t.Context(), admin)))
	require.Equal(t, http.StatusOK, rec.Code)
}
