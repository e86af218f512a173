package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/plan-gate/internal/http/cookies"
	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestMaker() *jwt.MakerImpl {
	return jwt.NewMaker("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
}

func protectedHandler(t *testing.T, wantUID, wantRole string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := r.Context().Value(UserUID).(string)
		role, _ := r.Context().Value(Role).(string)
		assert.Equal(t, wantUID, uid)
		assert.Equal(t, wantRole, role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware_CookieToken(t *testing.T) {
	maker := newTestMaker()
	token, err := maker.GenerateAccessToken("uid-1", "user")
	require.NoError(t, err)

	mw := JWTMiddleware(maker, newNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessTokenName, Value: token})
	rec := httptest.NewRecorder()

	mw(protectedHandler(t, "uid-1", "user")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_BearerToken(t *testing.T) {
	maker := newTestMaker()
	token, err := maker.GenerateAccessToken("uid-2", "admin")
	require.NoError(t, err)

	mw := JWTMiddleware(maker, newNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(protectedHandler(t, "uid-2", "admin")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_CookiePreferredOverHeader(t *testing.T) {
	maker := newTestMaker()
	cookieToken, err := maker.GenerateAccessToken("uid-cookie", "user")
	require.NoError(t, err)
	headerToken, err := maker.GenerateAccessToken("uid-header", "user")
	require.NoError(t, err)

	mw := JWTMiddleware(maker, newNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessTokenName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	mw(protectedHandler(t, "uid-cookie", "user")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	mw := JWTMiddleware(newTestMaker(), newNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/plan", nil)
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not-a-jwt"},
		{
			name: "refresh token is not an access token",
			token: func() string {
				token, err := newTestMaker().GenerateRefreshToken("uid-1", "user")
				require.NoError(t, err)
				return token
			}(),
		},
		{
			name: "expired token",
			token: func() string {
				expired := jwt.NewMaker("access-secret", "refresh-secret", -time.Minute, 168*time.Hour)
				token, err := expired.GenerateAccessToken("uid-1", "user")
				require.NoError(t, err)
				return token
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := JWTMiddleware(newTestMaker(), newNoopLogger())
			req := httptest.NewRequest(http.MethodGet, "/plan", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			called := false
			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireRole(t *testing.T) {
	maker := newTestMaker()
	adminToken, err := maker.GenerateAccessToken("uid-1", "admin")
	require.NoError(t, err)
	userToken, err := maker.GenerateAccessToken("uid-2", "user")
	require.NoError(t, err)

	chain := func(token string) *httptest.ResponseRecorder {
		h := JWTMiddleware(maker, newNoopLogger())(
			RequireRole("admin", newNoopLogger())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				})))
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, chain(adminToken).Code)
	assert.Equal(t, http.StatusForbidden, chain(userToken).Code)
}
