package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	Configure("test-secret", time.Hour, false)
	rr := httptest.NewRecorder()
	CreateSession(rr, 42)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	uid, ok := ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(42), uid)
}

func TestParseTokenRejectsTamperingAndExpiry(t *testing.T) {
	Configure("test-secret", time.Hour, false)
	tok := Token(7)

	_, ok := ParseToken("8" + tok[1:])
	assert.False(t, ok, "tampered uid")
	_, ok = ParseToken("garbage")
	assert.False(t, ok)

	t.Cleanup(func() { now = time.Now })
	now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = ParseToken(tok)
	assert.False(t, ok, "expired")
}

func TestRequireAuth(t *testing.T) {
	Configure("test-secret", time.Hour, false)
	t.Cleanup(func() { SetUserVerifier(nil) })

	h := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := UserIDFromContext(r.Context())
		assert.Equal(t, uint(5), uid)
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: Token(5)})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	SetUserVerifier(func(context.Context, uint) bool { return false })
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
