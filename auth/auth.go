// Package auth issues and verifies the signed session cookie and carries
// the authenticated user id through the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/go-stockpos/httpx"
)

type ctxKey string

const (
	SessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
	defaultSecret     = "devsessionsecret"
	DefaultSessionTTL = 14 * 24 * time.Hour
)

// UserVerifier confirms that a session's user still exists and is active.
type UserVerifier func(ctx context.Context, uid uint) bool

var (
	mu       sync.RWMutex
	secret   = []byte(defaultSecret)
	ttl      = DefaultSessionTTL
	secure   bool
	verifier UserVerifier
	now      = time.Now
)

// Configure sets the signing secret, lifetime and Secure flag of session
// cookies. An empty secret keeps the development default.
func Configure(sessionSecret string, sessionTTL time.Duration, secureCookie bool) {
	mu.Lock()
	defer mu.Unlock()
	if sessionSecret != "" {
		secret = []byte(sessionSecret)
	}
	if sessionTTL > 0 {
		ttl = sessionTTL
	}
	secure = secureCookie
}

// SetUserVerifier configures the verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) {
	mu.Lock()
	verifier = v
	mu.Unlock()
}

func sign(payload string) string {
	mu.RLock()
	mac := hmac.New(sha256.New, secret)
	mu.RUnlock()
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Token returns the cookie value for userID: "<uid>.<unix expiry>.<sig>".
func Token(userID uint) string {
	mu.RLock()
	exp := now().Add(ttl)
	mu.RUnlock()
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(exp.Unix(), 10)
	return payload + "." + sign(payload)
}

// CreateSession sets the signed session cookie.
func CreateSession(w http.ResponseWriter, userID uint) {
	mu.RLock()
	exp, sec := now().Add(ttl), secure
	mu.RUnlock()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    Token(userID),
		Path:     "/",
		HttpOnly: true,
		Secure:   sec,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseToken validates a cookie value and returns the user id.
func ParseToken(value string) (uint, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || now().Unix() >= exp {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// ParseSession reads and validates the session cookie.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	return ParseToken(c.Value)
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches the user id to the request context if a valid
// session is present. It never rejects a request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless the request carries a live session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		mu.RLock()
		v := verifier
		mu.RUnlock()
		if v != nil && !v(r.Context(), uid) {
			ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
