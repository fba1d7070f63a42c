package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/logging"
)

// DefaultCacheTTL bounds how stale a cached profile can be.
const DefaultCacheTTL = 5 * time.Minute

// AuthGate ties the permission gate to the session in the request context.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return NewAuthGateWithResolver(NewDBProfileResolver(db), cacheTTL)
}

// NewAuthGateWithResolver builds a gate over any resolver.
func NewAuthGateWithResolver(resolver gate.ProfileResolver[uint], cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](resolver, cacheTTL)
	return &AuthGate{Gate: gate.New[uint](cached), CacheResolver: cached}
}

func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uint]) {
	ag.Gate.Register(resourceType, p)
}

// RegisterOwnership restricts single-resource access to the owner unless
// the user holds every action on resourceType.
func (ag *AuthGate) RegisterOwnership(resourceType string) {
	ag.RegisterPolicy(resourceType, NewBypassPolicy(NewOwnershipPolicy(), func(ctx context.Context, userID uint) bool {
		return ag.Gate.CanProfile(ctx, userID, gate.ActionAny, resourceType)
	}))
}

// Authorize checks the current user against the action and, when resource
// is non-nil, the resource's policy.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks profile permissions only.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// Permissions lists the current user's permission codes.
func (ag *AuthGate) Permissions(ctx context.Context) []string {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil
	}
	profile, err := ag.Gate.Profile(ctx, userID)
	if err != nil {
		return []string{}
	}
	out := []string{}
	for _, p := range profile.Permissions() {
		out = append(out, string(p))
	}
	return out
}

// InvalidateUser drops the cached profile of one user. Call it after the
// user's profile assignment changes.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission answers 401 without a session and 403 when the
// profile lacks resourceType:action.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !ag.Gate.CanProfile(r.Context(), userID, action, resourceType) {
				logging.FromContext(r.Context()).Info("permission denied",
					zap.String("resource", resourceType), zap.String("action", string(action)))
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows only profiles holding "*:*".
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			profile, err := ag.Gate.Profile(r.Context(), userID)
			if err != nil || !profile.HasPermission(gate.PermissionSuperAdmin) {
				if err != nil && !errors.Is(err, gate.ErrNoProfile) && !errors.Is(err, gate.ErrUnauthorized) {
					logging.FromContext(r.Context()).Error("profile lookup failed", zap.Error(err))
				}
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
