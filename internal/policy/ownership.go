package policy

import (
	"context"

	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/internal/models"
)

// OwnershipPolicy allows access to resources the user created.
// Resources that do not implement models.Ownable are denied.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy { return &OwnershipPolicy{} }

func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	owned, ok := resource.(models.Ownable)
	if !ok {
		return false
	}
	return owned.GetUserID() == userID
}

// BypassPolicy lets users for whom bypass returns true skip the inner
// policy. Managers holding "order:*" see every order while cashiers only
// see their own.
type BypassPolicy struct {
	inner  gate.Policy[uint]
	bypass func(ctx context.Context, userID uint) bool
}

func NewBypassPolicy(inner gate.Policy[uint], bypass func(ctx context.Context, userID uint) bool) *BypassPolicy {
	return &BypassPolicy{inner: inner, bypass: bypass}
}

func (p *BypassPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if p.bypass(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
