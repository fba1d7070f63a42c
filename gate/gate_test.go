package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-stockpos/gate"
)

type ownedOrder struct{ userID uint }

func ownerPolicy() gate.Policy[uint] {
	return gate.PolicyFunc[uint](func(_ context.Context, user uint, _ gate.Action, resource any) bool {
		o, ok := resource.(ownedOrder)
		return ok && o.userID == user
	})
}

func TestPermissionMatches(t *testing.T) {
	cases := []struct {
		granted, requested gate.Permission
		want               bool
	}{
		{"*:*", "product:delete", true},
		{"product:*", "product:update", true},
		{"product:*", "order:update", false},
		{"*:list", "invoice:list", true},
		{"*:list", "invoice:view", false},
		{"order:view", "order:view", true},
		{"order:view", "order:void", false},
		{"broken", "broken", true},
		{"broken", "order:view", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.granted.Matches(tc.requested), "%s grants %s", tc.granted, tc.requested)
	}
}

func TestPermissionParse(t *testing.T) {
	res, act := gate.NewPermission("pos", gate.ActionCreate).Parse()
	assert.Equal(t, "pos", res)
	assert.Equal(t, gate.ActionCreate, act)

	res, act = gate.Permission("nope").Parse()
	assert.Empty(t, res)
	assert.Empty(t, act)
}

func TestGateProfileAndPolicy(t *testing.T) {
	ctx := context.Background()
	resolver := gate.NewStaticResolver[uint]()
	resolver.Set(1, gate.NewStaticProfile(1, "cashier",
		gate.NewPermission("order", gate.ActionView),
		gate.NewPermission("order", gate.ActionCreate),
		gate.NewPermission("product", gate.ActionList),
	))
	resolver.Set(2, gate.NewStaticProfile(2, "admin", gate.PermissionSuperAdmin))

	g := gate.New[uint](resolver)
	g.Register("order", ownerPolicy())

	assert.True(t, g.CanProfile(ctx, 1, gate.ActionList, "product"))
	assert.False(t, g.CanProfile(ctx, 1, gate.ActionDelete, "product"))

	assert.True(t, g.Can(ctx, 1, gate.ActionView, "order", ownedOrder{userID: 1}))
	assert.False(t, g.Can(ctx, 1, gate.ActionView, "order", ownedOrder{userID: 9}))

	// the policy still applies to admins; bypassing it is the caller's job
	assert.False(t, g.Can(ctx, 2, gate.ActionView, "order", ownedOrder{userID: 9}))
	assert.True(t, g.CanProfile(ctx, 2, gate.ActionDelete, "invoice"))

	assert.ErrorIs(t, g.Authorize(ctx, 0, gate.ActionView, "order", nil), gate.ErrUnauthorized)
	assert.ErrorIs(t, g.Authorize(ctx, 3, gate.ActionView, "order", nil), gate.ErrUnauthorized)

	_, err := g.Profile(ctx, 3)
	assert.ErrorIs(t, err, gate.ErrNoProfile)
}

func TestStaticProfilePermissionsSorted(t *testing.T) {
	p := gate.NewStaticProfile(4, "m", "report:*", "expense:*", "client:list")
	require.Equal(t, []gate.Permission{"client:list", "expense:*", "report:*"}, p.Permissions())
	assert.Equal(t, "m", p.Name())
	assert.Equal(t, uint(4), p.ID())
}

type countingResolver struct {
	calls   int
	profile gate.Profile
}

func (c *countingResolver) Resolve(context.Context, uint) (gate.Profile, error) {
	c.calls++
	return c.profile, nil
}

func TestCachedResolverTTL(t *testing.T) {
	ctx := context.Background()
	inner := &countingResolver{profile: gate.NewStaticProfile(1, "cashier")}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cached := gate.NewCachedResolver[uint](inner, time.Minute).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		_, err := cached.Resolve(ctx, 7)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cached.Len())

	now = now.Add(2 * time.Minute)
	_, _ = cached.Resolve(ctx, 7)
	assert.Equal(t, 2, inner.calls)

	cached.Invalidate(7)
	_, _ = cached.Resolve(ctx, 7)
	assert.Equal(t, 3, inner.calls)

	cached.InvalidateAll()
	assert.Equal(t, 0, cached.Len())
}
