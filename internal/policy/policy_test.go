package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/internal/db"
	"github.com/diewo77/go-stockpos/internal/dbtest"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/policy"
)

type owned struct{ userID uint }

func (o owned) GetUserID() uint { return o.userID }

func TestOwnershipPolicy(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	assert.True(t, p.Can(ctx, 1, gate.ActionList, nil))
	assert.True(t, p.Can(ctx, 42, gate.ActionView, owned{userID: 42}))
	assert.False(t, p.Can(ctx, 99, gate.ActionView, owned{userID: 42}))
	assert.False(t, p.Can(ctx, 1, gate.ActionView, struct{ ID uint }{ID: 1}))
}

func staticGate() *policy.AuthGate {
	resolver := gate.NewStaticResolver[uint]()
	resolver.Set(1, gate.NewStaticProfile(1, "manager", "order:*", "product:list"))
	resolver.Set(2, gate.NewStaticProfile(2, "cashier", "order:view", "order:list"))
	resolver.Set(3, gate.NewStaticProfile(3, "admin", gate.PermissionSuperAdmin))
	ag := policy.NewAuthGateWithResolver(resolver, time.Minute)
	ag.RegisterOwnership("order")
	return ag
}

func TestAuthGateOwnershipBypass(t *testing.T) {
	ag := staticGate()
	order := &models.Order{UserID: 2}
	foreign := &models.Order{UserID: 5}

	manager := auth.WithUserID(context.Background(), 1)
	cashier := auth.WithUserID(context.Background(), 2)
	admin := auth.WithUserID(context.Background(), 3)

	assert.NoError(t, ag.Authorize(manager, gate.ActionView, "order", foreign))
	assert.NoError(t, ag.Authorize(admin, gate.ActionView, "order", foreign))
	assert.NoError(t, ag.Authorize(cashier, gate.ActionView, "order", order))
	assert.ErrorIs(t, ag.Authorize(cashier, gate.ActionView, "order", foreign), gate.ErrUnauthorized)
	assert.ErrorIs(t, ag.Authorize(context.Background(), gate.ActionView, "order", order), gate.ErrUnauthorized)

	assert.True(t, ag.CanProfile(cashier, gate.ActionList, "order"))
	assert.False(t, ag.CanProfile(cashier, gate.ActionAny, "order"))
	assert.ElementsMatch(t, []string{"order:list", "order:view"}, ag.Permissions(cashier))
}

func serve(h http.Handler, userID uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequirePermissionAndAdmin(t *testing.T) {
	ag := staticGate()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	products := ag.RequirePermission("product", gate.ActionList)(ok)
	assert.Equal(t, http.StatusUnauthorized, serve(products, 0).Code)
	assert.Equal(t, http.StatusTeapot, serve(products, 1).Code)
	rec := serve(products, 2)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
	assert.Equal(t, http.StatusTeapot, serve(products, 3).Code)

	admin := ag.RequireAdmin()(ok)
	assert.Equal(t, http.StatusForbidden, serve(admin, 1).Code)
	assert.Equal(t, http.StatusTeapot, serve(admin, 3).Code)
	assert.Equal(t, http.StatusForbidden, serve(admin, 77).Code)
}

func TestDBProfileResolver(t *testing.T) {
	gdb := dbtest.OpenSeeded(t)
	var cashier models.Profile
	require.NoError(t, gdb.Where("name = ?", db.ProfileCashier).First(&cashier).Error)

	withProfile := models.User{Email: "c@example.com", Password: "x", ProfileID: &cashier.ID}
	without := models.User{Email: "n@example.com", Password: "x"}
	require.NoError(t, gdb.Create(&withProfile).Error)
	require.NoError(t, gdb.Create(&without).Error)

	r := policy.NewDBProfileResolver(gdb)
	p, err := r.Resolve(context.Background(), withProfile.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, db.ProfileCashier, p.Name())
	assert.True(t, p.HasPermission("pos:create"))
	assert.False(t, p.HasPermission("report:view"))

	p, err = r.Resolve(context.Background(), without.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	ag := policy.NewAuthGate(gdb, time.Minute)
	ctx := auth.WithUserID(context.Background(), without.ID)
	assert.False(t, ag.CanProfile(ctx, gate.ActionList, "product"))
}
