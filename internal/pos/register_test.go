package pos

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-stockpos/internal/cart"
)

func widget() cart.Product {
	return cart.Product{ID: 1, Name: "Widget", RetailPrice: decimal.NewFromInt(1000), WholesalePrice: decimal.NewFromInt(800), Stock: 5}
}

func TestRegisterMutations(t *testing.T) {
	r := NewRegister()
	v, err := r.Add(7, widget(), 1)
	require.NoError(t, err)
	v, err = r.Add(7, widget(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Units)
	assert.True(t, v.Breakdown.Total.Equal(decimal.NewFromInt(2000)))

	v, _ = r.Update(7, 1, -10)
	assert.Equal(t, 1, v.Cart.Lines[0].Quantity)

	tax := true
	disc := decimal.NewFromInt(60)
	v, err = r.Adjust(7, Adjustments{Discount: &disc, TaxEnabled: &tax})
	require.NoError(t, err)
	assert.True(t, v.Breakdown.Total.Equal(decimal.NewFromInt(1120)), v.Breakdown.Total.String())

	// other cashiers are independent
	assert.True(t, r.Cart(8).Cart.Empty())

	v, _ = r.Remove(7, 1)
	assert.True(t, v.Cart.Empty())
	assert.True(t, v.Cart.TaxEnabled)
}

func TestAdjustIsAtomic(t *testing.T) {
	r := NewRegister()
	disc := decimal.NewFromInt(5)
	bad := cart.PriceBasis("vip")
	_, err := r.Adjust(1, Adjustments{Discount: &disc, Basis: &bad})
	assert.ErrorIs(t, err, cart.ErrUnknownPriceBasis)
	assert.True(t, r.Cart(1).Cart.Discount.IsZero())
}

func TestCheckoutSuccessResetsCart(t *testing.T) {
	r := NewRegister()
	_, _ = r.Add(1, widget(), 2)

	var got cart.OrderRequest
	sub := SubmitterFunc[string](func(_ context.Context, uid uint, req cart.OrderRequest) (string, error) {
		assert.Equal(t, uint(1), uid)
		got = req
		return "ORD-1", nil
	})
	receipt, err := Checkout[string](context.Background(), r, 1, sub, cart.Payment{Method: cart.Cash})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", receipt)
	assert.True(t, got.Breakdown.Subtotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, got.Breakdown.Total.Equal(decimal.NewFromInt(2000)))
	assert.True(t, r.Cart(1).Cart.Empty())
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	r := NewRegister()
	_, _ = r.Add(1, widget(), 2)
	boom := errors.New("boom")
	sub := SubmitterFunc[string](func(context.Context, uint, cart.OrderRequest) (string, error) { return "", boom })

	_, err := Checkout[string](context.Background(), r, 1, sub, cart.Payment{})
	assert.ErrorIs(t, err, boom)
	v := r.Cart(1)
	assert.Equal(t, 2, v.Units)
	assert.False(t, v.Pending)
}

func TestCheckoutEmptyCart(t *testing.T) {
	r := NewRegister()
	sub := SubmitterFunc[string](func(context.Context, uint, cart.OrderRequest) (string, error) {
		t.Fatal("submitter must not be called")
		return "", nil
	})
	_, err := Checkout[string](context.Background(), r, 1, sub, cart.Payment{})
	assert.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestCheckoutWhilePending(t *testing.T) {
	r := NewRegister()
	_, _ = r.Add(1, widget(), 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	sub := SubmitterFunc[string](func(context.Context, uint, cart.OrderRequest) (string, error) {
		close(entered)
		<-release
		return "ok", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := Checkout[string](context.Background(), r, 1, sub, cart.Payment{})
		assert.NoError(t, err)
	}()
	<-entered

	_, err := Checkout[string](context.Background(), r, 1, sub, cart.Payment{})
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	_, err = r.Add(1, widget(), 1)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.True(t, r.Cart(1).Pending)

	close(release)
	wg.Wait()
	assert.False(t, r.Cart(1).Pending)
	assert.True(t, r.Cart(1).Cart.Empty())
}
