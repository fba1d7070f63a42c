// Package pos holds the server-side point-of-sale state: one cart per
// cashier, mutated through the cart reducers, and the checkout guard that
// keeps a cashier from submitting the same cart twice.
package pos

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/logging"
)

// ErrCheckoutInProgress is returned while a previous checkout for the same
// cashier has not completed.
var ErrCheckoutInProgress = errors.New("checkout_in_progress")

// Submitter persists a priced cart and returns the stored receipt.
type Submitter[R any] interface {
	SubmitOrder(ctx context.Context, userID uint, req cart.OrderRequest) (R, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc[R any] func(ctx context.Context, userID uint, req cart.OrderRequest) (R, error)

func (f SubmitterFunc[R]) SubmitOrder(ctx context.Context, userID uint, req cart.OrderRequest) (R, error) {
	return f(ctx, userID, req)
}

// Adjustments are the cart-level settings a cashier can change. Nil fields
// are left as they are.
type Adjustments struct {
	Discount   *decimal.Decimal `json:"discount,omitempty"`
	TaxEnabled *bool            `json:"tax_enabled,omitempty"`
	Basis      *cart.PriceBasis `json:"basis,omitempty"`
}

// View is a cart together with its priced breakdown and checkout state.
type View struct {
	Cart      cart.Cart      `json:"cart"`
	Breakdown cart.Breakdown `json:"breakdown"`
	Units     int            `json:"units"`
	Pending   bool           `json:"checkout_pending"`
}

type session struct {
	cart    cart.Cart
	pending bool
}

// Register owns the carts of every cashier.
type Register struct {
	mu       sync.Mutex
	sessions map[uint]*session
}

// NewRegister returns an empty register.
func NewRegister() *Register {
	return &Register{sessions: make(map[uint]*session)}
}

func (r *Register) session(userID uint) *session {
	s, ok := r.sessions[userID]
	if !ok {
		s = &session{cart: cart.New()}
		r.sessions[userID] = s
	}
	return s
}

func (r *Register) view(s *session) View {
	return View{Cart: s.cart, Breakdown: cart.Summarize(s.cart), Units: s.cart.Units(), Pending: s.pending}
}

// mutate applies fn to the cashier's cart unless a checkout is pending.
func (r *Register) mutate(userID uint, fn func(cart.Cart) (cart.Cart, error)) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(userID)
	if s.pending {
		return r.view(s), ErrCheckoutInProgress
	}
	next, err := fn(s.cart)
	if err != nil {
		return r.view(s), err
	}
	s.cart = next
	return r.view(s), nil
}

// Cart returns the cashier's current cart.
func (r *Register) Cart(userID uint) View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(r.session(userID))
}

// Add puts qty units of p in the cart.
func (r *Register) Add(userID uint, p cart.Product, qty int) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		return cart.AddLine(c, p, qty, ""), nil
	})
}

// Update changes a line's quantity by delta, clamped at 1.
func (r *Register) Update(userID, productID uint, delta int) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		return cart.UpdateQuantity(c, productID, delta), nil
	})
}

// SetQuantity sets a line's quantity, clamped at 1.
func (r *Register) SetQuantity(userID, productID uint, qty int) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		return cart.SetQuantity(c, productID, qty), nil
	})
}

// Remove drops a line.
func (r *Register) Remove(userID, productID uint) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		return cart.Remove(c, productID), nil
	})
}

// Clear empties the lines and keeps the adjustments.
func (r *Register) Clear(userID uint) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		return cart.Clear(c), nil
	})
}

// Adjust applies discount, tax and basis changes atomically: on error the
// cart is left as it was.
func (r *Register) Adjust(userID uint, adj Adjustments) (View, error) {
	return r.mutate(userID, func(c cart.Cart) (cart.Cart, error) {
		var err error
		if adj.Discount != nil {
			if c, err = cart.WithDiscount(c, *adj.Discount); err != nil {
				return c, err
			}
		}
		if adj.TaxEnabled != nil {
			c = cart.WithTax(c, *adj.TaxEnabled)
		}
		if adj.Basis != nil {
			if c, err = cart.WithBasis(c, *adj.Basis); err != nil {
				return c, err
			}
		}
		return c, nil
	})
}

// Reset discards the cashier's cart and adjustments.
func (r *Register) Reset(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok && !s.pending {
		delete(r.sessions, userID)
	}
}

// Checkout prices the cashier's cart and hands it to sub. While sub runs
// the cart is frozen and further checkouts fail with ErrCheckoutInProgress.
// On success the cart is reset; on failure it is left untouched for a retry.
func Checkout[R any](ctx context.Context, r *Register, userID uint, sub Submitter[R], p cart.Payment) (R, error) {
	var zero R

	r.mu.Lock()
	s := r.session(userID)
	if s.pending {
		r.mu.Unlock()
		return zero, ErrCheckoutInProgress
	}
	req, err := cart.NewOrderRequest(s.cart, p)
	if err != nil {
		r.mu.Unlock()
		return zero, err
	}
	s.pending = true
	r.mu.Unlock()

	receipt, err := sub.SubmitOrder(ctx, userID, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	s.pending = false
	if err != nil {
		logging.FromContext(ctx).Warn("checkout failed", zap.Uint("user_id", userID), zap.Error(err))
		return zero, err
	}
	s.cart = cart.New()
	return receipt, nil
}
