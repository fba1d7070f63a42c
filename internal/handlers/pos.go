package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pos"
	"github.com/diewo77/go-stockpos/internal/services"
)

// POSHandler drives the server-side register of the signed-in cashier.
type POSHandler struct {
	register *pos.Register
	catalog  *services.CatalogService
	orders   *services.OrderService
}

func NewPOSHandler(register *pos.Register, catalog *services.CatalogService, orders *services.OrderService) *POSHandler {
	return &POSHandler{register: register, catalog: catalog, orders: orders}
}

func (h *POSHandler) Cart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, h.register.Cart(userID))
}

func (h *POSHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.register.Clear(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type addLineRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// AddLine adds a catalog product to the cart. A missing quantity adds one
// unit.
func (h *POSHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var in addLineRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_quantity", nil)
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), in.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !p.Active {
		writeError(w, r, services.ErrProductInactive)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.register.Add(userID, p.CartProduct(), in.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type updateLineRequest struct {
	Delta    *int `json:"delta,omitempty"`
	Quantity *int `json:"quantity,omitempty"`
}

// UpdateLine changes a line by a delta or to an absolute quantity. Either
// way the quantity never drops below one.
func (h *POSHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := httpx.PathID(r, "product_id")
	if !ok {
		badID(w)
		return
	}
	var in updateLineRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	var (
		view pos.View
		err  error
	)
	switch {
	case in.Quantity != nil:
		view, err = h.register.SetQuantity(userID, productID, *in.Quantity)
	case in.Delta != nil:
		view, err = h.register.Update(userID, productID, *in.Delta)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"delta": "required"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *POSHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := httpx.PathID(r, "product_id")
	if !ok {
		badID(w)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.register.Remove(userID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *POSHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var in pos.Adjustments
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := h.register.Adjust(userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

type checkoutRequest struct {
	PaymentMethod cart.PaymentMethod `json:"payment_method"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	ClientID      *uint              `json:"client_id,omitempty"`
}

// Checkout submits the cashier's cart. On success the cart is emptied and
// the order returned; on failure the cart is kept for a retry. An empty body
// pays the exact total in cash.
func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in checkoutRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	submit := pos.SubmitterFunc[*models.Order](func(ctx context.Context, uid uint, req cart.OrderRequest) (*models.Order, error) {
		return h.orders.SubmitOrderFor(ctx, uid, in.ClientID, req)
	})
	order, err := pos.Checkout[*models.Order](r.Context(), h.register, userID, submit, cart.Payment{Method: in.PaymentMethod, AmountPaid: in.AmountPaid})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}
