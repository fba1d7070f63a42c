package handlers

import (
	"net/http"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pdf"
	"github.com/diewo77/go-stockpos/internal/services"
)

const resourceOrder = "order"

type OrderHandler struct {
	orders  *services.OrderService
	company *services.CompanyService
	gate    Authorizer
}

func NewOrderHandler(orders *services.OrderService, company *services.CompanyService, gate Authorizer) *OrderHandler {
	return &OrderHandler{orders: orders, company: company, gate: gate}
}

// Create is the stateless checkout: the client sends product ids and
// quantities and the server prices them.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CheckoutInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	order, err := h.orders.CheckoutFromItems(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// List shows every order to users holding order:*, and only their own
// orders to everyone else.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.PageParams(r)
	from, ok := optionalDate(r, "from")
	to, ok2 := optionalDate(r, "to")
	if !ok || !ok2 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", nil)
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	f := services.OrderFilter{Status: models.OrderStatus(r.URL.Query().Get("status")), From: from, To: to, Page: page}
	if !h.gate.CanProfile(r.Context(), gate.ActionAny, resourceOrder) {
		f.UserID, _ = auth.UserIDFromContext(r.Context())
	}
	items, total, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return nil, false
	}
	o, err := h.orders.Get(r.Context(), id)
	if err == nil {
		err = h.gate.Authorize(r.Context(), gate.ActionView, resourceOrder, o)
	}
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return o, true
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	if o, ok := h.load(w, r); ok {
		httpx.JSON(w, http.StatusOK, o)
	}
}

func (h *OrderHandler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	o, err := h.orders.Void(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	writePDF(w, r, func() (pdf.Document, error) {
		c, err := h.company.Get(r.Context())
		if err != nil {
			return pdf.Document{}, err
		}
		return pdf.Receipt(o, *c), nil
	}, o.Number+".pdf")
}
