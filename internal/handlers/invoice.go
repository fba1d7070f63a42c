package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pdf"
	"github.com/diewo77/go-stockpos/internal/services"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	company  *services.CompanyService
}

func NewInvoiceHandler(invoices *services.InvoiceService, company *services.CompanyService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, company: company}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
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
	f := services.InvoiceFilter{Status: models.InvoiceStatus(q.Get("status")), From: from, To: to, Page: page}
	if v, err := strconv.ParseUint(q.Get("client_id"), 10, 64); err == nil {
		f.ClientID = uint(v)
	}
	items, total, err := h.invoices.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InvoiceInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.invoices.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// FromOrder invoices a till order. The body may name the client; otherwise
// the order's client is used.
func (h *InvoiceHandler) FromOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httpx.PathID(r, "order_id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		ClientID uint `json:"client_id"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.invoices.CreateFromOrder(r.Context(), userID, orderID, in.ClientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.invoices.Finalize)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.invoices.Cancel)
}

func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		Method cart.PaymentMethod `json:"payment_method"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.BadJSON(w, err)
		return
	}
	inv, err := h.invoices.MarkPaid(r.Context(), id, in.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uint) (*models.Invoice, error)) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	inv, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePDF(w, r, func() (pdf.Document, error) {
		c, err := h.company.Get(r.Context())
		if err != nil {
			return pdf.Document{}, err
		}
		return pdf.Invoice(inv, *c), nil
	}, inv.Number+".pdf")
}
