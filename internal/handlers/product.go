package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/services"
)

type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := httpx.PageParams(r)
	f := services.ProductFilter{
		Search:     q.Get("q"),
		LowStock:   q.Get("low_stock") == "true",
		ActiveOnly: q.Get("active") == "true",
		Page:       page,
	}
	if v, err := strconv.ParseUint(q.Get("category_id"), 10, 64); err == nil {
		f.CategoryID = uint(v)
	}
	if v, err := strconv.ParseUint(q.Get("supplier_id"), 10, 64); err == nil {
		f.SupplierID = uint(v)
	}
	items, total, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	p, err := h.catalog.CreateProduct(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in services.ProductInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stockRequest struct {
	Delta     int                `json:"delta"`
	Reason    models.StockReason `json:"reason"`
	Reference string             `json:"reference"`
}

// AdjustStock applies a signed stock delta, e.g. {"delta": 12, "reason": "restock"}.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in stockRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	p, err := h.catalog.AdjustStock(r.Context(), userID, id, in.Delta, in.Reason, in.Reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	page := httpx.PageParams(r)
	moves, err := h.catalog.StockMovements(r.Context(), id, page.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, moves)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.LowStock(r.Context(), httpx.PageParams(r).Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type marginRequest struct {
	CostPrice     decimal.Decimal  `json:"cost_price"`
	MarginPercent *decimal.Decimal `json:"margin_percent,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
}

type marginResponse struct {
	CostPrice     decimal.Decimal `json:"cost_price"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Price         decimal.Decimal `json:"price"`
}

// Margin computes the price from a margin, or the margin from a price.
func (h *ProductHandler) Margin(w http.ResponseWriter, r *http.Request) {
	var in marginRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	if in.CostPrice.IsNegative() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"cost_price": "must_not_be_negative"})
		return
	}
	out := marginResponse{CostPrice: in.CostPrice}
	switch {
	case in.MarginPercent != nil:
		out.MarginPercent = *in.MarginPercent
		out.Price = services.ApplyMargin(in.CostPrice, *in.MarginPercent)
	case in.Price != nil:
		out.Price = *in.Price
		out.MarginPercent = services.MarginPercent(in.CostPrice, *in.Price)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"margin_percent": "required"})
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
