package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/services"
)

type ExpenseHandler struct {
	expenses *services.ExpenseService
}

func NewExpenseHandler(expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
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
	f := services.ExpenseFilter{From: from, To: to, Page: page}
	if v, err := strconv.ParseUint(r.URL.Query().Get("category_id"), 10, 64); err == nil {
		f.CategoryID = uint(v)
	}
	items, total, err := h.expenses.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ExpenseInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	e, err := h.expenses.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	if err := h.expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpenseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.expenses.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *ExpenseHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	c, err := h.expenses.CreateCategory(r.Context(), in.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}
