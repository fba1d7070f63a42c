package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pdf"
	"github.com/diewo77/go-stockpos/internal/services"
)

type QuoteHandler struct {
	quotes  *services.QuoteService
	company *services.CompanyService
}

func NewQuoteHandler(quotes *services.QuoteService, company *services.CompanyService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, company: company}
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := httpx.PageParams(r)
	f := services.QuoteFilter{Status: models.QuoteStatus(q.Get("status")), Page: page}
	if v, err := strconv.ParseUint(q.Get("client_id"), 10, 64); err == nil {
		f.ClientID = uint(v)
	}
	items, total, err := h.quotes.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.QuoteInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	q, err := h.quotes.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// SetStatus moves a quote along draft → sent → accepted/rejected.
func (h *QuoteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		Status models.QuoteStatus `json:"status"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	q, err := h.quotes.SetStatus(r.Context(), id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.quotes.Convert(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePDF(w, r, func() (pdf.Document, error) {
		c, err := h.company.Get(r.Context())
		if err != nil {
			return pdf.Document{}, err
		}
		return pdf.Quote(q, *c), nil
	}, q.Number+".pdf")
}
