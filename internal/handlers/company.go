package handlers

import (
	"net/http"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/services"
)

type CompanyHandler struct {
	company *services.CompanyService
}

func NewCompanyHandler(company *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{company: company}
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.company.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.CompanyInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	c, err := h.company.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
