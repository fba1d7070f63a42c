package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/services"
)

type ReportHandler struct {
	reports  *services.ReportService
	expenses *services.ExpenseService
	now      func() time.Time
}

func NewReportHandler(reports *services.ReportService, expenses *services.ExpenseService) *ReportHandler {
	return &ReportHandler{reports: reports, expenses: expenses, now: time.Now}
}

type rangeResponse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Items any    `json:"items"`
}

// period parses from/to and answers 400 itself on failure.
func (h *ReportHandler) period(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, to, ok := dateRange(r, h.now())
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date_range", nil)
	}
	return from, to, ok
}

func writeRange(w http.ResponseWriter, from, to time.Time, items any) {
	httpx.JSON(w, http.StatusOK, rangeResponse{
		From:  from.Format(time.DateOnly),
		To:    to.AddDate(0, 0, -1).Format(time.DateOnly),
		Items: items,
	})
}

func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}
	series, err := h.reports.SalesSeries(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRange(w, from, to, series)
}

func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := h.reports.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRange(w, from, to, top)
}

func (h *ReportHandler) Expenses(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}
	rows, err := h.expenses.ByCategory(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRange(w, from, to, rows)
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}
	sum, err := h.reports.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
