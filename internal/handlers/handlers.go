// Package handlers exposes the services as a JSON HTTP API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/pos"
	"github.com/diewo77/go-stockpos/internal/services"
)

// Authorizer checks the current user against an action and, optionally, a
// loaded resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	CanProfile(ctx context.Context, action gate.Action, resourceType string) bool
	Permissions(ctx context.Context) []string
}

// ProfileCache is invalidated when a user's profile changes.
type ProfileCache interface {
	InvalidateUser(userID uint)
}

type listResponse struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func writeList(w http.ResponseWriter, items any, total int64, page httpx.Page) {
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// businessErrors are rule failures reported as 422 with their own code.
var businessErrors = []error{
	cart.ErrEmptyCart,
	cart.ErrNegativeDiscount,
	cart.ErrUnknownPriceBasis,
	cart.ErrInsufficientPayment,
	cart.ErrUnknownPayment,
	services.ErrProductInactive,
	services.ErrNoItems,
}

// conflictErrors are reported as 409.
var conflictErrors = []error{
	services.ErrDuplicateSKU,
	services.ErrDuplicateName,
	services.ErrEmailTaken,
	services.ErrInvalidTransition,
	services.ErrAlreadyInvoiced,
	services.ErrInUse,
	pos.ErrCheckoutInProgress,
}

// writeError maps a service error to its HTTP response. Unknown errors are
// logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := services.IsValidation(err); ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var se *services.StockError
	if errors.As(err, &se) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, services.ErrInsufficientStock.Error(), se)
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	case errors.Is(err, gate.ErrUnauthorized), errors.Is(err, gate.ErrNoProfile):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error(), nil)
		return
	case services.IsInvalidQuantity(err):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_quantity", nil)
		return
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			httpx.JSONError(w, http.StatusConflict, target.Error(), nil)
			return
		}
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, target.Error(), nil)
			return
		}
	}
	logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

func badID(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
}

// dateRange reads from/to (YYYY-MM-DD, to inclusive) from the query.
// Missing bounds default to the 30 days ending today.
func dateRange(r *http.Request, now time.Time) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to = today.AddDate(0, 0, 1)
	from = today.AddDate(0, 0, -29)
	if s := q.Get("to"); s != "" {
		d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
		if err != nil {
			return from, to, false
		}
		to = d.AddDate(0, 0, 1)
	}
	if s := q.Get("from"); s != "" {
		d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
		if err != nil {
			return from, to, false
		}
		from = d
	}
	return from, to, from.Before(to)
}

// optionalDate parses a YYYY-MM-DD query parameter; empty yields the zero
// time.
func optionalDate(r *http.Request, name string) (time.Time, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, true
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	return d, err == nil
}
