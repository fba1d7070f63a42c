package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/pos"
	"github.com/diewo77/go-stockpos/internal/services"
)

// AdminHandler manages profile assignment. Every change invalidates the
// cached profile of the affected user.
type AdminHandler struct {
	users    *services.UserService
	cache    ProfileCache
	register *pos.Register
}

func NewAdminHandler(users *services.UserService, cache ProfileCache, register *pos.Register) *AdminHandler {
	return &AdminHandler{users: users, cache: cache, register: register}
}

func (h *AdminHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.users.Profiles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profiles)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

// AssignProfile sets {"profile_id": n}; 0 or null removes the profile.
func (h *AdminHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		ProfileID *uint `json:"profile_id"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	var profileID uint
	if in.ProfileID != nil {
		profileID = *in.ProfileID
	}
	u, err := h.users.AssignProfile(r.Context(), id, profileID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.InvalidateUser(id)
	httpx.JSON(w, http.StatusOK, u)
}

// SetStatus enables or disables an account. Admins cannot disable
// themselves. Disabling drops the user's open cart.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		Disabled bool `json:"disabled"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	if self, _ := auth.UserIDFromContext(r.Context()); self == id && in.Disabled {
		httpx.JSONError(w, http.StatusConflict, "cannot_disable_self", nil)
		return
	}
	if err := h.users.SetDisabled(r.Context(), id, in.Disabled); err != nil {
		writeError(w, r, err)
		return
	}
	h.cache.InvalidateUser(id)
	if in.Disabled {
		h.register.Reset(id)
	}
	logging.FromContext(r.Context()).Info("account status changed", zap.Uint("target_user_id", id), zap.Bool("disabled", in.Disabled))
	w.WriteHeader(http.StatusNoContent)
}
