package handlers

import (
	"net/http"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pos"
	"github.com/diewo77/go-stockpos/internal/services"
)

type AuthHandler struct {
	users    *services.UserService
	gate     Authorizer
	register *pos.Register
}

func NewAuthHandler(users *services.UserService, gate Authorizer, register *pos.Register) *AuthHandler {
	return &AuthHandler{users: users, gate: gate, register: register}
}

type meResponse struct {
	User        *models.User `json:"user"`
	Permissions []string     `json:"permissions"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	u, err := h.users.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	u, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusOK, u)
}

// Logout ends the session and drops the cashier's open cart.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		h.register.Reset(userID)
	}
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user and the permission codes it holds.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	u, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: u, Permissions: h.gate.Permissions(r.Context())})
}
