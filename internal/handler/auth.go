// Package handler implements the terminal's local HTTP surface: the JSON
// endpoints the desktop UI talks to on loopback.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/auth"
	"github.com/kiwari-pos/terminal/internal/store"
)

// sessionScope is the local store scope for session state (lock PIN,
// active restaurant).
const sessionScope = "session"

const pinHashKey = "pin_hash"

// Authenticator defines the upstream auth calls the handler needs.
// Satisfied by *api.Client; narrow interface for testability.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.TokenResponse, error)
	Refresh(ctx context.Context) (*api.TokenResponse, error)
}

// AuthHandler handles login, token refresh, and the register lock screen.
type AuthHandler struct {
	upstream Authenticator
	store    store.Store
	locked   atomic.Bool
}

// NewAuthHandler creates a new AuthHandler. The terminal starts locked when
// a lock PIN exists from a previous run.
func NewAuthHandler(upstream Authenticator, st store.Store) *AuthHandler {
	h := &AuthHandler{upstream: upstream, store: st}
	if _, err := st.Get(context.Background(), sessionScope, pinHashKey); err == nil {
		h.locked.Store(true)
	}
	return h
}

// Locked reports whether the lock screen is up; used by the router gate.
func (h *AuthHandler) Locked() bool {
	return h.locked.Load()
}

// RegisterPublicRoutes registers the endpoints reachable before login and
// while locked.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/unlock", h.Unlock)
}

// RegisterRoutes registers the endpoints that require an unlocked session.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/pin", h.SetPin)
	r.Post("/auth/lock", h.Lock)
}

// --- Request types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type pinRequest struct {
	Pin string `json:"pin"`
}

// --- Handlers ---

// Login handles POST /auth/login by forwarding credentials upstream.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	tokens, err := h.upstream.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		slog.Error("upstream login failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "auth service unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.upstream.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired"})
			return
		}
		slog.Error("upstream refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "auth service unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// SetPin handles POST /auth/pin, setting or replacing the lock PIN.
func (h *AuthHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	hash, err := auth.HashPin(req.Pin)
	if err != nil {
		if errors.Is(err, auth.ErrPinTooShort) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("hash pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if err := h.store.Set(r.Context(), sessionScope, pinHashKey, []byte(hash)); err != nil {
		slog.Error("store pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Lock handles POST /auth/lock, raising the lock screen.
func (h *AuthHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Get(r.Context(), sessionScope, pinHashKey); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no lock pin configured"})
		return
	}
	h.locked.Store(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

// Unlock handles POST /auth/unlock.
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	hash, err := h.store.Get(r.Context(), sessionScope, pinHashKey)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no lock pin configured"})
		return
	}
	if err := auth.VerifyPin(string(hash), req.Pin); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect pin"})
		return
	}
	h.locked.Store(false)
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// --- Helpers ---

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
