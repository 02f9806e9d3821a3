package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/store"
)

const activeRestaurantKey = "active_restaurant"

// RestaurantLister defines the upstream call for tenant selection.
// Satisfied by *api.Client.
type RestaurantLister interface {
	ListRestaurants(ctx context.Context) ([]api.Restaurant, error)
}

// RestaurantHandler handles tenant listing and the active-restaurant choice.
type RestaurantHandler struct {
	upstream RestaurantLister
	store    store.Store
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(upstream RestaurantLister, st store.Store) *RestaurantHandler {
	return &RestaurantHandler{upstream: upstream, store: st}
}

// RegisterRoutes registers restaurant endpoints on the given Chi router.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/active", h.GetActive)
	r.Put("/active", h.SetActive)
}

type setActiveRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

// List handles GET /restaurants.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.upstream.ListRestaurants(r.Context())
	if err != nil {
		slog.Error("list restaurants", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch restaurants"})
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

// GetActive handles GET /restaurants/active.
func (h *RestaurantHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.Get(r.Context(), sessionScope, activeRestaurantKey)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active restaurant"})
		return
	}
	if err != nil {
		slog.Error("get active restaurant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restaurant_id": string(id)})
}

// SetActive handles PUT /restaurants/active.
func (h *RestaurantHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RestaurantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_id is required"})
		return
	}
	if err := h.store.Set(r.Context(), sessionScope, activeRestaurantKey, []byte(req.RestaurantID)); err != nil {
		slog.Error("set active restaurant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restaurant_id": req.RestaurantID})
}
