package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
)

// OrdersClient defines the upstream order reads the handler needs.
// Satisfied by *api.Client.
type OrdersClient interface {
	ListOrders(ctx context.Context, restaurantID, status string) ([]api.Order, error)
	GetOrder(ctx context.Context, restaurantID, orderID string) (api.Order, error)
}

// OrdersHandler proxies order reads to the upstream API.
type OrdersHandler struct {
	upstream OrdersClient
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(upstream OrdersClient) *OrdersHandler {
	return &OrdersHandler{upstream: upstream}
}

// RegisterRoutes registers order endpoints. Expected to be mounted inside a
// restaurant-scoped subrouter: /restaurants/{rid}
func (h *OrdersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// --- Response types ---

type orderItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	PaidUnits int32  `json:"paid_units"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	Number      string              `json:"number"`
	TableNumber string              `json:"table_number,omitempty"`
	Status      string              `json:"status"`
	Total       string              `json:"total"`
	Items       []orderItemResponse `json:"items"`
}

func orderToResponse(o api.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		Number:      o.Number,
		TableNumber: o.TableNumber,
		Status:      o.Status,
		Total:       o.Total.String(),
		Items:       make([]orderItemResponse, len(o.Items)),
	}
	for i, item := range o.Items {
		resp.Items[i] = orderItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			PaidUnits: item.PaidUnits,
		}
	}
	return resp
}

// --- Handlers ---

// List handles GET /restaurants/{rid}/orders?status=.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.upstream.ListOrders(r.Context(), chi.URLParam(r, "rid"), r.URL.Query().Get("status"))
	if err != nil {
		slog.Error("list orders", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch orders"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = orderToResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /restaurants/{rid}/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.upstream.GetOrder(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		slog.Error("get order", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch order"})
		return
	}
	writeJSON(w, http.StatusOK, orderToResponse(order))
}
