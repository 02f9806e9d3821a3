package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/service"
)

// TablesClient defines the upstream calls for table and bill management.
// Satisfied by *api.Client.
type TablesClient interface {
	ListTables(ctx context.Context, restaurantID string) ([]api.Table, error)
	ListBills(ctx context.Context, restaurantID, tableID string) ([]api.Bill, error)
	OpenBill(ctx context.Context, restaurantID, tableID string) (api.Bill, error)
	CloseBill(ctx context.Context, restaurantID, billID string) error
}

// CartSubmitter defines the draft-command flows backed by the cart service.
type CartSubmitter interface {
	SaveDraft(ctx context.Context, cart service.Cart) error
	LoadDraft(ctx context.Context, key string) (service.Cart, error)
	ListDrafts(ctx context.Context) (map[string]service.Cart, error)
	Submit(ctx context.Context, cart service.Cart) (api.Order, error)
}

// TablesHandler handles tables, bills, and command submission.
type TablesHandler struct {
	upstream TablesClient
	carts    CartSubmitter
}

// NewTablesHandler creates a new TablesHandler.
func NewTablesHandler(upstream TablesClient, carts CartSubmitter) *TablesHandler {
	return &TablesHandler{upstream: upstream, carts: carts}
}

// RegisterRoutes registers table/bill/command endpoints. Expected to be
// mounted inside a restaurant-scoped subrouter: /restaurants/{rid}
func (h *TablesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.ListTables)
	r.Get("/bills", h.ListBills)
	r.Post("/bills", h.OpenBill)
	r.Post("/bills/{bid}/close", h.CloseBill)
	r.Get("/commands/drafts", h.ListDrafts)
	r.Put("/commands/draft", h.SaveDraft)
	r.Post("/commands", h.SubmitCommand)
}

// --- Request types ---

type openBillRequest struct {
	TableID string `json:"table_id"`
}

// --- Handlers ---

// ListTables handles GET /restaurants/{rid}/tables.
func (h *TablesHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.upstream.ListTables(r.Context(), chi.URLParam(r, "rid"))
	if err != nil {
		slog.Error("list tables", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch tables"})
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

// ListBills handles GET /restaurants/{rid}/bills?table_id=.
func (h *TablesHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.upstream.ListBills(r.Context(), chi.URLParam(r, "rid"), r.URL.Query().Get("table_id"))
	if err != nil {
		slog.Error("list bills", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch bills"})
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

// OpenBill handles POST /restaurants/{rid}/bills.
func (h *TablesHandler) OpenBill(w http.ResponseWriter, r *http.Request) {
	var req openBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TableID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_id is required"})
		return
	}

	bill, err := h.upstream.OpenBill(r.Context(), chi.URLParam(r, "rid"), req.TableID)
	if err != nil {
		slog.Error("open bill", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to open bill"})
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

// CloseBill handles POST /restaurants/{rid}/bills/{bid}/close.
func (h *TablesHandler) CloseBill(w http.ResponseWriter, r *http.Request) {
	err := h.upstream.CloseBill(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "bid"))
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "bill not found"})
			return
		}
		slog.Error("close bill", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to close bill"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ListDrafts handles GET /restaurants/{rid}/commands/drafts.
func (h *TablesHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.carts.ListDrafts(r.Context())
	if err != nil {
		slog.Error("list drafts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

// SaveDraft handles PUT /restaurants/{rid}/commands/draft.
func (h *TablesHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var cart service.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cart.RestaurantID = chi.URLParam(r, "rid")

	if err := h.carts.SaveDraft(r.Context(), cart); err != nil {
		if errors.Is(err, service.ErrNoTarget) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("save draft", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// SubmitCommand handles POST /restaurants/{rid}/commands.
func (h *TablesHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	var cart service.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	cart.RestaurantID = chi.URLParam(r, "rid")

	order, err := h.carts.Submit(r.Context(), cart)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrProductNotFound),
			errors.Is(err, service.ErrNoTarget):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("submit command", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to submit command"})
		return
	}
	writeJSON(w, http.StatusCreated, orderToResponse(order))
}
