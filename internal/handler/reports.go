package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
)

// ReportsClient defines the upstream report queries the dashboard needs.
// Satisfied by *api.Client.
type ReportsClient interface {
	DailySales(ctx context.Context, restaurantID, start, end string) ([]api.DailySalesRow, error)
	ProductSales(ctx context.Context, restaurantID, start, end string) ([]api.ProductSalesRow, error)
	PaymentSummary(ctx context.Context, restaurantID, start, end string) ([]api.PaymentSummaryRow, error)
}

// ReportsHandler proxies dashboard report queries to the upstream API.
type ReportsHandler struct {
	upstream ReportsClient
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(upstream ReportsClient) *ReportsHandler {
	return &ReportsHandler{upstream: upstream}
}

// RegisterRoutes registers report endpoints. Expected to be mounted inside a
// restaurant-scoped subrouter: /restaurants/{rid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/product-sales", h.ProductSales)
	r.Get("/payment-summary", h.PaymentSummary)
}

func reportRange(r *http.Request) (start, end string) {
	return r.URL.Query().Get("start"), r.URL.Query().Get("end")
}

// DailySales handles GET /restaurants/{rid}/reports/daily-sales.
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end := reportRange(r)
	rows, err := h.upstream.DailySales(r.Context(), chi.URLParam(r, "rid"), start, end)
	if err != nil {
		slog.Error("daily sales report", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch report"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ProductSales handles GET /restaurants/{rid}/reports/product-sales.
func (h *ReportsHandler) ProductSales(w http.ResponseWriter, r *http.Request) {
	start, end := reportRange(r)
	rows, err := h.upstream.ProductSales(r.Context(), chi.URLParam(r, "rid"), start, end)
	if err != nil {
		slog.Error("product sales report", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch report"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// PaymentSummary handles GET /restaurants/{rid}/reports/payment-summary.
func (h *ReportsHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	start, end := reportRange(r)
	rows, err := h.upstream.PaymentSummary(r.Context(), chi.URLParam(r, "rid"), start, end)
	if err != nil {
		slog.Error("payment summary report", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch report"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
