package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/shopspring/decimal"
)

// CatalogClient defines the upstream calls for catalog editing.
// Satisfied by *api.Client; narrow interface for testability.
type CatalogClient interface {
	ListCategories(ctx context.Context, restaurantID string) ([]api.Category, error)
	CreateCategory(ctx context.Context, restaurantID string, input api.CategoryInput) (api.Category, error)
	UpdateCategory(ctx context.Context, restaurantID, categoryID string, input api.CategoryInput) (api.Category, error)
	DeleteCategory(ctx context.Context, restaurantID, categoryID string) error
	ListProducts(ctx context.Context, restaurantID string) ([]api.Product, error)
	CreateProduct(ctx context.Context, restaurantID string, input api.ProductInput) (api.Product, error)
	UpdateProduct(ctx context.Context, restaurantID, productID string, input api.ProductInput) (api.Product, error)
	DeleteProduct(ctx context.Context, restaurantID, productID string) error
}

// CatalogHandler proxies catalog reads and edits to the upstream API.
type CatalogHandler struct {
	upstream CatalogClient
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(upstream CatalogClient) *CatalogHandler {
	return &CatalogHandler{upstream: upstream}
}

// RegisterRoutes registers catalog endpoints. Expected to be mounted inside
// a restaurant-scoped subrouter: /restaurants/{rid}
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{cid}", h.UpdateCategory)
	r.Delete("/categories/{cid}", h.DeleteCategory)
	r.Get("/products", h.ListProducts)
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{pid}", h.UpdateProduct)
	r.Delete("/products/{pid}", h.DeleteProduct)
}

// decodeProductInput validates the editable fields of a product request.
func decodeProductInput(r *http.Request) (api.ProductInput, string) {
	var input api.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, "invalid request body"
	}
	if input.Name == "" {
		return input, "name is required"
	}
	if input.Price == "" {
		return input, "price is required"
	}
	price, err := decimal.NewFromString(input.Price)
	if err != nil || price.IsNegative() {
		return input, "price must be a non-negative number"
	}
	return input, ""
}

// ListCategories handles GET /restaurants/{rid}/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.upstream.ListCategories(r.Context(), chi.URLParam(r, "rid"))
	if err != nil {
		slog.Error("list categories", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch categories"})
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /restaurants/{rid}/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input api.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.upstream.CreateCategory(r.Context(), chi.URLParam(r, "rid"), input)
	if err != nil {
		slog.Error("create category", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to create category"})
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /restaurants/{rid}/categories/{cid}.
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var input api.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.upstream.UpdateCategory(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "cid"), input)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		slog.Error("update category", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to update category"})
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /restaurants/{rid}/categories/{cid}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.upstream.DeleteCategory(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "cid")); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		slog.Error("delete category", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to delete category"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts handles GET /restaurants/{rid}/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.upstream.ListProducts(r.Context(), chi.URLParam(r, "rid"))
	if err != nil {
		slog.Error("list products", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch products"})
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct handles POST /restaurants/{rid}/products.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, problem := decodeProductInput(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	product, err := h.upstream.CreateProduct(r.Context(), chi.URLParam(r, "rid"), input)
	if err != nil {
		slog.Error("create product", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to create product"})
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /restaurants/{rid}/products/{pid}.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	input, problem := decodeProductInput(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	product, err := h.upstream.UpdateProduct(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "pid"), input)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		slog.Error("update product", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to update product"})
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /restaurants/{rid}/products/{pid}.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.upstream.DeleteProduct(r.Context(), chi.URLParam(r, "rid"), chi.URLParam(r, "pid")); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		slog.Error("delete product", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to delete product"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
