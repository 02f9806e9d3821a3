package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Restaurant is one tenant the logged-in user can operate.
type Restaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is one catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId"`
	Active      bool            `json:"active"`
}

// Category groups products in the catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  string `json:"categoryId"`
}

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Name string `json:"name"`
}

// ListRestaurants returns the restaurants available to the current user.
func (c *Client) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var out []Restaurant
	if _, err := c.do(ctx, http.MethodGet, "/restaurants", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategories returns the restaurant's catalog categories.
func (c *Client) ListCategories(ctx context.Context, restaurantID string) ([]Category, error) {
	var out []Category
	if _, err := c.do(ctx, http.MethodGet, "/categories", restaurantQuery(restaurantID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory adds a catalog category.
func (c *Client) CreateCategory(ctx context.Context, restaurantID string, input CategoryInput) (Category, error) {
	var out Category
	if _, err := c.do(ctx, http.MethodPost, "/categories", restaurantQuery(restaurantID), input, &out); err != nil {
		return Category{}, err
	}
	return out, nil
}

// UpdateCategory renames a catalog category.
func (c *Client) UpdateCategory(ctx context.Context, restaurantID, categoryID string, input CategoryInput) (Category, error) {
	var out Category
	if _, err := c.do(ctx, http.MethodPut, "/categories/"+categoryID, restaurantQuery(restaurantID), input, &out); err != nil {
		return Category{}, err
	}
	return out, nil
}

// DeleteCategory removes a catalog category.
func (c *Client) DeleteCategory(ctx context.Context, restaurantID, categoryID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/categories/"+categoryID, restaurantQuery(restaurantID), nil, nil)
	return err
}

// ListProducts returns the restaurant's products.
func (c *Client) ListProducts(ctx context.Context, restaurantID string) ([]Product, error) {
	var out []Product
	if _, err := c.do(ctx, http.MethodGet, "/products", restaurantQuery(restaurantID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct adds a catalog entry.
func (c *Client) CreateProduct(ctx context.Context, restaurantID string, input ProductInput) (Product, error) {
	var out Product
	if _, err := c.do(ctx, http.MethodPost, "/products", restaurantQuery(restaurantID), input, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// UpdateProduct replaces a catalog entry's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, restaurantID, productID string, input ProductInput) (Product, error) {
	var out Product
	if _, err := c.do(ctx, http.MethodPut, "/products/"+productID, restaurantQuery(restaurantID), input, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// DeleteProduct removes a catalog entry.
func (c *Client) DeleteProduct(ctx context.Context, restaurantID, productID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+productID, restaurantQuery(restaurantID), nil, nil)
	return err
}
