package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// OrderItem is one product line on an upstream order.
type OrderItem struct {
	ID        string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	PaidUnits int32
}

// Order is an upstream order with its line items.
type Order struct {
	ID           string
	Number       string
	RestaurantID string
	TableNumber  string
	Status       string
	Total        decimal.Decimal
	Items        []OrderItem
	// Version is the ETag the backend returned for the order, empty when
	// the backend does not supply one.
	Version string
}

// --- Wire types ---
//
// The backend has been loose about item field names across versions:
// "productName" vs "name" for the label, and "price" may be absent entirely
// (defaults to 0). The wire structs absorb that here so nothing past this
// package has to care.

type wireOrderItem struct {
	ID          string           `json:"id"`
	ProductName string           `json:"productName"`
	Name        string           `json:"name"`
	Quantity    int32            `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	PaidUnits   int32            `json:"paidUnits"`
}

type wireOrder struct {
	ID           string           `json:"id"`
	Number       string           `json:"number"`
	RestaurantID string           `json:"restaurantId"`
	TableNumber  string           `json:"tableNumber"`
	Status       string           `json:"status"`
	Total        *decimal.Decimal `json:"total"`
	Items        []wireOrderItem  `json:"items"`
}

func (w wireOrder) toOrder(version string) Order {
	o := Order{
		ID:           w.ID,
		Number:       w.Number,
		RestaurantID: w.RestaurantID,
		TableNumber:  w.TableNumber,
		Status:       w.Status,
		Version:      version,
	}
	if w.Total != nil {
		o.Total = *w.Total
	}
	o.Items = make([]OrderItem, len(w.Items))
	for i, wi := range w.Items {
		item := OrderItem{
			ID:        wi.ID,
			Name:      wi.ProductName,
			Quantity:  wi.Quantity,
			PaidUnits: wi.PaidUnits,
		}
		if item.Name == "" {
			item.Name = wi.Name
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("item-%d", i)
		}
		if wi.Price != nil {
			item.UnitPrice = *wi.Price
		}
		o.Items[i] = item
	}
	return o
}

// GetOrder fetches one order with its line items.
func (c *Client) GetOrder(ctx context.Context, restaurantID, orderID string) (Order, error) {
	var w wireOrder
	etag, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, restaurantQuery(restaurantID), nil, &w)
	if err != nil {
		return Order{}, err
	}
	return w.toOrder(etag), nil
}

// ListOrders fetches the restaurant's orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, restaurantID, status string) ([]Order, error) {
	q := restaurantQuery(restaurantID)
	if status != "" {
		q.Set("status", status)
	}
	var ws []wireOrder
	if _, err := c.do(ctx, http.MethodGet, "/orders", q, nil, &ws); err != nil {
		return nil, err
	}
	orders := make([]Order, len(ws))
	for i, w := range ws {
		orders[i] = w.toOrder("")
	}
	return orders, nil
}

// CreateOrderItemRequest is one line of a submitted command.
type CreateOrderItemRequest struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	Price     string `json:"price"`
}

// CreateOrderRequest submits a new command against a bill.
type CreateOrderRequest struct {
	RestaurantID string                   `json:"restaurantId"`
	BillID       string                   `json:"billId,omitempty"`
	TableNumber  string                   `json:"tableNumber,omitempty"`
	Items        []CreateOrderItemRequest `json:"items"`
	Total        string                   `json:"total"`
}

// CreateOrder submits a new order (command) upstream.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	var w wireOrder
	if _, err := c.do(ctx, http.MethodPost, "/orders", nil, req, &w); err != nil {
		return Order{}, err
	}
	return w.toOrder(""), nil
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus patches the order's status field upstream.
func (c *Client) UpdateOrderStatus(ctx context.Context, restaurantID, orderID, status string) error {
	_, err := c.do(ctx, http.MethodPatch, "/orders/"+orderID, restaurantQuery(restaurantID),
		updateOrderStatusRequest{Status: status}, nil)
	return err
}
