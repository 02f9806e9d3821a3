package api

import (
	"context"
	"net/http"

	"github.com/kiwari-pos/terminal/internal/checkout"
	"github.com/kiwari-pos/terminal/internal/enum"
)

// Ensure Client satisfies the checkout engine's order source.
var _ checkout.OrderSource = (*Client)(nil)

// FetchOrder implements checkout.OrderSource.
func (c *Client) FetchOrder(ctx context.Context, restaurantID, orderID string) (checkout.OrderSnapshot, error) {
	order, err := c.GetOrder(ctx, restaurantID, orderID)
	if err != nil {
		return checkout.OrderSnapshot{}, err
	}

	snap := checkout.OrderSnapshot{
		ID:           order.ID,
		Number:       order.Number,
		RestaurantID: restaurantID,
		Status:       order.Status,
		Version:      order.Version,
		Items:        make([]checkout.LineItem, len(order.Items)),
	}
	for i, item := range order.Items {
		snap.Items[i] = checkout.LineItem{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			PaidUnits: item.PaidUnits,
		}
	}
	return snap, nil
}

// CompleteOrder implements checkout.OrderSource. When a version is known it
// rides along as If-Match so the backend can reject a concurrent update once
// it grows an optimistic-concurrency check.
func (c *Client) CompleteOrder(ctx context.Context, restaurantID, orderID, version string) error {
	var headers http.Header
	if version != "" {
		headers = http.Header{"If-Match": []string{version}}
	}
	_, err := c.doWithHeaders(ctx, http.MethodPatch, "/orders/"+orderID,
		restaurantQuery(restaurantID), headers,
		updateOrderStatusRequest{Status: enum.OrderStatusCompleted}, nil)
	return err
}
