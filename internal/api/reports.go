package api

import (
	"context"
	"net/http"
	"net/url"
)

// --- Report rows ---
//
// Amounts stay strings end to end here: the dashboard renders them, nothing
// in the terminal does arithmetic on report data.

// DailySalesRow is one day of sales totals.
type DailySalesRow struct {
	Date         string `json:"date"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

// ProductSalesRow is aggregate sales for one product.
type ProductSalesRow struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	TotalRevenue string `json:"total_revenue"`
}

// PaymentSummaryRow is aggregate takings for one payment method.
type PaymentSummaryRow struct {
	PaymentMethod    string `json:"payment_method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

func (c *Client) reportQuery(restaurantID, start, end string) url.Values {
	q := restaurantQuery(restaurantID)
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	return q
}

// DailySales returns per-day sales totals for a date range.
func (c *Client) DailySales(ctx context.Context, restaurantID, start, end string) ([]DailySalesRow, error) {
	var out []DailySalesRow
	if _, err := c.do(ctx, http.MethodGet, "/reports/daily-sales",
		c.reportQuery(restaurantID, start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductSales returns per-product sales totals for a date range.
func (c *Client) ProductSales(ctx context.Context, restaurantID, start, end string) ([]ProductSalesRow, error) {
	var out []ProductSalesRow
	if _, err := c.do(ctx, http.MethodGet, "/reports/product-sales",
		c.reportQuery(restaurantID, start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentSummary returns per-method takings for a date range.
func (c *Client) PaymentSummary(ctx context.Context, restaurantID, start, end string) ([]PaymentSummaryRow, error) {
	var out []PaymentSummaryRow
	if _, err := c.do(ctx, http.MethodGet, "/reports/payment-summary",
		c.reportQuery(restaurantID, start, end), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
