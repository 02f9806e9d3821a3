package api

import (
	"context"
	"net/http"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// Table is one physical table in the restaurant.
type Table struct {
	ID     string `json:"id"`
	Number int32  `json:"number"`
	Seats  int32  `json:"seats"`
	Status string `json:"status"`
}

// Bill is an open tab against a table. Commands (orders) accumulate on it
// until checkout closes it.
type Bill struct {
	ID      string          `json:"id"`
	TableID string          `json:"tableId"`
	Number  string          `json:"number"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total"`
	Orders  []Order         `json:"orders"`
}

type openBillRequest struct {
	TableID string `json:"tableId"`
}

type updateBillStatusRequest struct {
	Status string `json:"status"`
}

// ListTables returns the restaurant's tables.
func (c *Client) ListTables(ctx context.Context, restaurantID string) ([]Table, error) {
	var out []Table
	if _, err := c.do(ctx, http.MethodGet, "/tables", restaurantQuery(restaurantID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBills returns bills for a table, or every bill in the restaurant when
// tableID is empty.
func (c *Client) ListBills(ctx context.Context, restaurantID, tableID string) ([]Bill, error) {
	q := restaurantQuery(restaurantID)
	if tableID != "" {
		q.Set("tableId", tableID)
	}
	var out []Bill
	if _, err := c.do(ctx, http.MethodGet, "/bills", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenBill opens a new bill against a table.
func (c *Client) OpenBill(ctx context.Context, restaurantID, tableID string) (Bill, error) {
	var out Bill
	if _, err := c.do(ctx, http.MethodPost, "/bills", restaurantQuery(restaurantID),
		openBillRequest{TableID: tableID}, &out); err != nil {
		return Bill{}, err
	}
	return out, nil
}

// CloseBill marks a bill closed after its orders are all settled.
func (c *Client) CloseBill(ctx context.Context, restaurantID, billID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/bills/"+billID, restaurantQuery(restaurantID),
		updateBillStatusRequest{Status: enum.BillStatusClosed}, nil)
	return err
}
