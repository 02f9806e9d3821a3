// Package service holds the terminal's business flows that sit between the
// local HTTP surface and the upstream API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/store"
	"github.com/shopspring/decimal"
)

// Errors returned by the cart service.
var (
	ErrEmptyItems      = errors.New("items are required")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrProductNotFound = errors.New("product not found in restaurant")
	ErrNoTarget        = errors.New("a bill or table number is required")
	ErrDraftNotFound   = errors.New("draft not found")
)

// draftScope is the local store scope that holds unsent commands.
const draftScope = "drafts"

// Catalog supplies product data for pricing. Satisfied by *api.Client;
// narrow interface for testability.
type Catalog interface {
	ListProducts(ctx context.Context, restaurantID string) ([]api.Product, error)
}

// OrderSubmitter accepts a composed command. Satisfied by *api.Client.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (api.Order, error)
}

// CartItem is one product line in a draft command.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// Cart is a draft command being composed against a bill or table. Drafts
// survive terminal restarts via the local store; prices are never stored on
// the draft, they are resolved from the catalog at submission time.
type Cart struct {
	RestaurantID string     `json:"restaurant_id"`
	BillID       string     `json:"bill_id,omitempty"`
	TableNumber  string     `json:"table_number,omitempty"`
	Items        []CartItem `json:"items"`
}

// CartService composes, persists, and submits draft commands.
type CartService struct {
	catalog Catalog
	orders  OrderSubmitter
	drafts  store.Store
}

// NewCartService creates a new CartService.
func NewCartService(catalog Catalog, orders OrderSubmitter, drafts store.Store) *CartService {
	return &CartService{catalog: catalog, orders: orders, drafts: drafts}
}

// draftKey scopes a draft to its bill or table so two open tabs never
// clobber each other.
func draftKey(cart Cart) string {
	if cart.BillID != "" {
		return "bill:" + cart.BillID
	}
	return "table:" + cart.TableNumber
}

// SaveDraft persists an unsent cart.
func (s *CartService) SaveDraft(ctx context.Context, cart Cart) error {
	if cart.BillID == "" && cart.TableNumber == "" {
		return ErrNoTarget
	}
	buf, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return s.drafts.Set(ctx, draftScope, draftKey(cart), buf)
}

// LoadDraft retrieves a previously saved cart by its bill or table key.
func (s *CartService) LoadDraft(ctx context.Context, key string) (Cart, error) {
	buf, err := s.drafts.Get(ctx, draftScope, key)
	if errors.Is(err, store.ErrNotFound) {
		return Cart{}, ErrDraftNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("load draft: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(buf, &cart); err != nil {
		return Cart{}, fmt.Errorf("decode draft: %w", err)
	}
	return cart, nil
}

// ListDrafts returns every saved draft keyed by bill/table.
func (s *CartService) ListDrafts(ctx context.Context) (map[string]Cart, error) {
	raw, err := s.drafts.List(ctx, draftScope)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	result := make(map[string]Cart, len(raw))
	for key, buf := range raw {
		var cart Cart
		if err := json.Unmarshal(buf, &cart); err != nil {
			return nil, fmt.Errorf("decode draft %q: %w", key, err)
		}
		result[key] = cart
	}
	return result, nil
}

// Submit validates the cart, prices each line from the catalog, sends the
// command upstream, and discards the draft on success.
func (s *CartService) Submit(ctx context.Context, cart Cart) (api.Order, error) {
	if cart.BillID == "" && cart.TableNumber == "" {
		return api.Order{}, ErrNoTarget
	}
	if len(cart.Items) == 0 {
		return api.Order{}, ErrEmptyItems
	}

	products, err := s.catalog.ListProducts(ctx, cart.RestaurantID)
	if err != nil {
		return api.Order{}, fmt.Errorf("list products: %w", err)
	}
	byID := make(map[string]api.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	items := make([]api.CreateOrderItemRequest, len(cart.Items))
	for i, item := range cart.Items {
		if item.Quantity <= 0 {
			return api.Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		product, ok := byID[item.ProductID]
		if !ok {
			return api.Order{}, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt32(item.Quantity))
		total = total.Add(lineTotal)

		items[i] = api.CreateOrderItemRequest{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price.StringFixed(2),
		}
	}

	order, err := s.orders.CreateOrder(ctx, api.CreateOrderRequest{
		RestaurantID: cart.RestaurantID,
		BillID:       cart.BillID,
		TableNumber:  cart.TableNumber,
		Items:        items,
		Total:        total.StringFixed(2),
	})
	if err != nil {
		return api.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := s.drafts.Delete(ctx, draftScope, draftKey(cart)); err != nil {
		return order, fmt.Errorf("discard draft: %w", err)
	}
	return order, nil
}
