package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/checkout"
	"github.com/kiwari-pos/terminal/internal/metrics"
	"github.com/shopspring/decimal"
)

// CheckoutHandler owns the live checkout sessions, one per order, and maps
// UI events onto the allocation engine.
type CheckoutHandler struct {
	src    checkout.OrderSource
	fee    decimal.Decimal
	policy string

	mu       sync.Mutex
	sessions map[string]*checkout.Session // keyed by restaurantID/orderID
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(src checkout.OrderSource, serviceFeeRate decimal.Decimal, completionPolicy string) *CheckoutHandler {
	return &CheckoutHandler{
		src:      src,
		fee:      serviceFeeRate,
		policy:   completionPolicy,
		sessions: make(map[string]*checkout.Session),
	}
}

// RegisterRoutes registers checkout endpoints. Expected to be mounted inside
// an order-scoped subrouter: /restaurants/{rid}/checkout/{oid}
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Load)
	r.Get("/", h.State)
	r.Post("/items/{itemID}/select", h.SelectItem)
	r.Post("/items/{itemID}/deselect", h.DeselectItem)
	r.Post("/items/{itemID}/expand", h.ExpandItem)
	r.Post("/items/{itemID}/collapse", h.CollapseItem)
	r.Post("/items/{itemID}/units/{idx}/toggle", h.ToggleUnit)
	r.Post("/selection/clear", h.ClearSelection)
	r.Put("/split", h.SetSplit)
	r.Delete("/split", h.ClearSplit)
	r.Post("/settle", h.Settle)
	r.Post("/retry-completion", h.RetryCompletion)
}

// --- Request / Response types ---

type splitRequest struct {
	People int32 `json:"people"`
}

type settleRequest struct {
	PaymentMethod  string `json:"payment_method"`
	AmountReceived string `json:"amount_received"`
}

type lineItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
	PaidUnits int32  `json:"paid_units"`
	FullyPaid bool   `json:"fully_paid"`
}

type totalsResponse struct {
	SelectedSubtotal   string `json:"selected_subtotal"`
	SelectedServiceFee string `json:"selected_service_fee"`
	SelectedTotal      string `json:"selected_total"`
	UnpaidSubtotal     string `json:"unpaid_subtotal"`
	UnpaidServiceFee   string `json:"unpaid_service_fee"`
	UnpaidTotal        string `json:"unpaid_total"`
}

type splitResponse struct {
	Amount string `json:"amount"`
	People int32  `json:"people"`
}

type sessionResponse struct {
	State          string             `json:"state"`
	OrderID        string             `json:"order_id"`
	OrderNumber    string             `json:"order_number"`
	Items          []lineItemResponse `json:"items"`
	Totals         totalsResponse     `json:"totals"`
	EffectiveTotal string             `json:"effective_total"`
	Split          *splitResponse     `json:"split,omitempty"`
}

type settleResponse struct {
	Mode         string `json:"mode"`
	SettledUnits int32  `json:"settled_units"`
	Change       string `json:"change"`
	AllPaid      bool   `json:"all_paid"`
	Persisted    bool   `json:"persisted"`
	State        string `json:"state"`
}

func sessionToResponse(s *checkout.Session) sessionResponse {
	order := s.Order()
	totals := s.Totals()

	resp := sessionResponse{
		State:       s.State(),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Items:       make([]lineItemResponse, len(order.Items)),
		Totals: totalsResponse{
			SelectedSubtotal:   totals.SelectedSubtotal.String(),
			SelectedServiceFee: totals.SelectedServiceFee.String(),
			SelectedTotal:      totals.SelectedTotal.String(),
			UnpaidSubtotal:     totals.UnpaidSubtotal.String(),
			UnpaidServiceFee:   totals.UnpaidServiceFee.String(),
			UnpaidTotal:        totals.UnpaidTotal.String(),
		},
		EffectiveTotal: s.EffectiveTotal().String(),
	}
	for i, li := range order.Items {
		resp.Items[i] = lineItemResponse{
			ID:        li.ID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice.String(),
			Quantity:  li.Quantity,
			PaidUnits: li.PaidUnits,
			FullyPaid: li.FullyPaid(),
		}
	}
	if split := s.Split(); split != nil {
		resp.Split = &splitResponse{Amount: split.Amount.String(), People: split.People}
	}
	return resp
}

// --- Session lookup ---

func sessionKey(r *http.Request) string {
	return chi.URLParam(r, "rid") + "/" + chi.URLParam(r, "oid")
}

func (h *CheckoutHandler) session(r *http.Request) *checkout.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[sessionKey(r)]
}

// --- Handlers ---

// Load handles POST /restaurants/{rid}/checkout/{oid}: fetches the order
// and opens (or reopens) its checkout session.
func (h *CheckoutHandler) Load(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	oid := chi.URLParam(r, "oid")

	session := checkout.NewSession(h.src, h.fee, h.policy)
	if err := session.Load(r.Context(), rid, oid); err != nil {
		metrics.UpstreamErrors.WithLabelValues("fetch_order").Inc()
		slog.Error("load checkout session", "order_id", oid, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch order"})
		return
	}

	h.mu.Lock()
	h.sessions[rid+"/"+oid] = session
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// State handles GET /restaurants/{rid}/checkout/{oid}.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checkout session for order"})
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// selectionChange runs one selection mutation and replies with the updated
// session view.
func (h *CheckoutHandler) selectionChange(w http.ResponseWriter, r *http.Request, fn func(s *checkout.Session) error) {
	session := h.session(r)
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checkout session for order"})
		return
	}
	if err := fn(session); err != nil {
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// SelectItem handles POST .../items/{itemID}/select.
func (h *CheckoutHandler) SelectItem(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.SelectItem(chi.URLParam(r, "itemID"))
	})
}

// DeselectItem handles POST .../items/{itemID}/deselect.
func (h *CheckoutHandler) DeselectItem(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.DeselectItem(chi.URLParam(r, "itemID"))
	})
}

// ExpandItem handles POST .../items/{itemID}/expand.
func (h *CheckoutHandler) ExpandItem(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.ExpandItem(chi.URLParam(r, "itemID"))
	})
}

// CollapseItem handles POST .../items/{itemID}/collapse.
func (h *CheckoutHandler) CollapseItem(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.CollapseItem(chi.URLParam(r, "itemID"))
	})
}

// ToggleUnit handles POST .../items/{itemID}/units/{idx}/toggle.
func (h *CheckoutHandler) ToggleUnit(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.ParseInt(chi.URLParam(r, "idx"), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit index"})
		return
	}
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.ToggleUnit(chi.URLParam(r, "itemID"), int32(idx))
	})
}

// ClearSelection handles POST .../selection/clear.
func (h *CheckoutHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.ClearSelection()
	})
}

// SetSplit handles PUT .../split.
func (h *CheckoutHandler) SetSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.SetSplit(req.People)
	})
}

// ClearSplit handles DELETE .../split.
func (h *CheckoutHandler) ClearSplit(w http.ResponseWriter, r *http.Request) {
	h.selectionChange(w, r, func(s *checkout.Session) error {
		return s.ClearSplit()
	})
}

// Settle handles POST .../settle: commits one payment pass.
func (h *CheckoutHandler) Settle(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checkout session for order"})
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}

	received := decimal.Zero
	if req.AmountReceived != "" {
		var err error
		received, err = decimal.NewFromString(req.AmountReceived)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount_received"})
			return
		}
	}

	result, err := session.Settle(r.Context(), req.PaymentMethod, received)
	if err != nil && result == nil {
		writeCheckoutError(w, err)
		return
	}

	metrics.SettlementsTotal.WithLabelValues(result.Mode, req.PaymentMethod).Inc()
	metrics.SettledUnitsTotal.Add(float64(result.SettledUnits))

	resp := settleResponse{
		Mode:         result.Mode,
		SettledUnits: result.SettledUnits,
		Change:       result.Change.StringFixed(2),
		AllPaid:      result.AllPaid,
		Persisted:    result.Persisted,
		State:        session.State(),
	}

	if err != nil {
		// BLOCK_AND_RETRY: the pass was applied locally but completion did
		// not persist; the UI shows the retry affordance.
		metrics.CompletionFailures.Inc()
		slog.Error("settlement applied but completion failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  "payment recorded locally, completion not persisted",
			"result": resp,
		})
		return
	}
	if !result.Persisted {
		metrics.CompletionFailures.Inc()
	}

	writeJSON(w, http.StatusOK, resp)
}

// RetryCompletion handles POST .../retry-completion after a blocked
// completion failure.
func (h *CheckoutHandler) RetryCompletion(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checkout session for order"})
		return
	}

	if err := session.RetryCompletion(r.Context()); err != nil {
		if errors.Is(err, checkout.ErrCompletionPersist) {
			metrics.CompletionFailures.Inc()
		}
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": session.State()})
}

// writeCheckoutError maps engine/session errors onto HTTP statuses.
func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrInsufficientPayment),
		errors.Is(err, checkout.ErrInvalidPeopleCount),
		errors.Is(err, checkout.ErrUnitOutOfRange),
		errors.Is(err, checkout.ErrUnitAlreadyPaid),
		errors.Is(err, checkout.ErrInvalidMethod):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrAlreadyCompleted),
		errors.Is(err, checkout.ErrSettlementInFlight),
		errors.Is(err, checkout.ErrNotReady),
		errors.Is(err, checkout.ErrNothingToComplete):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrCompletionPersist),
		errors.Is(err, checkout.ErrOrderFetch):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		slog.Error("checkout operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
