package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the session.
var (
	ErrNotReady           = errors.New("session is not ready")
	ErrAlreadyCompleted   = errors.New("order is already completed")
	ErrSettlementInFlight = errors.New("a settlement is already in flight")
	ErrNothingToComplete  = errors.New("order is not fully paid")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrCompletionPersist  = errors.New("failed to persist order completion")
	ErrOrderFetch         = errors.New("failed to fetch order")
)

// OrderSnapshot is the session's view of an upstream order.
type OrderSnapshot struct {
	ID           string
	Number       string
	RestaurantID string
	Status       string
	// Version carries the upstream ETag when the backend supplies one, so a
	// future optimistic-concurrency check can ride the completion call.
	Version string
	Items   []LineItem
}

// OrderSource supplies orders and accepts the terminal status update.
// Satisfied by *api.Client; narrow interface for testability.
type OrderSource interface {
	FetchOrder(ctx context.Context, restaurantID, orderID string) (OrderSnapshot, error)
	CompleteOrder(ctx context.Context, restaurantID, orderID, version string) error
}

// SettlementResult reports what a settlement pass did.
type SettlementResult struct {
	Mode         string
	SettledUnits int32
	Change       decimal.Decimal
	AllPaid      bool
	// Persisted is false when the order became fully paid but the upstream
	// completion call failed and the PROCEED_OPTIMISTICALLY policy let the
	// cashier carry on anyway.
	Persisted bool
}

// Session drives one order through the checkout flow:
//
//	LOADING -> READY (selecting) -> SETTLING -> READY ... -> COMPLETED
//
// All mutations come from UI events on the local HTTP surface, so the only
// concurrency to guard against is a double-submitted settle; a single
// in-flight flag under the session mutex covers it.
type Session struct {
	mu sync.Mutex

	src            OrderSource
	serviceFeeRate decimal.Decimal
	policy         string

	state    string
	order    OrderSnapshot
	items    []LineItem
	sel      *Selection
	override *SplitOverride
	inFlight bool
}

// NewSession creates a session bound to an order source. The session starts
// in LOADING and becomes usable after Load.
func NewSession(src OrderSource, serviceFeeRate decimal.Decimal, completionPolicy string) *Session {
	return &Session{
		src:            src,
		serviceFeeRate: serviceFeeRate,
		policy:         completionPolicy,
		state:          enum.SessionStateLoading,
		sel:            NewSelection(),
	}
}

// Load fetches the order and moves the session to READY. An order that is
// already completed upstream loads straight into COMPLETED.
func (s *Session) Load(ctx context.Context, restaurantID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = enum.SessionStateLoading
	snap, err := s.src.FetchOrder(ctx, restaurantID, orderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderFetch, err)
	}

	s.order = snap
	s.items = make([]LineItem, len(snap.Items))
	copy(s.items, snap.Items)
	s.sel = NewSelection()
	s.override = nil

	if snap.Status == enum.OrderStatusCompleted {
		s.state = enum.SessionStateCompleted
	} else {
		s.state = enum.SessionStateReady
	}
	return nil
}

// State returns the current session state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Order returns the loaded order snapshot with current item payment state.
func (s *Session) Order() OrderSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.order
	snap.Items = make([]LineItem, len(s.items))
	copy(snap.Items, s.items)
	return snap
}

// Items returns a copy of the current line items.
func (s *Session) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// mutate runs fn under the lock after checking the session accepts selection
// changes. Any selection change invalidates the split override.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enum.SessionStateCompleted {
		return ErrAlreadyCompleted
	}
	if s.state != enum.SessionStateReady {
		return ErrNotReady
	}
	if err := fn(); err != nil {
		return err
	}
	s.override = nil
	return nil
}

// SelectItem marks a whole item for this payment pass.
func (s *Session) SelectItem(itemID string) error {
	return s.mutate(func() error {
		s.sel.SelectItem(itemID)
		return nil
	})
}

// DeselectItem removes a whole-item selection.
func (s *Session) DeselectItem(itemID string) error {
	return s.mutate(func() error {
		s.sel.DeselectItem(itemID)
		return nil
	})
}

// ExpandItem switches an item to per-unit selection.
func (s *Session) ExpandItem(itemID string) error {
	return s.mutate(func() error {
		s.sel.Expand(itemID)
		return nil
	})
}

// CollapseItem leaves per-unit selection for an item.
func (s *Session) CollapseItem(itemID string) error {
	return s.mutate(func() error {
		s.sel.Collapse(itemID)
		return nil
	})
}

// ToggleUnit flips one unit of an item in per-unit mode.
func (s *Session) ToggleUnit(itemID string, unitIndex int32) error {
	return s.mutate(func() error {
		for _, li := range s.items {
			if li.ID == itemID {
				return s.sel.ToggleUnit(li, unitIndex)
			}
		}
		return fmt.Errorf("line item %q not found", itemID)
	})
}

// ClearSelection drops all selections and the split override.
func (s *Session) ClearSelection() error {
	return s.mutate(func() error {
		s.sel.Clear()
		return nil
	})
}

// SetSplit replaces the effective total with an equal split of the current
// payable amount across people.
func (s *Session) SetSplit(people int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != enum.SessionStateReady {
		return ErrNotReady
	}
	totals := ComputeTotals(s.items, s.sel, s.serviceFeeRate)
	base := ResolveEffectiveTotal(totals, s.sel, nil)
	share, err := SplitEqually(base, people)
	if err != nil {
		return err
	}
	s.override = &SplitOverride{Amount: share, People: people}
	return nil
}

// ClearSplit removes the split override, if any.
func (s *Session) ClearSplit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != enum.SessionStateReady {
		return ErrNotReady
	}
	s.override = nil
	return nil
}

// Totals computes the current allocation view.
func (s *Session) Totals() AllocationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.items, s.sel, s.serviceFeeRate)
}

// EffectiveTotal returns what the payer owes for the next settlement.
func (s *Session) EffectiveTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := ComputeTotals(s.items, s.sel, s.serviceFeeRate)
	return ResolveEffectiveTotal(totals, s.sel, s.override)
}

// Split returns the active split override, or nil.
func (s *Session) Split() *SplitOverride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override == nil {
		return nil
	}
	o := *s.override
	return &o
}

// Settle commits one payment pass. CASH requires amountReceived to cover the
// effective total; other methods are pre-authorized and skip the check. On a
// pass that fully pays the order, the upstream completion call runs while a
// single in-flight guard blocks further settlements. A completion failure is
// handled per the configured policy: PROCEED_OPTIMISTICALLY keeps the local
// settled state, warns, and completes the session anyway; BLOCK_AND_RETRY
// leaves the session READY so RetryCompletion can be invoked.
func (s *Session) Settle(ctx context.Context, method string, amountReceived decimal.Decimal) (*SettlementResult, error) {
	s.mu.Lock()

	if s.state == enum.SessionStateCompleted {
		s.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	if s.state != enum.SessionStateReady || s.inFlight {
		s.mu.Unlock()
		return nil, ErrSettlementInFlight
	}
	if !isValidPaymentMethod(method) {
		s.mu.Unlock()
		return nil, ErrInvalidMethod
	}

	totals := ComputeTotals(s.items, s.sel, s.serviceFeeRate)
	effective := ResolveEffectiveTotal(totals, s.sel, s.override)

	change := decimal.Zero
	if method == enum.PaymentMethodCash {
		if err := ValidateCashSufficiency(amountReceived, effective); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		change = ComputeChange(amountReceived, effective)
	}

	mode := ResolveSettleMode(s.sel)
	next, settled, allPaid, err := Settle(s.items, s.sel, mode)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	// Commit: the settlement pass is applied locally before any network
	// call, and selections do not survive a pass.
	s.state = enum.SessionStateSettling
	s.items = next
	s.sel = NewSelection()
	s.override = nil

	result := &SettlementResult{
		Mode:         mode,
		SettledUnits: settled,
		Change:       change,
		AllPaid:      allPaid,
		Persisted:    true,
	}

	if !allPaid {
		s.state = enum.SessionStateReady
		s.mu.Unlock()
		return result, nil
	}

	s.inFlight = true
	order := s.order
	s.mu.Unlock()

	completeErr := s.src.CompleteOrder(ctx, order.RestaurantID, order.ID, order.Version)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if completeErr == nil {
		s.state = enum.SessionStateCompleted
		return result, nil
	}

	result.Persisted = false
	if s.policy == enum.CompletionPolicyBlock {
		s.state = enum.SessionStateReady
		return result, fmt.Errorf("%w: %w", ErrCompletionPersist, completeErr)
	}

	// Best effort: the cashier already took the money. Record the payment
	// locally and let the register move on.
	slog.Warn("order completion not persisted upstream, proceeding",
		"order_id", order.ID, "error", completeErr)
	s.state = enum.SessionStateCompleted
	return result, nil
}

// RetryCompletion re-attempts the upstream completion call after a
// BLOCK_AND_RETRY failure. It requires a fully paid order.
func (s *Session) RetryCompletion(ctx context.Context) error {
	s.mu.Lock()
	if s.state == enum.SessionStateCompleted {
		s.mu.Unlock()
		return nil
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrSettlementInFlight
	}
	for _, li := range s.items {
		if !li.FullyPaid() {
			s.mu.Unlock()
			return ErrNothingToComplete
		}
	}
	s.inFlight = true
	order := s.order
	s.mu.Unlock()

	err := s.src.CompleteOrder(ctx, order.RestaurantID, order.ID, order.Version)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompletionPersist, err)
	}
	s.state = enum.SessionStateCompleted
	return nil
}

// isValidPaymentMethod checks if the given payment method is valid.
func isValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash,
		enum.PaymentMethodCredit,
		enum.PaymentMethodDebit,
		enum.PaymentMethodPix:
		return true
	}
	return false
}
