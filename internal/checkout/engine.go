// Package checkout implements the payment-allocation engine behind the
// cashier checkout screen: which units of which line items are being paid,
// what the payer owes for this pass, and how item payment state advances
// when a settlement is committed.
package checkout

import (
	"errors"
	"fmt"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the engine.
var (
	ErrInsufficientPayment = errors.New("amount received is below the effective total")
	ErrInvalidPeopleCount  = errors.New("split requires at least 2 people")
	ErrUnitOutOfRange      = errors.New("unit index out of range")
	ErrUnitAlreadyPaid     = errors.New("unit is already paid")
	ErrUnknownSettleMode   = errors.New("unknown settle mode")
)

// LineItem is one product line on an order. Units [0, PaidUnits) are settled;
// units [PaidUnits, Quantity) are still owed. PaidUnits never decreases and
// never exceeds Quantity.
type LineItem struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	PaidUnits int32
}

// FullyPaid reports whether every unit of the item has been settled.
func (li LineItem) FullyPaid() bool {
	return li.PaidUnits >= li.Quantity
}

// UnpaidQuantity returns the number of units still owed on the item.
func UnpaidQuantity(li LineItem) int32 {
	if li.PaidUnits > li.Quantity {
		return 0
	}
	return li.Quantity - li.PaidUnits
}

// Selection is the cashier's transient marking of what the current payment
// pass covers. An item is either selected whole, or expanded into individual
// units with a per-unit marking. Selections are never persisted upstream and
// are cleared after every settlement.
type Selection struct {
	// Items holds whole-item selections by line-item ID.
	Items map[string]bool
	// Expanded marks items the cashier has broken into individual units.
	Expanded map[string]bool
	// Units holds per-unit selections: item ID -> unit index -> selected.
	Units map[string]map[int32]bool
}

// NewSelection returns an empty Selection.
func NewSelection() *Selection {
	return &Selection{
		Items:    make(map[string]bool),
		Expanded: make(map[string]bool),
		Units:    make(map[string]map[int32]bool),
	}
}

// Empty reports whether nothing at all is selected.
func (s *Selection) Empty() bool {
	if s == nil {
		return true
	}
	for _, v := range s.Items {
		if v {
			return false
		}
	}
	for _, units := range s.Units {
		for _, v := range units {
			if v {
				return false
			}
		}
	}
	return true
}

// SelectItem marks a whole item for payment. Selecting an item collapses any
// per-unit expansion it had.
func (s *Selection) SelectItem(itemID string) {
	s.Items[itemID] = true
	delete(s.Expanded, itemID)
	delete(s.Units, itemID)
}

// DeselectItem removes a whole-item selection.
func (s *Selection) DeselectItem(itemID string) {
	delete(s.Items, itemID)
}

// Expand switches an item to per-unit mode, dropping any whole-item
// selection it had.
func (s *Selection) Expand(itemID string) {
	s.Expanded[itemID] = true
	delete(s.Items, itemID)
}

// Collapse leaves per-unit mode, discarding the item's unit marks.
func (s *Selection) Collapse(itemID string) {
	delete(s.Expanded, itemID)
	delete(s.Units, itemID)
}

// ToggleUnit flips the selection of a single unit. The item must be expanded
// first; a paid unit can never be selected.
func (s *Selection) ToggleUnit(li LineItem, unitIndex int32) error {
	if unitIndex < 0 || unitIndex >= li.Quantity {
		return fmt.Errorf("%w: index %d, quantity %d", ErrUnitOutOfRange, unitIndex, li.Quantity)
	}
	if unitIndex < li.PaidUnits {
		return fmt.Errorf("%w: index %d", ErrUnitAlreadyPaid, unitIndex)
	}
	s.Expanded[li.ID] = true
	delete(s.Items, li.ID)
	if s.Units[li.ID] == nil {
		s.Units[li.ID] = make(map[int32]bool)
	}
	s.Units[li.ID][unitIndex] = !s.Units[li.ID][unitIndex]
	return nil
}

// Clear drops every selection.
func (s *Selection) Clear() {
	s.Items = make(map[string]bool)
	s.Expanded = make(map[string]bool)
	s.Units = make(map[string]map[int32]bool)
}

// SelectedQuantity returns how many unpaid units of the item the selection
// covers. The result is always within [0, UnpaidQuantity(li)].
func SelectedQuantity(li LineItem, sel *Selection) int32 {
	if sel == nil {
		return 0
	}
	if sel.Expanded[li.ID] {
		var count int32
		for idx, on := range sel.Units[li.ID] {
			if on && idx >= li.PaidUnits && idx < li.Quantity {
				count++
			}
		}
		return count
	}
	if sel.Items[li.ID] {
		return UnpaidQuantity(li)
	}
	return 0
}

// AllocationResult is the derived money view of the current state. It is
// recomputed on demand, never stored. Amounts keep full decimal precision;
// rounding to cents happens only at the presentation edge.
type AllocationResult struct {
	SelectedSubtotal   decimal.Decimal
	SelectedServiceFee decimal.Decimal
	SelectedTotal      decimal.Decimal
	UnpaidSubtotal     decimal.Decimal
	UnpaidServiceFee   decimal.Decimal
	UnpaidTotal        decimal.Decimal
}

// SplitOverride is a fixed amount substituted for the computed total when a
// bill is divided equally among people. It is cleared whenever the
// underlying selection changes.
type SplitOverride struct {
	Amount decimal.Decimal
	People int32
}

// ComputeTotals sums the selected and unpaid amounts over all items and
// applies the service fee rate to both. Fully paid items contribute nothing.
func ComputeTotals(items []LineItem, sel *Selection, serviceFeeRate decimal.Decimal) AllocationResult {
	var r AllocationResult
	for _, li := range items {
		unpaid := UnpaidQuantity(li)
		if unpaid == 0 {
			continue
		}
		r.UnpaidSubtotal = r.UnpaidSubtotal.Add(li.UnitPrice.Mul(decimal.NewFromInt32(unpaid)))
		if selected := SelectedQuantity(li, sel); selected > 0 {
			r.SelectedSubtotal = r.SelectedSubtotal.Add(li.UnitPrice.Mul(decimal.NewFromInt32(selected)))
		}
	}
	r.SelectedServiceFee = r.SelectedSubtotal.Mul(serviceFeeRate)
	r.SelectedTotal = r.SelectedSubtotal.Add(r.SelectedServiceFee)
	r.UnpaidServiceFee = r.UnpaidSubtotal.Mul(serviceFeeRate)
	r.UnpaidTotal = r.UnpaidSubtotal.Add(r.UnpaidServiceFee)
	return r
}

// ResolveEffectiveTotal returns the amount the payer must tender now:
// the split override when present, else the selected total when anything is
// selected, else everything still unpaid.
func ResolveEffectiveTotal(r AllocationResult, sel *Selection, override *SplitOverride) decimal.Decimal {
	if override != nil {
		return override.Amount
	}
	if !sel.Empty() {
		return r.SelectedTotal
	}
	return r.UnpaidTotal
}

// ValidateCashSufficiency checks that the tendered cash covers the effective
// total. Only the CASH method goes through this check; card and pix payments
// are pre-authorized by the acquirer before they reach the terminal.
func ValidateCashSufficiency(tendered, effectiveTotal decimal.Decimal) error {
	if tendered.LessThan(effectiveTotal) {
		return fmt.Errorf("%w: tendered %s, due %s",
			ErrInsufficientPayment, tendered.StringFixed(2), effectiveTotal.StringFixed(2))
	}
	return nil
}

// ComputeChange returns the cash change due, never negative.
func ComputeChange(tendered, effectiveTotal decimal.Decimal) decimal.Decimal {
	change := tendered.Sub(effectiveTotal)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// ResolveSettleMode maps an empty selection to PAY_ALL_REMAINING and anything
// else to PAY_SELECTED. Paying everything when nothing was marked is the
// long-standing register behavior; naming it keeps it testable instead of
// being a hidden branch.
func ResolveSettleMode(sel *Selection) string {
	if sel.Empty() {
		return enum.SettleModePayAllRemaining
	}
	return enum.SettleModePaySelected
}

// Settle advances payment state for one settlement pass and returns the next
// item slice, the number of newly settled units, and whether the whole order
// is now fully paid. The input slice is not mutated. Settle never rejects:
// cash sufficiency must be validated by the caller before committing.
func Settle(items []LineItem, sel *Selection, mode string) (next []LineItem, settledUnits int32, allPaid bool, err error) {
	if mode != enum.SettleModePaySelected && mode != enum.SettleModePayAllRemaining {
		return nil, 0, false, fmt.Errorf("%w: %q", ErrUnknownSettleMode, mode)
	}

	next = make([]LineItem, len(items))
	copy(next, items)

	allPaid = true
	for i := range next {
		li := &next[i]
		unpaid := UnpaidQuantity(*li)
		if unpaid == 0 {
			continue
		}

		var pay int32
		switch mode {
		case enum.SettleModePayAllRemaining:
			pay = unpaid
		case enum.SettleModePaySelected:
			pay = SelectedQuantity(*li, sel)
		}

		li.PaidUnits += pay
		if li.PaidUnits > li.Quantity {
			li.PaidUnits = li.Quantity
		}
		settledUnits += pay

		if !li.FullyPaid() {
			allPaid = false
		}
	}
	return next, settledUnits, allPaid, nil
}

// SplitEqually divides a total across people without reconciling rounding
// remainders: each person's share keeps full precision, and independently
// rounded shares may not sum back to the total exactly.
func SplitEqually(total decimal.Decimal, people int32) (decimal.Decimal, error) {
	if people < 2 {
		return decimal.Zero, ErrInvalidPeopleCount
	}
	return total.Div(decimal.NewFromInt32(people)), nil
}
