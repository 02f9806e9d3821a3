package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kiwari-pos/terminal/internal/enum"
)

// --- Mock implementations ---

// mockOrderSource implements OrderSource with configurable behavior.
type mockOrderSource struct {
	mu sync.Mutex

	fetchFn    func(ctx context.Context, restaurantID, orderID string) (OrderSnapshot, error)
	completeFn func(ctx context.Context, restaurantID, orderID, version string) error

	completeCalls int
	lastVersion   string
}

func (m *mockOrderSource) FetchOrder(ctx context.Context, restaurantID, orderID string) (OrderSnapshot, error) {
	return m.fetchFn(ctx, restaurantID, orderID)
}

func (m *mockOrderSource) CompleteOrder(ctx context.Context, restaurantID, orderID, version string) error {
	m.mu.Lock()
	m.completeCalls++
	m.lastVersion = version
	m.mu.Unlock()
	if m.completeFn != nil {
		return m.completeFn(ctx, restaurantID, orderID, version)
	}
	return nil
}

// --- Test helpers ---

func defaultSource() *mockOrderSource {
	return &mockOrderSource{
		fetchFn: func(ctx context.Context, restaurantID, orderID string) (OrderSnapshot, error) {
			return OrderSnapshot{
				ID:           orderID,
				Number:       "42",
				RestaurantID: restaurantID,
				Status:       enum.OrderStatusInProgress,
				Version:      "v1",
				Items: []LineItem{
					item("a", "10.00", 3, 0),
					item("b", "5.00", 2, 0),
				},
			}, nil
		},
	}
}

func readySession(t *testing.T, src *mockOrderSource, policy string) *Session {
	t.Helper()
	s := NewSession(src, dec("0.10"), policy)
	if err := s.Load(context.Background(), "r1", "o1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

// =====================
// Load tests
// =====================

func TestSession_LoadMovesToReady(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if got := s.State(); got != enum.SessionStateReady {
		t.Fatalf("expected READY, got: %s", got)
	}
	if got := len(s.Items()); got != 2 {
		t.Fatalf("expected 2 items, got: %d", got)
	}
}

func TestSession_LoadCompletedOrder(t *testing.T) {
	src := defaultSource()
	src.fetchFn = func(ctx context.Context, rid, oid string) (OrderSnapshot, error) {
		return OrderSnapshot{ID: oid, Status: enum.OrderStatusCompleted}, nil
	}
	s := NewSession(src, dec("0.10"), enum.CompletionPolicyBlock)
	if err := s.Load(context.Background(), "r1", "o1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := s.State(); got != enum.SessionStateCompleted {
		t.Fatalf("expected COMPLETED, got: %s", got)
	}
	if _, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("100")); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got: %v", err)
	}
}

func TestSession_LoadFetchError(t *testing.T) {
	src := defaultSource()
	src.fetchFn = func(ctx context.Context, rid, oid string) (OrderSnapshot, error) {
		return OrderSnapshot{}, errors.New("upstream down")
	}
	s := NewSession(src, dec("0.10"), enum.CompletionPolicyBlock)

	if err := s.Load(context.Background(), "r1", "o1"); !errors.Is(err, ErrOrderFetch) {
		t.Fatalf("expected ErrOrderFetch, got: %v", err)
	}
	if got := s.State(); got != enum.SessionStateLoading {
		t.Fatalf("expected LOADING, got: %s", got)
	}
}

// =====================
// Selection and split tests
// =====================

func TestSession_SelectionChangeClearsSplit(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if err := s.SetSplit(2); err != nil {
		t.Fatalf("set split: %v", err)
	}
	if s.Split() == nil {
		t.Fatal("expected split override to be set")
	}

	if err := s.SelectItem("a"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.Split() != nil {
		t.Fatal("expected split override cleared after selection change")
	}
}

func TestSession_SetSplitUsesEffectiveTotal(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	// Unpaid total: 3*10 + 2*5 = 40, plus 10% fee = 44. Split by 2 = 22.
	if err := s.SetSplit(2); err != nil {
		t.Fatalf("set split: %v", err)
	}
	decimalEquals(t, s.EffectiveTotal(), "22")

	if err := s.ClearSplit(); err != nil {
		t.Fatalf("clear split: %v", err)
	}
	decimalEquals(t, s.EffectiveTotal(), "44")
}

func TestSession_SetSplitInvalidPeople(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if err := s.SetSplit(1); !errors.Is(err, ErrInvalidPeopleCount) {
		t.Fatalf("expected ErrInvalidPeopleCount, got: %v", err)
	}
}

func TestSession_ToggleUnitUnknownItem(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if err := s.ToggleUnit("nope", 0); err == nil {
		t.Fatal("expected error for unknown line item")
	}
}

// =====================
// Settle tests
// =====================

func TestSession_SettleCashInsufficient(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	_, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("20"))
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got: %v", err)
	}
	// A rejected settle must not advance payment state.
	for _, li := range s.Items() {
		if li.PaidUnits != 0 {
			t.Fatalf("item %s advanced after rejected settle", li.ID)
		}
	}
}

func TestSession_SettleCashExactChange(t *testing.T) {
	src := defaultSource()
	s := readySession(t, src, enum.CompletionPolicyBlock)

	res, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	decimalEquals(t, res.Change, "0")
	if res.Mode != enum.SettleModePayAllRemaining {
		t.Fatalf("expected PAY_ALL_REMAINING, got: %s", res.Mode)
	}
	if !res.AllPaid || !res.Persisted {
		t.Fatalf("expected fully paid and persisted, got: %+v", res)
	}
	if got := s.State(); got != enum.SessionStateCompleted {
		t.Fatalf("expected COMPLETED, got: %s", got)
	}
}

func TestSession_SettleCashOverpayChange(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	res, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("50"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	decimalEquals(t, res.Change, "6")
}

func TestSession_SettleCardSkipsSufficiencyCheck(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	res, err := s.Settle(context.Background(), enum.PaymentMethodCredit, dec("0"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	decimalEquals(t, res.Change, "0")
	if !res.AllPaid {
		t.Fatal("expected fully paid")
	}
}

func TestSession_SettleInvalidMethod(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if _, err := s.Settle(context.Background(), "CHEQUE", dec("100")); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got: %v", err)
	}
}

func TestSession_SettleSelectedThenRemainder(t *testing.T) {
	src := defaultSource()
	s := readySession(t, src, enum.CompletionPolicyBlock)

	if err := s.SelectItem("b"); err != nil {
		t.Fatalf("select: %v", err)
	}
	// Item b: 2*5 = 10, plus 10% fee = 11.
	decimalEquals(t, s.EffectiveTotal(), "11")

	res, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("11"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Mode != enum.SettleModePaySelected {
		t.Fatalf("expected PAY_SELECTED, got: %s", res.Mode)
	}
	if res.AllPaid {
		t.Fatal("order should not be fully paid yet")
	}
	if got := s.State(); got != enum.SessionStateReady {
		t.Fatalf("expected READY, got: %s", got)
	}
	if src.completeCalls != 0 {
		t.Fatalf("completion must not run on a partial pass, got %d calls", src.completeCalls)
	}

	// Selection is cleared after the pass, so the next settle covers the rest.
	res, err = s.Settle(context.Background(), enum.PaymentMethodPix, dec("0"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Mode != enum.SettleModePayAllRemaining {
		t.Fatalf("expected PAY_ALL_REMAINING, got: %s", res.Mode)
	}
	if !res.AllPaid {
		t.Fatal("expected fully paid after second pass")
	}
	if src.completeCalls != 1 {
		t.Fatalf("expected 1 completion call, got: %d", src.completeCalls)
	}
}

func TestSession_CompletionSendsVersion(t *testing.T) {
	src := defaultSource()
	s := readySession(t, src, enum.CompletionPolicyBlock)

	if _, err := s.Settle(context.Background(), enum.PaymentMethodDebit, dec("0")); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if src.lastVersion != "v1" {
		t.Fatalf("expected version v1 on completion, got: %q", src.lastVersion)
	}
}

// =====================
// Completion policy tests
// =====================

func TestSession_CompletionFailureBlockAndRetry(t *testing.T) {
	src := defaultSource()
	fail := true
	src.completeFn = func(ctx context.Context, rid, oid, version string) error {
		if fail {
			return errors.New("upstream down")
		}
		return nil
	}
	s := readySession(t, src, enum.CompletionPolicyBlock)

	res, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44"))
	if !errors.Is(err, ErrCompletionPersist) {
		t.Fatalf("expected ErrCompletionPersist, got: %v", err)
	}
	if res == nil || res.Persisted {
		t.Fatalf("expected unpersisted result alongside the error, got: %+v", res)
	}
	if got := s.State(); got != enum.SessionStateReady {
		t.Fatalf("expected READY for retry, got: %s", got)
	}

	// Payment state is already committed locally; retry only repeats the
	// completion call.
	fail = false
	if err := s.RetryCompletion(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := s.State(); got != enum.SessionStateCompleted {
		t.Fatalf("expected COMPLETED, got: %s", got)
	}
	if src.completeCalls != 2 {
		t.Fatalf("expected 2 completion calls, got: %d", src.completeCalls)
	}
}

func TestSession_CompletionFailureProceedOptimistically(t *testing.T) {
	src := defaultSource()
	src.completeFn = func(ctx context.Context, rid, oid, version string) error {
		return errors.New("upstream down")
	}
	s := readySession(t, src, enum.CompletionPolicyProceed)

	res, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44"))
	if err != nil {
		t.Fatalf("expected no error under optimistic policy, got: %v", err)
	}
	if res.Persisted {
		t.Fatal("expected Persisted=false")
	}
	if got := s.State(); got != enum.SessionStateCompleted {
		t.Fatalf("expected COMPLETED, got: %s", got)
	}
}

func TestSession_RetryCompletionRequiresFullPayment(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if err := s.RetryCompletion(context.Background()); !errors.Is(err, ErrNothingToComplete) {
		t.Fatalf("expected ErrNothingToComplete, got: %v", err)
	}
}

func TestSession_RetryCompletionNoopWhenCompleted(t *testing.T) {
	src := defaultSource()
	s := readySession(t, src, enum.CompletionPolicyBlock)

	if _, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44")); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := s.RetryCompletion(context.Background()); err != nil {
		t.Fatalf("retry on completed session should be a no-op, got: %v", err)
	}
	if src.completeCalls != 1 {
		t.Fatalf("expected no extra completion call, got: %d", src.completeCalls)
	}
}

// =====================
// In-flight guard tests
// =====================

func TestSession_SettleBlockedWhileCompletionInFlight(t *testing.T) {
	src := defaultSource()
	entered := make(chan struct{})
	release := make(chan struct{})
	src.completeFn = func(ctx context.Context, rid, oid, version string) error {
		close(entered)
		<-release
		return nil
	}
	s := readySession(t, src, enum.CompletionPolicyBlock)

	done := make(chan error, 1)
	go func() {
		_, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44"))
		done <- err
	}()

	<-entered
	if _, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44")); !errors.Is(err, ErrSettlementInFlight) {
		t.Fatalf("expected ErrSettlementInFlight, got: %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if src.completeCalls != 1 {
		t.Fatalf("expected 1 completion call, got: %d", src.completeCalls)
	}
}

func TestSession_MutationsRejectedAfterCompletion(t *testing.T) {
	s := readySession(t, defaultSource(), enum.CompletionPolicyBlock)

	if _, err := s.Settle(context.Background(), enum.PaymentMethodCash, dec("44")); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := s.SelectItem("a"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got: %v", err)
	}
}
