package enum

// ── Group A: State machines ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	SessionStateLoading   = "LOADING"
	SessionStateReady     = "READY"
	SessionStateSettling  = "SETTLING"
	SessionStateCompleted = "COMPLETED"
)

const (
	BillStatusOpen   = "OPEN"
	BillStatusClosed = "CLOSED"
)

// ── Group B: Settlement ──

const (
	SettleModePaySelected     = "PAY_SELECTED"
	SettleModePayAllRemaining = "PAY_ALL_REMAINING"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodCredit = "CREDIT"
	PaymentMethodDebit  = "DEBIT"
	PaymentMethodPix    = "PIX"
)

// CompletionPolicy controls what happens when the order-completion call
// fails after the local settlement has already been applied.
const (
	CompletionPolicyProceed = "PROCEED_OPTIMISTICALLY"
	CompletionPolicyBlock   = "BLOCK_AND_RETRY"
)

// ── Group C: Configurable labels ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
)
