package constants

// Order status
const (
	OrderStatusPending           = "pending"
	OrderStatusAwaiting          = "awaiting"
	OrderStatusProcessing        = "processing"
	OrderStatusDispatched        = "dispatched"
	OrderStatusDelivered         = "delivered"
	OrderStatusRejected          = "rejected"
	OrderStatusCancelled         = "cancelled"
	OrderStatusPartiallyAccepted = "partially_accepted"
)

// Order item status
const (
	OrderItemStatusPending  = "pending"
	OrderItemStatusAccepted = "accepted"
	OrderItemStatusRejected = "rejected"
)

// Payment status, tracked independently of order status
const (
	PaymentStatusPending     = "pending"
	PaymentStatusPartialPaid = "partial_paid"
	PaymentStatusFullyPaid   = "fully_paid"
	PaymentStatusFailed      = "failed"
)

// Payment preference and legs
const (
	PaymentPreferencePartial = "partial"
	PaymentPreferenceFull    = "full"

	PaymentLegUpfront   = "upfront"
	PaymentLegRemaining = "remaining"

	PaymentEventSettled  = "settled"
	PaymentEventFailed   = "failed"
	PaymentEventReversed = "reversed"
)

// Order assignment
const (
	AssignedToVendor = "vendor"
	AssignedToAdmin  = "admin"
)

// Actors recorded on the status timeline
const (
	ActorSystem = "system"
	ActorVendor = "vendor"
	ActorAdmin  = "admin"
	ActorUser   = "user"
)

// Principal roles
const (
	RoleUser   = "user"
	RoleVendor = "vendor"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Grace windows
const (
	GraceWindowAcceptance   = "acceptance"
	GraceWindowStatusUpdate = "status_update"

	GraceOutcomeFinalized = "finalized"
	GraceOutcomeCancelled = "cancelled"
)

// Escalation
const (
	EscalationTypeFull     = "full"
	EscalationTypePartial  = "partial"
	EscalationTypeQuantity = "quantity"

	EscalationResolutionReverted   = "reverted"
	EscalationResolutionReassigned = "reassigned"
	EscalationResolutionCancelled  = "cancelled"
)

// Commission status
const (
	CommissionStatusPending   = "pending"
	CommissionStatusCredited  = "credited"
	CommissionStatusCancelled = "cancelled"
)

// Partner wallet transactions
const (
	WalletTxnTypeCommissionCredit   = "commission_credit"
	WalletTxnTypeCommissionReversal = "commission_reversal"
	WalletTxnTypeWithdrawal         = "withdrawal"

	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// Withdrawal request status
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Credit purchase request and cycle status
const (
	CreditPurchaseStatusPending  = "pending"
	CreditPurchaseStatusApproved = "approved"
	CreditPurchaseStatusRejected = "rejected"

	CreditCycleStatusActive = "active"
	CreditCycleStatusClosed = "closed"

	RepaymentStatusCompleted = "completed"
)

// Vendor and seller status
const (
	VendorStatusActive   = "active"
	VendorStatusDisabled = "disabled"
	SellerStatusActive   = "active"
	SellerStatusDisabled = "disabled"
)

// Queue names
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Task types
const (
	TaskGraceWindowExpire = "grace:window_expire"
	TaskDomainEvent       = "event:dispatch"
)

// Domain events
const (
	EventOrderEscalated      = "OrderEscalated"
	EventOrderSplit          = "OrderSplit"
	EventCommissionCredited  = "CommissionCredited"
	EventGracePeriodExpiring = "GracePeriodExpiring"
	EventCommissionThreshold = "CommissionThresholdCrossed"
)
