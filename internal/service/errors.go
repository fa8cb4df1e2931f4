package service

import (
	"errors"
	"fmt"
)

// Error kinds; every typed error below matches exactly one of them with errors.Is
var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrConsistency = errors.New("operation could not be completed")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
)

// ValidationError is a caller mistake with an actionable reason
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

// Unwrap returns the sentinel this error was built from
func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError is a lost race; callers retry it a bounded number of times
type ConflictError struct {
	Reason string
	Err    error
}

func (e *ConflictError) Error() string { return e.Reason }

// Unwrap returns the sentinel this error was built from
func (e *ConflictError) Unwrap() error { return e.Err }

// Is matches ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConsistencyError aborts an operation whose invariants do not hold. Detail is logged, never returned to clients.
type ConsistencyError struct {
	Detail string
	Err    error
}

func (e *ConsistencyError) Error() string { return e.Detail }

// Unwrap returns the sentinel this error was built from
func (e *ConsistencyError) Unwrap() error { return e.Err }

// Is matches ErrConsistency
func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// NotFoundError is a missing aggregate
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ForbiddenError is an ownership or role mismatch
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// Is matches ErrForbidden
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

var (
	ErrOrderNotFound          = &NotFoundError{Reason: "order not found"}
	ErrVendorNotFound         = &NotFoundError{Reason: "vendor not found"}
	ErrSellerNotFound         = &NotFoundError{Reason: "seller not found"}
	ErrProductNotFound        = &NotFoundError{Reason: "product not found"}
	ErrCommissionNotFound     = &NotFoundError{Reason: "commission not found"}
	ErrWithdrawalNotFound     = &NotFoundError{Reason: "withdrawal request not found"}
	ErrCreditPurchaseNotFound = &NotFoundError{Reason: "credit purchase not found"}

	ErrOrderAccessDenied = &ForbiddenError{Reason: "order does not belong to the caller"}

	ErrInvalidInput                = &ValidationError{Reason: "invalid input"}
	ErrInvalidOrderItem            = &ValidationError{Reason: "order item is invalid"}
	ErrProductNotAvailable         = &ValidationError{Reason: "product is not available"}
	ErrMinOrderValue               = &ValidationError{Reason: "order subtotal is below the minimum order value"}
	ErrInvalidPaymentPreference    = &ValidationError{Reason: "payment preference must be partial or full"}
	ErrInvalidStatusTransition     = &ValidationError{Reason: "status transition is not allowed"}
	ErrCancelNotAllowed            = &ValidationError{Reason: "order can no longer be cancelled"}
	ErrOrderNotDeliverable         = &ValidationError{Reason: "order cannot be delivered while payment is outstanding"}
	ErrOrderNotAssigned            = &ValidationError{Reason: "order is not assigned to this vendor"}
	ErrOrderNotPendingResponse     = &ValidationError{Reason: "order is not awaiting a vendor response"}
	ErrGraceWindowNotOpen          = &ValidationError{Reason: "no grace window was opened for this order"}
	ErrResplitNotAllowed           = &ValidationError{Reason: "a split child order cannot be split again"}
	ErrSplitQuantityInvalid        = &ValidationError{Reason: "accepted quantity exceeds requested quantity"}
	ErrSplitNothingAccepted        = &ValidationError{Reason: "partial acceptance must accept at least one unit"}
	ErrSplitNothingEscalated       = &ValidationError{Reason: "partial acceptance must leave at least one unit unaccepted"}
	ErrEscalationNotActive         = &ValidationError{Reason: "order has no active escalation"}
	ErrPaymentLegInvalid           = &ValidationError{Reason: "payment leg must be upfront or remaining"}
	ErrPaymentAmountInvalid        = &ValidationError{Reason: "payment amount must be positive"}
	ErrPaymentExceedsTotal         = &ValidationError{Reason: "payment exceeds the order total"}
	ErrPaymentNotFailed            = &ValidationError{Reason: "order payment is not in failed state"}
	ErrVendorInactive              = &ValidationError{Reason: "vendor is not active"}
	ErrSellerInactive              = &ValidationError{Reason: "seller is not active"}
	ErrRepaymentExceedsOutstanding = &ValidationError{Reason: "repayment exceeds outstanding"}
	ErrRepaymentAmountInvalid      = &ValidationError{Reason: "repayment amount must be positive"}
	ErrCreditCycleClosed           = &ValidationError{Reason: "credit cycle is not active"}
	ErrCreditPurchaseStatusInvalid = &ValidationError{Reason: "credit purchase is not pending review"}
	ErrCreditAmountOutOfRange      = &ValidationError{Reason: "credit purchase total is out of range"}
	ErrCreditItemsMismatch         = &ValidationError{Reason: "credit purchase total does not match its items"}
	ErrInsufficientCredit          = &ValidationError{Reason: "purchase exceeds available credit"}
	ErrWithdrawalExceedsBalance    = &ValidationError{Reason: "withdrawal exceeds available balance"}
	ErrWithdrawalAmountInvalid     = &ValidationError{Reason: "withdrawal amount must be positive"}
	ErrWithdrawalStatusInvalid     = &ValidationError{Reason: "withdrawal request is not pending"}

	ErrOrderNumberCollision = &ConflictError{Reason: "order number already taken"}
	ErrConcurrentUpdate     = &ConflictError{Reason: "concurrent update"}
	ErrCommissionLockBusy   = &ConflictError{Reason: "commission ledger is busy"}

	ErrSplitNotConserved   = &ConsistencyError{Detail: "split does not conserve the parent subtotal"}
	ErrCommissionMismatch  = &ConsistencyError{Detail: "commission does not reconcile with the ledger"}
	ErrOrderTotalsMismatch = &ConsistencyError{Detail: "order totals do not reconcile with items"}
)

func validationf(base error, format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...), Err: base}
}

func conflictf(base error, format string, args ...interface{}) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...), Err: base}
}

func consistencyf(base error, format string, args ...interface{}) error {
	return &ConsistencyError{Detail: fmt.Sprintf(format, args...), Err: base}
}

// PublicMessage is the text safe to show to a caller
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrConsistency) {
		return ErrConsistency.Error()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Reason
	}
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return err.Error()
}
