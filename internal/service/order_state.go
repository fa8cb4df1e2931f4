package service

import (
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"
)

// orderTransitions lists the allowed status moves
var orderTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusAwaiting:          true,
		constants.OrderStatusRejected:          true,
		constants.OrderStatusPartiallyAccepted: true,
		constants.OrderStatusCancelled:         true,
	},
	constants.OrderStatusAwaiting: {
		constants.OrderStatusPending:    true,
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusDispatched: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusDispatched: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusRejected: {
		constants.OrderStatusPending:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPartiallyAccepted: {
		constants.OrderStatusPending:   true,
		constants.OrderStatusCancelled: true,
	},
}

// vendorForwardStatus is the only status a vendor may move to from the given one
var vendorForwardStatus = map[string]string{
	constants.OrderStatusAwaiting:   constants.OrderStatusProcessing,
	constants.OrderStatusProcessing: constants.OrderStatusDispatched,
	constants.OrderStatusDispatched: constants.OrderStatusDelivered,
}

// CanTransition reports whether from -> to is in the state machine
func CanTransition(from, to string) bool {
	next, ok := orderTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// CanBuyerCancel is the buyer cancellation guard
func CanBuyerCancel(order *models.Order) bool {
	if order == nil || order.IsPartialFulfillment {
		return false
	}
	return order.Status == constants.OrderStatusPending || order.Status == constants.OrderStatusAwaiting
}

// CanDeliver reports whether payment allows the delivered status
func CanDeliver(order *models.Order, adminOverride bool) bool {
	if order == nil {
		return false
	}
	if adminOverride || order.DeliveryOverride {
		return true
	}
	return order.PaymentStatus == constants.PaymentStatusFullyPaid
}

// commissionEligible is the commission trigger: delivered, final and fully paid
func commissionEligible(order *models.Order) bool {
	if order == nil || order.CommissionSettled || order.SellerID == nil {
		return false
	}
	return order.Status == constants.OrderStatusDelivered &&
		order.PaymentStatus == constants.PaymentStatusFullyPaid &&
		!order.StatusGrace.Active
}

// timelineEntry builds one status timeline row
func timelineEntry(orderID uint, status string, principal Principal, note string, now time.Time) *models.OrderStatusEvent {
	return &models.OrderStatusEvent{
		OrderID:   orderID,
		Status:    status,
		Actor:     principal.TimelineActor(),
		ActorID:   principal.actorID(),
		Note:      note,
		CreatedAt: now,
	}
}

// appendTimeline persists a timeline entry through the bound repository
func appendTimeline(repo *repository.GormOrderRepository, orderID uint, status string, principal Principal, note string, now time.Time) error {
	return repo.AppendTimeline(timelineEntry(orderID, status, principal, note, now))
}
