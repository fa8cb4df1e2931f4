package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/metrics"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FulfillmentService handles vendor responses and admin escalation work
type FulfillmentService struct {
	orderRepo  repository.OrderRepository
	vendorRepo repository.VendorRepository
	orderSvc   *OrderService
	graceSvc   *GraceService
	partnerSvc *PartnerService
	publisher  EventPublisher
	pricing    PricingRules
}

// PartialAcceptItem is the vendor's answer for one order line; unlisted lines count as not available
type PartialAcceptItem struct {
	OrderItemID      uint   `json:"order_item_id" validate:"required"`
	AcceptedQuantity int    `json:"accepted_quantity" validate:"min=0"`
	Reason           string `json:"reason" validate:"max=255"`
}

// PartialAcceptInput is a vendor partial acceptance
type PartialAcceptInput struct {
	Items  []PartialAcceptItem `json:"items" validate:"required,min=1,dive"`
	Reason string              `json:"reason" validate:"max=255"`
}

// SplitResult is the outcome of a partial acceptance
type SplitResult struct {
	Parent *models.Order `json:"parent"`
	Child  *models.Order `json:"child"`
}

// NewFulfillmentService creates the fulfillment engine
func NewFulfillmentService(orderRepo repository.OrderRepository, vendorRepo repository.VendorRepository, orderSvc *OrderService, graceSvc *GraceService, partnerSvc *PartnerService, publisher EventPublisher, pricing PricingRules) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:  orderRepo,
		vendorRepo: vendorRepo,
		orderSvc:   orderSvc,
		graceSvc:   graceSvc,
		partnerSvc: partnerSvc,
		publisher:  publisher,
		pricing:    pricing,
	}
}

// AcceptOrder accepts every line and opens the acceptance window
func (s *FulfillmentService) AcceptOrder(ctx context.Context, principal Principal, orderID uint) (*models.Order, error) {
	buf := &eventBuffer{}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, now, err := s.lockPendingForVendor(ctx, tx, principal, orderID, buf)
		if err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].ItemStatus = constants.OrderItemStatusAccepted
			if err := repo.SaveItem(&order.Items[i]); err != nil {
				return err
			}
		}
		if err := s.graceSvc.openInTx(ctx, tx, order, constants.GraceWindowAcceptance, constants.OrderStatusAwaiting, now, buf); err != nil {
			return err
		}
		if err := repo.Save(order); err != nil {
			return err
		}
		if err := appendTimeline(repo, order.ID, order.Status, principal, "accepted by vendor", now); err != nil {
			return err
		}
		metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.graceSvc.schedule(result, constants.GraceWindowAcceptance)
	buf.flush(ctx, s.publisher)
	return s.orderSvc.loadOrder(result.ID)
}

// RejectOrder hands the whole order to admin and keeps the vendor as the original vendor
func (s *FulfillmentService) RejectOrder(ctx context.Context, principal Principal, orderID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf(ErrInvalidInput, "reason is required")
	}
	buf := &eventBuffer{}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, now, err := s.lockPendingForVendor(ctx, tx, principal, orderID, buf)
		if err != nil {
			return err
		}
		escalated := make(models.EscalatedItems, 0, len(order.Items))
		for i := range order.Items {
			item := &order.Items[i]
			item.ItemStatus = constants.OrderItemStatusRejected
			if err := repo.SaveItem(item); err != nil {
				return err
			}
			escalated = append(escalated, escalatedItem(item, item.Quantity, 0, reason))
		}
		vendorID := order.VendorID
		order.Status = constants.OrderStatusRejected
		order.AssignedTo = constants.AssignedToAdmin
		order.VendorID = nil
		order.Escalation = models.Escalation{
			Active:           true,
			Type:             constants.EscalationTypeFull,
			Reason:           reason,
			EscalatedBy:      principal.TimelineActor(),
			EscalatedAt:      &now,
			OriginalVendorID: vendorID,
			Items:            escalated,
		}
		if err := repo.Save(order); err != nil {
			return err
		}
		if vendorID != nil {
			if err := s.vendorRepo.WithTx(tx).IncrementEscalationCount(*vendorID); err != nil {
				return err
			}
		}
		if err := appendTimeline(repo, order.ID, order.Status, principal, reason, now); err != nil {
			return err
		}
		metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
		metrics.Escalations.WithLabelValues(constants.EscalationTypeFull).Inc()
		buf.add(escalatedEvent(order))
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return s.orderSvc.loadOrder(result.ID)
}

// PartialAccept splits the order: accepted quantities move to a new child order for the same vendor,
// the rest stays on the parent and is escalated to admin.
func (s *FulfillmentService) PartialAccept(ctx context.Context, principal Principal, orderID uint, input PartialAcceptInput) (*SplitResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	buf := &eventBuffer{}
	var parentID, childID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, now, err := s.lockPendingForVendor(ctx, tx, principal, orderID, buf)
		if err != nil {
			return err
		}
		if order.IsChild() {
			return ErrResplitNotAllowed
		}
		plan, err := planSplit(order, input)
		if err != nil {
			return err
		}

		before := splitSnapshot{
			subtotal: order.Subtotal.Decimal,
			paid:     order.PaidAmount.Decimal,
			quantity: quantitiesByProduct(order.Items),
		}
		number, err := s.childOrderNumber(repo, order)
		if err != nil {
			return err
		}

		child, err := s.buildChild(order, plan, number, now)
		if err != nil {
			return err
		}
		if err := repo.Create(child, child.Items); err != nil {
			return err
		}

		parentSplit, err := s.remainderSplit(order.PaymentPreference, plan.remainderSubtotal)
		if err != nil {
			return err
		}
		if err := repo.DeleteItems(plan.movedItemIDs); err != nil {
			return err
		}
		for i := range plan.remainder {
			if err := repo.SaveItem(&plan.remainder[i]); err != nil {
				return err
			}
		}
		order.Items = plan.remainder
		applySplit(order, parentSplit)
		allocatePaid(order, child, before.paid)
		order.PaymentStatus = derivePaymentStatus(order, order.PaidAmount.Decimal)
		child.PaymentStatus = derivePaymentStatus(child, child.PaidAmount.Decimal)

		vendorID := order.VendorID
		order.Status = constants.OrderStatusPartiallyAccepted
		order.IsPartialFulfillment = true
		order.AssignedTo = constants.AssignedToAdmin
		order.VendorID = nil
		order.Escalation = models.Escalation{
			Active:           true,
			Type:             plan.escalationType,
			Reason:           strings.TrimSpace(input.Reason),
			EscalatedBy:      principal.TimelineActor(),
			EscalatedAt:      &now,
			OriginalVendorID: vendorID,
			Items:            plan.escalated,
		}
		if order.Escalation.Reason == "" {
			order.Escalation.Reason = "items not available with vendor"
		}

		if err := verifySplit(before, order, child); err != nil {
			metrics.ConsistencyFailures.WithLabelValues("partial_accept").Inc()
			logger.Errorw("order_split_not_conserved", "order_id", order.ID, "error", err)
			return err
		}

		if err := s.graceSvc.openInTx(ctx, tx, child, constants.GraceWindowAcceptance, constants.OrderStatusAwaiting, now, buf); err != nil {
			return err
		}
		child.AcceptanceGrace.PreviousStatus = constants.OrderStatusPending
		if err := repo.Save(child); err != nil {
			return err
		}
		if err := repo.Save(order); err != nil {
			return err
		}
		if vendorID != nil {
			if err := s.vendorRepo.WithTx(tx).IncrementEscalationCount(*vendorID); err != nil {
				return err
			}
		}
		if err := appendTimeline(repo, child.ID, constants.OrderStatusPending, SystemPrincipal, "split from "+order.OrderNumber, now); err != nil {
			return err
		}
		if err := appendTimeline(repo, child.ID, child.Status, principal, "accepted by vendor", now); err != nil {
			return err
		}
		if err := appendTimeline(repo, order.ID, order.Status, principal, order.Escalation.Reason, now); err != nil {
			return err
		}

		metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
		metrics.Escalations.WithLabelValues(plan.escalationType).Inc()
		buf.add(DomainEvent{
			Name:       constants.EventOrderSplit,
			OrderID:    order.ID,
			Recipients: []string{userRecipient(order.UserID), adminRecipient},
			Data: map[string]interface{}{
				"order_number":       order.OrderNumber,
				"child_order_id":     child.ID,
				"child_order_number": child.OrderNumber,
			},
		})
		buf.add(escalatedEvent(order))
		logger.Infow("order_split_committed",
			"order_id", order.ID,
			"child_order_id", child.ID,
			"escalation_type", plan.escalationType,
			"parent_subtotal", order.Subtotal.String(),
			"child_subtotal", child.Subtotal.String(),
		)
		parentID, childID = order.ID, child.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)

	parent, err := s.orderSvc.loadOrder(parentID)
	if err != nil {
		return nil, err
	}
	child, err := s.orderSvc.loadOrder(childID)
	if err != nil {
		return nil, err
	}
	s.graceSvc.schedule(child, constants.GraceWindowAcceptance)
	return &SplitResult{Parent: parent, Child: child}, nil
}

// RevertEscalation gives the order back to its original vendor
func (s *FulfillmentService) RevertEscalation(ctx context.Context, principal Principal, orderID uint, reason string) (*models.Order, error) {
	return s.resolveEscalation(ctx, principal, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) (string, error) {
		if order.Escalation.OriginalVendorID == nil {
			return "", validationf(ErrEscalationNotActive, "order %s has no original vendor to revert to", order.OrderNumber)
		}
		if _, err := s.partnerSvc.resolveVendor(*order.Escalation.OriginalVendorID); err != nil {
			return "", err
		}
		if err := s.reopenForVendor(tx, order, *order.Escalation.OriginalVendorID); err != nil {
			return "", err
		}
		order.Escalation.Active = false
		order.Escalation.Resolution = constants.EscalationResolutionReverted
		order.Escalation.RevertedByID = principal.actorID()
		order.Escalation.RevertReason = strings.TrimSpace(reason)
		order.Escalation.RevertedAt = &now
		return "escalation reverted: " + strings.TrimSpace(reason), nil
	})
}

// ReassignEscalation gives the order to another vendor
func (s *FulfillmentService) ReassignEscalation(ctx context.Context, principal Principal, orderID, vendorID uint, note string) (*models.Order, error) {
	if vendorID == 0 {
		return nil, validationf(ErrInvalidInput, "vendor_id is required")
	}
	return s.resolveEscalation(ctx, principal, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) (string, error) {
		if _, err := s.partnerSvc.resolveVendor(vendorID); err != nil {
			return "", err
		}
		if err := s.reopenForVendor(tx, order, vendorID); err != nil {
			return "", err
		}
		order.Escalation.Active = false
		order.Escalation.Resolution = constants.EscalationResolutionReassigned
		order.Escalation.ResolvedByID = principal.actorID()
		order.Escalation.ResolvedAt = &now
		return strings.TrimSpace(fmt.Sprintf("reassigned to vendor %d %s", vendorID, strings.TrimSpace(note))), nil
	})
}

// ResolveEscalation closes the escalation by cancelling what is left of the order
func (s *FulfillmentService) ResolveEscalation(ctx context.Context, principal Principal, orderID uint, reason string) (*models.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderSvc.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.Escalation.Active {
			return ErrEscalationNotActive
		}
		for i := range order.Items {
			order.Items[i].ItemStatus = constants.OrderItemStatusRejected
			if err := s.orderRepo.WithTx(tx).SaveItem(&order.Items[i]); err != nil {
				return err
			}
		}
		if strings.TrimSpace(reason) == "" {
			reason = "escalation resolved by admin"
		}
		if err := s.orderSvc.cancelInTx(tx, order, principal, reason, time.Now()); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orderSvc.loadOrder(result.ID)
}

// ListEscalated pages orders with an open escalation
func (s *FulfillmentService) ListEscalated(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.EscalatedOnly = true
	return s.orderRepo.List(filter)
}

func (s *FulfillmentService) resolveEscalation(ctx context.Context, principal Principal, orderID uint, apply func(tx *gorm.DB, order *models.Order, now time.Time) (string, error)) (*models.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := s.orderSvc.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.Escalation.Active {
			return ErrEscalationNotActive
		}
		if !CanTransition(order.Status, constants.OrderStatusPending) && order.Status != constants.OrderStatusPending {
			return validationf(ErrInvalidStatusTransition, "cannot reopen order %s in status %s", order.OrderNumber, order.Status)
		}
		now := time.Now()
		note, err := apply(tx, order, now)
		if err != nil {
			return err
		}
		if err := repo.Save(order); err != nil {
			return err
		}
		if err := appendTimeline(repo, order.ID, order.Status, principal, note, now); err != nil {
			return err
		}
		metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
		logger.Infow("order_escalation_resolved",
			"order_id", order.ID,
			"resolution", order.Escalation.Resolution,
			"vendor_id", order.VendorID,
		)
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orderSvc.loadOrder(result.ID)
}

// reopenForVendor puts the order back in front of a vendor as a fresh pending order
func (s *FulfillmentService) reopenForVendor(tx *gorm.DB, order *models.Order, vendorID uint) error {
	repo := s.orderRepo.WithTx(tx)
	for i := range order.Items {
		order.Items[i].ItemStatus = constants.OrderItemStatusPending
		if err := repo.SaveItem(&order.Items[i]); err != nil {
			return err
		}
	}
	order.VendorID = uintPtr(vendorID)
	order.AssignedTo = constants.AssignedToVendor
	order.Status = constants.OrderStatusPending
	return nil
}

func (s *FulfillmentService) lockPendingForVendor(ctx context.Context, tx *gorm.DB, principal Principal, orderID uint, buf *eventBuffer) (*models.Order, time.Time, error) {
	now := time.Now()
	order, err := s.orderSvc.lockOrder(tx, orderID)
	if err != nil {
		return nil, now, err
	}
	if principal.Role != constants.RoleVendor {
		return nil, now, ErrOrderAccessDenied
	}
	if err := authorizeVendorAction(principal, order); err != nil {
		return nil, now, err
	}
	if err := s.graceSvc.expireDueInTx(ctx, tx, order, now, buf); err != nil {
		return nil, now, err
	}
	if order.Status != constants.OrderStatusPending || order.Escalation.Active {
		return nil, now, validationf(ErrOrderNotPendingResponse, "order %s is %s and is not awaiting a vendor response", order.OrderNumber, order.Status)
	}
	return order, now, nil
}

func (s *FulfillmentService) childOrderNumber(repo *repository.GormOrderRepository, parent *models.Order) (string, error) {
	children, err := repo.ListChildren(parent.ID)
	if err != nil {
		return "", err
	}
	for seq := len(children) + 1; seq < len(children)+100; seq++ {
		number := buildChildOrderNumber(parent.OrderNumber, seq)
		exists, err := repo.OrderNumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", conflictf(ErrOrderNumberCollision, "no free child number under %s", parent.OrderNumber)
}

func (s *FulfillmentService) buildChild(parent *models.Order, plan *splitPlan, number string, now time.Time) (*models.Order, error) {
	child := &models.Order{
		OrderNumber:        number,
		ParentOrderID:      uintPtr(parent.ID),
		UserID:             parent.UserID,
		SellerIDCode:       parent.SellerIDCode,
		SellerID:           parent.SellerID,
		VendorID:           parent.VendorID,
		AssignedTo:         constants.AssignedToVendor,
		Status:             constants.OrderStatusPending,
		PaymentStatus:      constants.PaymentStatusPending,
		PaymentPreference:  parent.PaymentPreference,
		PaidAmount:         models.ZeroMoney(),
		Notes:              parent.Notes,
		ExpectedDeliveryAt: parent.ExpectedDeliveryAt,
		CreatedAt:          now,
		UpdatedAt:          now,
		Items:              plan.accepted,
	}
	split, err := ComputePaymentSplit(plan.acceptedSubtotal, parent.PaymentPreference, s.pricing)
	if err != nil {
		return nil, err
	}
	applySplit(child, split)
	return child, nil
}

// remainderSplit prices the escalated remainder without a delivery charge; the child carries it
func (s *FulfillmentService) remainderSplit(preference string, subtotal decimal.Decimal) (PaymentSplit, error) {
	rules := s.pricing
	rules.DeliveryCharge = decimal.Zero
	split, err := ComputePaymentSplit(subtotal, preference, rules)
	if err != nil {
		return PaymentSplit{}, err
	}
	split.DeliveryChargeWaived = preference == constants.PaymentPreferenceFull
	return split, nil
}

// splitPlan is the item level outcome of a partial acceptance
type splitPlan struct {
	accepted          []models.OrderItem
	acceptedSubtotal  decimal.Decimal
	remainder         []models.OrderItem
	remainderSubtotal decimal.Decimal
	movedItemIDs      []uint
	escalated         models.EscalatedItems
	escalationType    string
}

type splitSnapshot struct {
	subtotal decimal.Decimal
	paid     decimal.Decimal
	quantity map[uint]int
}

// planSplit divides each line into accepted and escalated quantities
func planSplit(order *models.Order, input PartialAcceptInput) (*splitPlan, error) {
	answers := make(map[uint]PartialAcceptItem, len(input.Items))
	for _, answer := range input.Items {
		answers[answer.OrderItemID] = answer
	}
	known := make(map[uint]bool, len(order.Items))
	for _, item := range order.Items {
		known[item.ID] = true
	}
	for id := range answers {
		if !known[id] {
			return nil, validationf(ErrInvalidOrderItem, "order item %d does not belong to order %s", id, order.OrderNumber)
		}
	}

	plan := &splitPlan{escalationType: constants.EscalationTypePartial}
	for _, item := range order.Items {
		answer := answers[item.ID]
		accepted := answer.AcceptedQuantity
		if accepted < 0 || accepted > item.Quantity {
			return nil, validationf(ErrSplitQuantityInvalid, "accepted quantity %d for %s must be between 0 and %d", accepted, item.ProductName, item.Quantity)
		}
		escalatedQty := item.Quantity - accepted
		if accepted > 0 {
			line := item
			line.ID = 0
			line.OrderID = 0
			line.Quantity = accepted
			line.TotalPrice = lineTotal(item.UnitPrice, accepted)
			line.ItemStatus = constants.OrderItemStatusAccepted
			plan.accepted = append(plan.accepted, line)
		}
		if escalatedQty == 0 {
			plan.movedItemIDs = append(plan.movedItemIDs, item.ID)
			continue
		}
		reason := strings.TrimSpace(answer.Reason)
		if reason == "" {
			reason = "not available with vendor"
		}
		plan.escalated = append(plan.escalated, escalatedItem(&item, escalatedQty, accepted, reason))
		if accepted > 0 {
			plan.escalationType = constants.EscalationTypeQuantity
		}
		rest := item
		rest.Quantity = escalatedQty
		rest.TotalPrice = lineTotal(item.UnitPrice, escalatedQty)
		rest.ItemStatus = constants.OrderItemStatusPending
		plan.remainder = append(plan.remainder, rest)
	}
	if len(plan.accepted) == 0 {
		return nil, ErrSplitNothingAccepted
	}
	if len(plan.remainder) == 0 {
		return nil, ErrSplitNothingEscalated
	}
	plan.acceptedSubtotal = sumItems(plan.accepted)
	plan.remainderSubtotal = sumItems(plan.remainder)
	return plan, nil
}

// allocatePaid moves the paid amount between parent and child in proportion to subtotal
func allocatePaid(parent, child *models.Order, paid decimal.Decimal) {
	if !paid.IsPositive() {
		parent.PaidAmount = models.ZeroMoney()
		child.PaidAmount = models.ZeroMoney()
		return
	}
	whole := parent.Subtotal.Decimal.Add(child.Subtotal.Decimal)
	childShare := paid.Mul(child.Subtotal.Decimal).Div(whole).Round(2)
	childShare = decimal.Min(childShare, child.TotalAmount.Decimal)
	parentShare := decimal.Min(paid.Sub(childShare), parent.TotalAmount.Decimal)
	childShare = paid.Sub(parentShare)
	parent.PaidAmount = toMoney(parentShare)
	child.PaidAmount = toMoney(childShare)
}

// verifySplit checks subtotal, paid amount and per product quantities are conserved
func verifySplit(before splitSnapshot, parent, child *models.Order) error {
	subtotal := parent.Subtotal.Decimal.Add(child.Subtotal.Decimal)
	if !subtotal.Equal(before.subtotal) {
		return consistencyf(ErrSplitNotConserved, "order %s split subtotal %s != %s", parent.OrderNumber, subtotal.StringFixed(2), before.subtotal.StringFixed(2))
	}
	paid := parent.PaidAmount.Decimal.Add(child.PaidAmount.Decimal)
	if !paid.Equal(before.paid) {
		return consistencyf(ErrSplitNotConserved, "order %s split paid %s != %s", parent.OrderNumber, paid.StringFixed(2), before.paid.StringFixed(2))
	}
	after := quantitiesByProduct(parent.Items)
	for productID, qty := range quantitiesByProduct(child.Items) {
		after[productID] += qty
	}
	if len(after) != len(before.quantity) {
		return consistencyf(ErrSplitNotConserved, "order %s split changed the product set", parent.OrderNumber)
	}
	for productID, qty := range before.quantity {
		if after[productID] != qty {
			return consistencyf(ErrSplitNotConserved, "order %s split product %d quantity %d != %d", parent.OrderNumber, productID, after[productID], qty)
		}
	}
	for _, order := range []*models.Order{parent, child} {
		if err := verifyOrderTotals(order); err != nil {
			return err
		}
	}
	return nil
}

func quantitiesByProduct(items []models.OrderItem) map[uint]int {
	result := make(map[uint]int, len(items))
	for _, item := range items {
		result[item.ProductID] += item.Quantity
	}
	return result
}

func escalatedItem(item *models.OrderItem, escalatedQty, available int, reason string) models.EscalatedItem {
	return models.EscalatedItem{
		OrderItemID:       item.ID,
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		UnitPrice:         item.UnitPrice,
		RequestedQuantity: item.Quantity,
		AvailableQuantity: available,
		EscalatedQuantity: escalatedQty,
		Reason:            reason,
	}
}

func escalatedEvent(order *models.Order) DomainEvent {
	return DomainEvent{
		Name:       constants.EventOrderEscalated,
		OrderID:    order.ID,
		Recipients: []string{adminRecipient},
		Data: map[string]interface{}{
			"order_number":    order.OrderNumber,
			"escalation_type": order.Escalation.Type,
			"reason":          order.Escalation.Reason,
			"items":           len(order.Escalation.Items),
		},
	}
}

func buildChildOrderNumber(parentNumber string, seq int) string {
	return fmt.Sprintf("%s-%02d", parentNumber, seq)
}
