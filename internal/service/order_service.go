package service

import (
	"context"
	"errors"
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

// OrderOptions are the order money and timing settings
type OrderOptions struct {
	Pricing               PricingRules
	DeliveryTimeline      time.Duration
	ConflictRetryAttempts int
}

// OrderService owns order creation, reads, cancellation and status updates
type OrderService struct {
	orderRepo     repository.OrderRepository
	partnerSvc    *PartnerService
	catalog       ProductCatalog
	allocator     *OrderNumberAllocator
	graceSvc      *GraceService
	commissionSvc *CommissionService
	publisher     EventPublisher
	opts          OrderOptions
}

// CreateOrderItemInput is one requested line
type CreateOrderItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=100000"`
}

// CreateOrderInput is the buyer checkout request. VendorID is the vendor discovery result; nil hands the order to admin.
type CreateOrderInput struct {
	Items             []CreateOrderItemInput `json:"items" validate:"required,min=1,max=100,dive"`
	PaymentPreference string                 `json:"payment_preference" validate:"required,oneof=partial full"`
	SellerIDCode      string                 `json:"seller_id_code" validate:"omitempty,max=32"`
	VendorID          *uint                  `json:"vendor_id"`
	Notes             string                 `json:"notes" validate:"max=1000"`
}

// UpdateOrderStatusInput is a vendor or admin status change.
// Payments are only recorded through the payment ledger; AdminOverride lets an admin deliver an unpaid order.
type UpdateOrderStatusInput struct {
	Status        string `json:"status" validate:"required,oneof=processing dispatched delivered cancelled"`
	Note          string `json:"note" validate:"max=500"`
	AdminOverride bool   `json:"admin_override"`
}

// NewOrderService creates the order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	partnerSvc *PartnerService,
	catalog ProductCatalog,
	allocator *OrderNumberAllocator,
	graceSvc *GraceService,
	commissionSvc *CommissionService,
	publisher EventPublisher,
	opts OrderOptions,
) *OrderService {
	if opts.DeliveryTimeline <= 0 {
		opts.DeliveryTimeline = 24 * time.Hour
	}
	return &OrderService{
		orderRepo:     orderRepo,
		partnerSvc:    partnerSvc,
		catalog:       catalog,
		allocator:     allocator,
		graceSvc:      graceSvc,
		commissionSvc: commissionSvc,
		publisher:     publisher,
		opts:          opts,
	}
}

// AllocateOrderNumber returns the next candidate order number for now
func (s *OrderService) AllocateOrderNumber(ctx context.Context, now time.Time) string {
	return s.allocator.Allocate(ctx, now)
}

// CreateOrder snapshots the catalog, fixes the payment split and stores the order with a fresh number
func (s *OrderService) CreateOrder(ctx context.Context, principal Principal, input CreateOrderInput) (*models.Order, error) {
	if principal.Role != constants.RoleUser || principal.ID == 0 {
		return nil, ErrOrderAccessDenied
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	lines, subtotal, err := s.snapshotItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if subtotal.LessThan(s.opts.Pricing.MinOrderValue) {
		return nil, validationf(ErrMinOrderValue, "minimum order value is ₹%s, order subtotal is ₹%s",
			s.opts.Pricing.MinOrderValue.StringFixed(2), subtotal.StringFixed(2))
	}
	split, err := ComputePaymentSplit(subtotal, input.PaymentPreference, s.opts.Pricing)
	if err != nil {
		return nil, err
	}
	seller, err := s.partnerSvc.resolveSeller(input.SellerIDCode)
	if err != nil {
		return nil, err
	}
	var vendor *models.Vendor
	if input.VendorID != nil && *input.VendorID != 0 {
		vendor, err = s.partnerSvc.resolveVendor(*input.VendorID)
		if err != nil {
			return nil, err
		}
	}

	buf := &eventBuffer{}
	var created *models.Order
	err = withConflictRetry(s.opts.ConflictRetryAttempts, "create_order", func() error {
		now := time.Now()
		number := s.AllocateOrderNumber(ctx, now)
		order := s.newOrder(principal, input, split, seller, vendor, number, now)
		items := cloneOrderItems(lines, now)
		order.Items = items
		if err := verifyOrderTotals(order); err != nil {
			logger.Errorw("order_totals_mismatch", "order_number", number, "error", err)
			metrics.ConsistencyFailures.WithLabelValues("create_order").Inc()
			return err
		}

		err := models.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.orderRepo.WithTx(tx)
			exists, err := repo.OrderNumberExists(number)
			if err != nil {
				return err
			}
			if exists {
				return conflictf(ErrOrderNumberCollision, "order number %s already taken", number)
			}
			if err := repo.Create(order, items); err != nil {
				if repository.IsUniqueViolation(err) {
					return conflictf(ErrOrderNumberCollision, "order number %s already taken", number)
				}
				return err
			}
			if err := appendTimeline(repo, order.ID, order.Status, principal, "order placed", now); err != nil {
				return err
			}
			if order.Escalation.Active {
				return appendTimeline(repo, order.ID, order.Status, SystemPrincipal, order.Escalation.Reason, now)
			}
			return nil
		})
		if errors.Is(err, ErrOrderNumberCollision) {
			s.allocator.Resync(ctx, s.allocator.Day(now))
		}
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	logger.Infow("order_created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"user_id", created.UserID,
		"assigned_to", created.AssignedTo,
		"total_amount", created.TotalAmount.String(),
	)
	if created.Escalation.Active {
		metrics.Escalations.WithLabelValues(created.Escalation.Type).Inc()
		buf.add(DomainEvent{
			Name:       constants.EventOrderEscalated,
			OrderID:    created.ID,
			Recipients: []string{adminRecipient},
			Data: map[string]interface{}{
				"order_number":    created.OrderNumber,
				"escalation_type": created.Escalation.Type,
				"reason":          created.Escalation.Reason,
			},
		})
	}
	buf.flush(ctx, s.publisher)
	return s.loadOrder(created.ID)
}

// GetOrder returns an order visible to the caller
func (s *OrderService) GetOrder(principal Principal, orderID uint) (*models.Order, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderView(principal, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByNumber returns an order by number for the caller
func (s *OrderService) GetOrderByNumber(principal Principal, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := authorizeOrderView(principal, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders pages orders in the caller's scope
func (s *OrderService) ListOrders(principal Principal, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	switch principal.Role {
	case constants.RoleAdmin:
	case constants.RoleUser:
		filter.UserID = principal.ID
	case constants.RoleVendor:
		filter.VendorID = principal.ID
	case constants.RoleSeller:
		filter.SellerID = principal.ID
	default:
		return nil, 0, ErrOrderAccessDenied
	}
	return s.orderRepo.List(filter)
}

// CancelOrder cancels as buyer (pending or awaiting, never a partially fulfilled order) or as admin
func (s *OrderService) CancelOrder(ctx context.Context, principal Principal, orderID uint, reason string) (*models.Order, error) {
	buf := &eventBuffer{}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := s.graceSvc.expireDueInTx(ctx, tx, order, now, buf); err != nil {
			return err
		}
		switch principal.Role {
		case constants.RoleUser:
			if order.UserID != principal.ID {
				return ErrOrderAccessDenied
			}
			if order.IsPartialFulfillment {
				return validationf(ErrCancelNotAllowed, "order %s was partially accepted and can no longer be cancelled by the buyer", order.OrderNumber)
			}
			if !CanBuyerCancel(order) {
				return validationf(ErrCancelNotAllowed, "order %s is %s and can no longer be cancelled", order.OrderNumber, order.Status)
			}
		case constants.RoleAdmin:
			if !CanTransition(order.Status, constants.OrderStatusCancelled) {
				return validationf(ErrInvalidStatusTransition, "cannot cancel order %s in status %s", order.OrderNumber, order.Status)
			}
		default:
			return ErrOrderAccessDenied
		}
		if err := s.cancelInTx(tx, order, principal, reason, now); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return s.loadOrder(result.ID)
}

// UpdateOrderStatus moves an order forward. Vendor changes open a status grace window;
// admin changes apply at once and may override the delivery payment guard.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, principal Principal, orderID uint, input UpdateOrderStatusInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	buf := &eventBuffer{}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeVendorAction(principal, order); err != nil {
			return err
		}
		now := time.Now()
		if err := s.graceSvc.expireDueInTx(ctx, tx, order, now, buf); err != nil {
			return err
		}
		target := input.Status
		if target == constants.OrderStatusCancelled {
			if !principal.IsAdmin() || !CanTransition(order.Status, target) {
				return validationf(ErrInvalidStatusTransition, "cannot move order %s from %s to %s", order.OrderNumber, order.Status, target)
			}
			if err := s.cancelInTx(tx, order, principal, input.Note, now); err != nil {
				return err
			}
			result = order
			return nil
		}
		allowed := vendorForwardStatus[order.Status] == target
		if principal.IsAdmin() {
			allowed = CanTransition(order.Status, target)
		}
		if !allowed {
			return validationf(ErrInvalidStatusTransition, "cannot move order %s from %s to %s", order.OrderNumber, order.Status, target)
		}

		if order.AcceptanceGrace.Active {
			if _, err := s.graceSvc.finalizeInTx(ctx, tx, order, constants.GraceWindowAcceptance, now, buf); err != nil {
				return err
			}
		}
		if principal.IsAdmin() {
			if order.StatusGrace.Active {
				if _, err := s.graceSvc.finalizeInTx(ctx, tx, order, constants.GraceWindowStatusUpdate, now, buf); err != nil {
					return err
				}
			}
			order.Status = target
		} else if err := s.graceSvc.openInTx(ctx, tx, order, constants.GraceWindowStatusUpdate, target, now, buf); err != nil {
			return err
		}

		note := strings.TrimSpace(input.Note)
		if target == constants.OrderStatusDelivered {
			override := input.AdminOverride && principal.IsAdmin()
			if !CanDeliver(order, override) {
				return validationf(ErrOrderNotDeliverable, "order %s cannot be delivered: ₹%s of ₹%s paid, payment %s",
					order.OrderNumber, order.PaidAmount.String(), order.TotalAmount.String(), order.PaymentStatus)
			}
			if override && order.PaymentStatus != constants.PaymentStatusFullyPaid {
				note = strings.TrimSpace("delivered with admin override " + note)
			}
			order.DeliveredAt = &now
		}

		if err := repo.Save(order); err != nil {
			return err
		}
		if err := appendTimeline(repo, order.ID, order.Status, principal, note, now); err != nil {
			return err
		}
		if principal.IsAdmin() {
			if _, err := s.commissionSvc.settleInTx(ctx, tx, order, now, buf); err != nil {
				return err
			}
		}
		metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.graceSvc.schedule(result, constants.GraceWindowStatusUpdate)
	buf.flush(ctx, s.publisher)
	logger.Infow("order_status_updated",
		"order_id", result.ID,
		"status", result.Status,
		"actor", principal.TimelineActor(),
	)
	return s.loadOrder(result.ID)
}

// cancelInTx cancels the locked order, closes open windows and reverses a credited commission
func (s *OrderService) cancelInTx(tx *gorm.DB, order *models.Order, principal Principal, reason string, now time.Time) error {
	repo := s.orderRepo.WithTx(tx)
	if err := s.graceSvc.closeOpenWindowsInTx(tx, order, now); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelledBy = principal.TimelineActor()
	order.CancellationReason = reason
	if order.Escalation.Active {
		order.Escalation.Active = false
		order.Escalation.Resolution = constants.EscalationResolutionCancelled
		order.Escalation.ResolvedByID = principal.actorID()
		order.Escalation.ResolvedAt = &now
	}
	if err := repo.Save(order); err != nil {
		return err
	}
	if err := appendTimeline(repo, order.ID, order.Status, principal, reason, now); err != nil {
		return err
	}
	if order.CommissionSettled {
		if _, err := s.commissionSvc.reverseInTx(tx, order.ID, "order cancelled: "+reason, now); err != nil {
			return err
		}
	}
	metrics.OrderTransitions.WithLabelValues(order.Status).Inc()
	logger.Infow("order_cancelled",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"cancelled_by", order.CancelledBy,
	)
	return nil
}

func (s *OrderService) newOrder(principal Principal, input CreateOrderInput, split PaymentSplit, seller *models.Seller, vendor *models.Vendor, number string, now time.Time) *models.Order {
	expected := now.Add(s.opts.DeliveryTimeline)
	order := &models.Order{
		OrderNumber:        number,
		UserID:             principal.ID,
		Status:             constants.OrderStatusPending,
		PaymentStatus:      constants.PaymentStatusPending,
		PaymentPreference:  input.PaymentPreference,
		PaidAmount:         models.ZeroMoney(),
		Notes:              strings.TrimSpace(input.Notes),
		ExpectedDeliveryAt: &expected,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	applySplit(order, split)
	if seller != nil {
		order.SellerIDCode = seller.IDCode
		order.SellerID = uintPtr(seller.ID)
	}
	if vendor != nil {
		order.VendorID = uintPtr(vendor.ID)
		order.AssignedTo = constants.AssignedToVendor
		return order
	}
	order.AssignedTo = constants.AssignedToAdmin
	order.Escalation = models.Escalation{
		Active:      true,
		Type:        constants.EscalationTypeFull,
		Reason:      "no vendor available for the delivery area",
		EscalatedBy: constants.ActorSystem,
		EscalatedAt: &now,
	}
	return order
}

// snapshotItems merges repeated products and copies name and price from the catalog
func (s *OrderService) snapshotItems(ctx context.Context, inputs []CreateOrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	index := make(map[uint]int, len(inputs))
	lines := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if pos, ok := index[in.ProductID]; ok {
			lines[pos].Quantity += in.Quantity
			continue
		}
		snapshot, err := s.catalog.GetProductSnapshot(ctx, in.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		index[in.ProductID] = len(lines)
		lines = append(lines, models.OrderItem{
			ProductID:   snapshot.ProductID,
			ProductName: snapshot.Name,
			Quantity:    in.Quantity,
			UnitPrice:   snapshot.Price,
			ItemStatus:  constants.OrderItemStatusPending,
		})
	}
	for i := range lines {
		lines[i].TotalPrice = lineTotal(lines[i].UnitPrice, lines[i].Quantity)
	}
	return lines, sumItems(lines), nil
}

func (s *OrderService) lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) loadOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func cloneOrderItems(lines []models.OrderItem, now time.Time) []models.OrderItem {
	items := make([]models.OrderItem, len(lines))
	for i, line := range lines {
		line.ID = 0
		line.OrderID = 0
		line.CreatedAt = now
		line.UpdatedAt = now
		items[i] = line
	}
	return items
}

// authorizeOrderView checks the caller is a party to the order
func authorizeOrderView(principal Principal, order *models.Order) error {
	switch principal.Role {
	case constants.RoleAdmin:
		return nil
	case constants.RoleUser:
		if order.UserID == principal.ID {
			return nil
		}
	case constants.RoleVendor:
		if order.VendorID != nil && *order.VendorID == principal.ID {
			return nil
		}
		if order.Escalation.OriginalVendorID != nil && *order.Escalation.OriginalVendorID == principal.ID {
			return nil
		}
	case constants.RoleSeller:
		if order.SellerID != nil && *order.SellerID == principal.ID {
			return nil
		}
	}
	return ErrOrderAccessDenied
}

// authorizeVendorAction checks the caller is admin or the vendor the order is assigned to
func authorizeVendorAction(principal Principal, order *models.Order) error {
	if principal.IsAdmin() {
		return nil
	}
	if principal.Role != constants.RoleVendor {
		return ErrOrderAccessDenied
	}
	if order.AssignedTo != constants.AssignedToVendor || order.VendorID == nil || *order.VendorID != principal.ID {
		return ErrOrderAccessDenied
	}
	return nil
}
