package service

import (
	"context"
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

// Payment failure resolutions
const (
	PaymentResolutionRetry    = "retry"
	PaymentResolutionWriteOff = "write_off"
)

// PaymentEventInput is one gateway callback. Reference is the gateway's idempotency key.
type PaymentEventInput struct {
	OrderID     uint         `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	Leg         string       `json:"leg" validate:"required,oneof=upfront remaining"`
	Amount      models.Money `json:"amount"`
	Reference   string       `json:"reference" validate:"required,max=128"`
	Reason      string       `json:"reason" validate:"max=255"`
}

// ResolvePaymentFailureInput is the admin decision on a failed payment
type ResolvePaymentFailureInput struct {
	Action string `json:"action" validate:"required,oneof=retry write_off"`
	Note   string `json:"note" validate:"max=255"`
}

// PaymentLedgerService tracks the two payment legs of an order
type PaymentLedgerService struct {
	orderRepo        repository.OrderRepository
	paymentEventRepo repository.PaymentEventRepository
	graceSvc         *GraceService
	commissionSvc    *CommissionService
	publisher        EventPublisher
	retryAttempts    int
}

// NewPaymentLedgerService creates the payment ledger
func NewPaymentLedgerService(orderRepo repository.OrderRepository, paymentEventRepo repository.PaymentEventRepository, graceSvc *GraceService, commissionSvc *CommissionService, publisher EventPublisher, retryAttempts int) *PaymentLedgerService {
	return &PaymentLedgerService{
		orderRepo:        orderRepo,
		paymentEventRepo: paymentEventRepo,
		graceSvc:         graceSvc,
		commissionSvc:    commissionSvc,
		publisher:        publisher,
		retryAttempts:    retryAttempts,
	}
}

// ListPaymentEvents returns the payment audit trail of an order
func (s *PaymentLedgerService) ListPaymentEvents(orderID uint) ([]models.PaymentEvent, error) {
	return s.paymentEventRepo.ListByOrderID(orderID)
}

// OnPaymentSettled applies a settled leg. A repeated reference returns the order unchanged.
func (s *PaymentLedgerService) OnPaymentSettled(ctx context.Context, input PaymentEventInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentAmountInvalid
	}
	var order *models.Order
	err := withConflictRetry(s.retryAttempts, "payment_settled", func() error {
		var err error
		order, err = s.applyEvent(ctx, input, constants.PaymentEventSettled)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OnPaymentFailed marks the payment failed; the order status is left as is
func (s *PaymentLedgerService) OnPaymentFailed(ctx context.Context, input PaymentEventInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var order *models.Order
	err := withConflictRetry(s.retryAttempts, "payment_failed", func() error {
		var err error
		order, err = s.applyEvent(ctx, input, constants.PaymentEventFailed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PaymentLedgerService) applyEvent(ctx context.Context, input PaymentEventInput, outcome string) (*models.Order, error) {
	buf := &eventBuffer{}
	reference := strings.TrimSpace(input.Reference)
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		eventRepo := s.paymentEventRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		existing, err := eventRepo.GetByReference(reference)
		if err != nil {
			return err
		}
		if existing != nil {
			result, err = orderRepo.GetByID(existing.OrderID)
			if err != nil {
				return err
			}
			logger.Infow("payment_event_duplicate", "reference", reference, "order_id", existing.OrderID)
			return nil
		}

		order, err := s.lockTarget(orderRepo, input)
		if err != nil {
			return err
		}
		now := time.Now()
		if s.graceSvc != nil {
			if err := s.graceSvc.expireDueInTx(ctx, tx, order, now, buf); err != nil {
				return err
			}
		}
		if input.Leg == constants.PaymentLegRemaining && order.RemainingAmount.Decimal.LessThanOrEqual(decimal.Zero) {
			return validationf(ErrPaymentLegInvalid, "order %s has no remaining payment leg", order.OrderNumber)
		}

		before := order.PaymentStatus
		event := &models.PaymentEvent{
			Reference:           reference,
			OrderID:             order.ID,
			Leg:                 input.Leg,
			Outcome:             outcome,
			Amount:              toMoney(input.Amount.Decimal),
			Reason:              strings.TrimSpace(input.Reason),
			PaymentStatusBefore: before,
			CreatedAt:           now,
		}

		switch outcome {
		case constants.PaymentEventSettled:
			paid := order.PaidAmount.Decimal.Add(input.Amount.Decimal).Round(2)
			if paid.GreaterThan(order.TotalAmount.Decimal) {
				return validationf(ErrPaymentExceedsTotal, "payment of ₹%s exceeds the order total: paid ₹%s of ₹%s",
					input.Amount.String(), order.PaidAmount.String(), order.TotalAmount.String())
			}
			order.PaidAmount = toMoney(paid)
			order.PaymentStatus = derivePaymentStatus(order, paid)
		default:
			if order.PaymentStatus != constants.PaymentStatusFullyPaid {
				order.PaymentStatus = constants.PaymentStatusFailed
			}
		}
		event.PaymentStatusAfter = order.PaymentStatus

		if err := orderRepo.UpdateFields(order.ID, map[string]interface{}{
			"paid_amount":    order.PaidAmount,
			"payment_status": order.PaymentStatus,
		}); err != nil {
			return err
		}
		if err := eventRepo.Create(event); err != nil {
			if repository.IsUniqueViolation(err) {
				return conflictf(ErrConcurrentUpdate, "payment reference %s recorded concurrently", reference)
			}
			return err
		}
		if order.Status == constants.OrderStatusCancelled {
			logger.Warnw("payment_event_on_cancelled_order", "order_id", order.ID, "reference", reference, "outcome", outcome)
		}

		if s.commissionSvc != nil {
			if _, err := s.commissionSvc.settleInTx(ctx, tx, order, now, buf); err != nil {
				return err
			}
		}
		metrics.PaymentEvents.WithLabelValues(input.Leg, outcome).Inc()
		logger.Infow("payment_event_applied",
			"order_id", order.ID,
			"reference", reference,
			"leg", input.Leg,
			"outcome", outcome,
			"payment_status_before", before,
			"payment_status_after", order.PaymentStatus,
		)
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return result, nil
}

// ResolvePaymentFailure lets admin reset a failed payment for retry or write off the outstanding amount
func (s *PaymentLedgerService) ResolvePaymentFailure(ctx context.Context, principal Principal, orderID uint, input ResolvePaymentFailureInput) (*models.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var result *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PaymentStatus != constants.PaymentStatusFailed {
			return ErrPaymentNotFailed
		}
		now := time.Now()
		order.PaymentStatus = derivePaymentStatus(order, order.PaidAmount.Decimal)
		updates := map[string]interface{}{"payment_status": order.PaymentStatus}
		note := "payment failure reset for retry"
		if input.Action == PaymentResolutionWriteOff {
			order.DeliveryOverride = true
			order.DeliveryOverrideNote = strings.TrimSpace(input.Note)
			updates["delivery_override"] = true
			updates["delivery_override_note"] = order.DeliveryOverrideNote
			note = "outstanding payment written off"
		}
		if strings.TrimSpace(input.Note) != "" {
			note = note + ": " + strings.TrimSpace(input.Note)
		}
		if err := orderRepo.UpdateFields(order.ID, updates); err != nil {
			return err
		}
		if err := appendTimeline(orderRepo, order.ID, order.Status, principal, note, now); err != nil {
			return err
		}
		logger.Infow("payment_failure_resolved",
			"order_id", order.ID,
			"action", input.Action,
			"payment_status", order.PaymentStatus,
		)
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PaymentLedgerService) lockTarget(repo *repository.GormOrderRepository, input PaymentEventInput) (*models.Order, error) {
	orderID := input.OrderID
	if orderID == 0 && strings.TrimSpace(input.OrderNumber) != "" {
		found, err := repo.GetByOrderNumber(input.OrderNumber)
		if err != nil {
			return nil, err
		}
		if found != nil {
			orderID = found.ID
		}
	}
	order, err := repo.GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
