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
	"github.com/agrimart/ordercore/internal/queue"
	"github.com/agrimart/ordercore/internal/repository"

	"gorm.io/gorm"
)

const (
	// DefaultGraceWindow is the length of both reversible-decision windows
	DefaultGraceWindow = 60 * time.Minute
	graceSweepBatch    = 200
)

// OpenGrace starts a window protecting status. Reopening an active window for the same status is a no-op.
func OpenGrace(w *models.GracePeriod, protected string, now time.Time, duration time.Duration) bool {
	if w == nil {
		return false
	}
	if w.Active && w.ProtectedStatus == protected {
		return false
	}
	if duration <= 0 {
		duration = DefaultGraceWindow
	}
	started := now
	expires := now.Add(duration)
	*w = models.GracePeriod{
		Active:          true,
		ProtectedStatus: protected,
		StartedAt:       &started,
		ExpiresAt:       &expires,
	}
	return true
}

// IsGraceExpired reports an open window whose fixed expiry has passed
func IsGraceExpired(w models.GracePeriod, now time.Time) bool {
	return w.Active && w.ExpiresAt != nil && !now.Before(*w.ExpiresAt)
}

// FinalizeGrace confirms the protected decision; false when the window was already closed
func FinalizeGrace(w *models.GracePeriod, now time.Time) bool {
	return closeGrace(w, constants.GraceOutcomeFinalized, now)
}

// CancelGrace marks the decision reverted; false when the window was already closed
func CancelGrace(w *models.GracePeriod, now time.Time) bool {
	return closeGrace(w, constants.GraceOutcomeCancelled, now)
}

func closeGrace(w *models.GracePeriod, outcome string, now time.Time) bool {
	if w == nil || !w.Active {
		return false
	}
	closed := now
	w.Active = false
	w.Outcome = outcome
	w.ClosedAt = &closed
	return true
}

func graceWindow(order *models.Order, kind string) *models.GracePeriod {
	if kind == constants.GraceWindowStatusUpdate {
		return &order.StatusGrace
	}
	return &order.AcceptanceGrace
}

// GraceResult is the outcome of a confirm, revert or expiry request.
// AlreadyFinalized means another caller closed the window first; it is not an error.
type GraceResult struct {
	OrderID          uint   `json:"order_id"`
	Kind             string `json:"kind"`
	Outcome          string `json:"outcome"`
	AlreadyFinalized bool   `json:"already_finalized"`
	Status           string `json:"status"`
}

// GraceService drives both grace windows for the request paths, the per-window task and the sweep
type GraceService struct {
	orderRepo        repository.OrderRepository
	paymentEventRepo repository.PaymentEventRepository
	commissionSvc    *CommissionService
	queueClient      *queue.Client
	publisher        EventPublisher
	window           time.Duration
	notice           time.Duration
}

// NewGraceService creates the scheduler
func NewGraceService(orderRepo repository.OrderRepository, paymentEventRepo repository.PaymentEventRepository, commissionSvc *CommissionService, queueClient *queue.Client, publisher EventPublisher, window, notice time.Duration) *GraceService {
	if window <= 0 {
		window = DefaultGraceWindow
	}
	if notice <= 0 {
		notice = 10 * time.Minute
	}
	return &GraceService{
		orderRepo:        orderRepo,
		paymentEventRepo: paymentEventRepo,
		commissionSvc:    commissionSvc,
		queueClient:      queueClient,
		publisher:        publisher,
		window:           window,
		notice:           notice,
	}
}

// ConfirmAcceptance confirms a vendor acceptance before the window runs out
func (s *GraceService) ConfirmAcceptance(ctx context.Context, principal Principal, orderID uint) (*GraceResult, error) {
	return s.confirm(ctx, principal, orderID, constants.GraceWindowAcceptance)
}

// ConfirmStatusUpdate confirms the last reversible status change
func (s *GraceService) ConfirmStatusUpdate(ctx context.Context, principal Principal, orderID uint) (*GraceResult, error) {
	return s.confirm(ctx, principal, orderID, constants.GraceWindowStatusUpdate)
}

// CancelAcceptance reverts a vendor acceptance while the window is open
func (s *GraceService) CancelAcceptance(ctx context.Context, principal Principal, orderID uint, reason string) (*GraceResult, error) {
	return s.revert(ctx, principal, orderID, constants.GraceWindowAcceptance, reason)
}

// RevertStatusUpdate restores the status and payment snapshot taken when the window opened
func (s *GraceService) RevertStatusUpdate(ctx context.Context, principal Principal, orderID uint, reason string) (*GraceResult, error) {
	return s.revert(ctx, principal, orderID, constants.GraceWindowStatusUpdate, reason)
}

func (s *GraceService) confirm(ctx context.Context, principal Principal, orderID uint, kind string) (*GraceResult, error) {
	buf := &eventBuffer{}
	result := &GraceResult{OrderID: orderID, Kind: kind}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeVendorAction(principal, order); err != nil {
			return err
		}
		window := graceWindow(order, kind)
		if window.StartedAt == nil {
			return ErrGraceWindowNotOpen
		}
		closed, err := s.finalizeInTx(ctx, tx, order, kind, time.Now(), buf)
		if err != nil {
			return err
		}
		result.AlreadyFinalized = !closed
		result.Outcome = window.Outcome
		result.Status = order.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return result, nil
}

func (s *GraceService) revert(ctx context.Context, principal Principal, orderID uint, kind, reason string) (*GraceResult, error) {
	buf := &eventBuffer{}
	result := &GraceResult{OrderID: orderID, Kind: kind}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeVendorAction(principal, order); err != nil {
			return err
		}
		window := graceWindow(order, kind)
		if window.StartedAt == nil {
			return ErrGraceWindowNotOpen
		}
		now := time.Now()
		if IsGraceExpired(*window, now) {
			if _, err := s.finalizeInTx(ctx, tx, order, kind, now, buf); err != nil {
				return err
			}
		}
		if !window.Active {
			result.AlreadyFinalized = true
			result.Outcome = window.Outcome
			result.Status = order.Status
			return nil
		}

		closed, err := s.cancelInTx(tx, order, kind, principal, reason, now)
		if err != nil {
			return err
		}
		result.AlreadyFinalized = !closed
		result.Outcome = window.Outcome
		result.Status = order.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return result, nil
}

// ExpireWindow finalizes one window once its expiry has passed; early or stale calls are no-ops
func (s *GraceService) ExpireWindow(ctx context.Context, orderID uint, kind string, now time.Time) (*GraceResult, error) {
	buf := &eventBuffer{}
	result := &GraceResult{OrderID: orderID, Kind: kind}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		window := graceWindow(order, kind)
		result.Status = order.Status
		if !window.Active {
			result.AlreadyFinalized = window.StartedAt != nil
			result.Outcome = window.Outcome
			return nil
		}
		if !IsGraceExpired(*window, now) {
			return nil
		}
		closed, err := s.finalizeInTx(ctx, tx, order, kind, now, buf)
		if err != nil {
			return err
		}
		result.AlreadyFinalized = !closed
		result.Outcome = window.Outcome
		result.Status = order.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return result, nil
}

// SweepExpired finalizes every window past its expiry and returns how many it closed
func (s *GraceService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	finalized := 0
	for _, kind := range []string{constants.GraceWindowAcceptance, constants.GraceWindowStatusUpdate} {
		ids, err := s.orderRepo.ListGraceExpired(kind, now, graceSweepBatch)
		if err != nil {
			return finalized, err
		}
		for _, id := range ids {
			result, err := s.ExpireWindow(ctx, id, kind, now)
			if err != nil {
				logger.Warnw("grace_sweep_failed",
					"order_id", id,
					"kind", kind,
					"error", err,
				)
				continue
			}
			if result != nil && !result.AlreadyFinalized && result.Outcome == constants.GraceOutcomeFinalized {
				finalized++
			}
		}
	}
	return finalized, nil
}

// NotifyExpiring emits GracePeriodExpiring once per window about to close
func (s *GraceService) NotifyExpiring(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	before := now.Add(s.notice)
	for _, kind := range []string{constants.GraceWindowAcceptance, constants.GraceWindowStatusUpdate} {
		orders, err := s.orderRepo.ListGraceExpiring(kind, before, graceSweepBatch)
		if err != nil {
			return sent, err
		}
		for i := range orders {
			order := &orders[i]
			marked, err := s.orderRepo.MarkGraceExpiringNotified(order.ID, kind)
			if err != nil {
				logger.Warnw("grace_expiring_mark_failed", "order_id", order.ID, "kind", kind, "error", err)
				continue
			}
			if !marked || s.publisher == nil {
				continue
			}
			window := graceWindow(order, kind)
			recipients := []string{adminRecipient}
			if order.VendorID != nil {
				recipients = append([]string{vendorRecipient(*order.VendorID)}, recipients...)
			}
			data := map[string]interface{}{
				"order_number":     order.OrderNumber,
				"kind":             kind,
				"protected_status": window.ProtectedStatus,
			}
			if window.ExpiresAt != nil {
				data["expires_at"] = window.ExpiresAt.UTC().Format(time.RFC3339)
			}
			s.publisher.Publish(ctx, DomainEvent{
				Name:       constants.EventGracePeriodExpiring,
				OrderID:    order.ID,
				Recipients: recipients,
				Data:       data,
				OccurredAt: now,
			})
			sent++
		}
	}
	return sent, nil
}

// openInTx moves the locked order to target and opens a window protecting it. A still open
// window of the same kind is confirmed first, before the status changes, so a revert always
// steps back exactly one status.
func (s *GraceService) openInTx(ctx context.Context, tx *gorm.DB, order *models.Order, kind, target string, now time.Time, buf *eventBuffer) error {
	window := graceWindow(order, kind)
	if window.Active {
		if _, err := s.finalizeInTx(ctx, tx, order, kind, now, buf); err != nil {
			return err
		}
	}
	previous := order.Status
	order.Status = target
	OpenGrace(window, target, now, s.window)
	window.PreviousStatus = previous
	if kind == constants.GraceWindowStatusUpdate {
		snapshotPayment(window, order)
	}
	metrics.GraceWindows.WithLabelValues(kind, "opened").Inc()
	return nil
}

// snapshotPayment records the financial state a status revert restores
func snapshotPayment(window *models.GracePeriod, order *models.Order) {
	window.PreviousPaymentStatus = order.PaymentStatus
	window.PreviousRemainingAmount = order.RemainingAmount
	window.PreviousPaidAmount = order.PaidAmount
}

// schedule enqueues the per-window expiry task; the sweep covers a failed enqueue
func (s *GraceService) schedule(order *models.Order, kind string) {
	if s.queueClient == nil || order == nil {
		return
	}
	window := graceWindow(order, kind)
	if !window.Active || window.ExpiresAt == nil {
		return
	}
	expiresAt := *window.ExpiresAt
	if err := s.queueClient.EnqueueGraceWindowExpire(queue.GraceWindowExpirePayload{
		OrderID:   order.ID,
		Kind:      kind,
		ExpiresAt: expiresAt,
	}, time.Until(expiresAt)); err != nil {
		logger.Warnw("grace_enqueue_expire_failed",
			"order_id", order.ID,
			"kind", kind,
			"error", err,
		)
	}
}

// expireDueInTx finalizes windows that ran out before a request touched the order
func (s *GraceService) expireDueInTx(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time, buf *eventBuffer) error {
	for _, kind := range []string{constants.GraceWindowAcceptance, constants.GraceWindowStatusUpdate} {
		if !IsGraceExpired(*graceWindow(order, kind), now) {
			continue
		}
		if _, err := s.finalizeInTx(ctx, tx, order, kind, now, buf); err != nil {
			return err
		}
	}
	return nil
}

// closeOpenWindowsInTx cancels any open window when the order itself is cancelled
func (s *GraceService) closeOpenWindowsInTx(tx *gorm.DB, order *models.Order, now time.Time) error {
	repo := s.orderRepo.WithTx(tx)
	for _, kind := range []string{constants.GraceWindowAcceptance, constants.GraceWindowStatusUpdate} {
		window := graceWindow(order, kind)
		if !window.Active {
			continue
		}
		prefix := repository.GraceColumnPrefix(kind)
		closed, err := repo.CloseGrace(order.ID, kind, map[string]interface{}{
			prefix + "outcome":   constants.GraceOutcomeCancelled,
			prefix + "closed_at": now,
		})
		if err != nil {
			return err
		}
		CancelGrace(window, now)
		if closed {
			metrics.GraceWindows.WithLabelValues(kind, constants.GraceOutcomeCancelled).Inc()
		}
	}
	return nil
}

// finalizeInTx closes the window with a conditional update; false means it was already closed
func (s *GraceService) finalizeInTx(ctx context.Context, tx *gorm.DB, order *models.Order, kind string, now time.Time, buf *eventBuffer) (bool, error) {
	window := graceWindow(order, kind)
	prefix := repository.GraceColumnPrefix(kind)
	closed, err := s.orderRepo.WithTx(tx).CloseGrace(order.ID, kind, map[string]interface{}{
		prefix + "outcome":   constants.GraceOutcomeFinalized,
		prefix + "closed_at": now,
	})
	if err != nil {
		return false, err
	}
	if !closed {
		window.Active = false
		return false, nil
	}
	FinalizeGrace(window, now)
	metrics.GraceWindows.WithLabelValues(kind, constants.GraceOutcomeFinalized).Inc()
	logger.Infow("grace_window_finalized",
		"order_id", order.ID,
		"kind", kind,
		"protected_status", window.ProtectedStatus,
	)
	if kind == constants.GraceWindowStatusUpdate && s.commissionSvc != nil {
		if _, err := s.commissionSvc.settleInTx(ctx, tx, order, now, buf); err != nil {
			return false, err
		}
	}
	return true, nil
}

// cancelInTx reverts the protected decision with a conditional update
func (s *GraceService) cancelInTx(tx *gorm.DB, order *models.Order, kind string, principal Principal, reason string, now time.Time) (bool, error) {
	window := graceWindow(order, kind)
	prefix := repository.GraceColumnPrefix(kind)
	repo := s.orderRepo.WithTx(tx)
	previous := window.PreviousStatus
	if previous == "" {
		previous = constants.OrderStatusPending
	}
	updates := map[string]interface{}{
		prefix + "outcome":   constants.GraceOutcomeCancelled,
		prefix + "closed_at": now,
		"status":             previous,
	}
	if kind == constants.GraceWindowStatusUpdate {
		updates["payment_status"] = window.PreviousPaymentStatus
		updates["remaining_amount"] = window.PreviousRemainingAmount
		updates["paid_amount"] = window.PreviousPaidAmount
		if window.ProtectedStatus == constants.OrderStatusDelivered {
			updates["delivered_at"] = nil
		}
	}
	closed, err := repo.CloseGrace(order.ID, kind, updates)
	if err != nil {
		return false, err
	}
	if !closed {
		window.Active = false
		return false, nil
	}
	CancelGrace(window, now)
	order.Status = previous
	if kind == constants.GraceWindowStatusUpdate {
		if err := s.recordPaymentReversal(tx, order, window, now); err != nil {
			return false, err
		}
		order.PaymentStatus = window.PreviousPaymentStatus
		order.RemainingAmount = window.PreviousRemainingAmount
		order.PaidAmount = window.PreviousPaidAmount
		if window.ProtectedStatus == constants.OrderStatusDelivered {
			order.DeliveredAt = nil
		}
	} else {
		for i := range order.Items {
			if order.Items[i].ItemStatus == constants.OrderItemStatusPending {
				continue
			}
			order.Items[i].ItemStatus = constants.OrderItemStatusPending
			if err := repo.SaveItem(&order.Items[i]); err != nil {
				return false, err
			}
		}
	}

	note := strings.TrimSpace(reason)
	if note == "" {
		note = kind + " reverted"
	}
	if err := appendTimeline(repo, order.ID, previous, principal, note, now); err != nil {
		return false, err
	}
	metrics.GraceWindows.WithLabelValues(kind, constants.GraceOutcomeCancelled).Inc()
	metrics.OrderTransitions.WithLabelValues(previous).Inc()
	logger.Infow("grace_window_reverted",
		"order_id", order.ID,
		"kind", kind,
		"restored_status", previous,
	)
	return true, nil
}

// recordPaymentReversal audits the paid amount dropped by a status revert
func (s *GraceService) recordPaymentReversal(tx *gorm.DB, order *models.Order, window *models.GracePeriod, now time.Time) error {
	delta := order.PaidAmount.Decimal.Sub(window.PreviousPaidAmount.Decimal)
	if !delta.IsPositive() || s.paymentEventRepo == nil {
		return nil
	}
	return s.paymentEventRepo.WithTx(tx).Create(&models.PaymentEvent{
		Reference:           fmt.Sprintf("grace-revert:%d:%d", order.ID, now.UnixNano()),
		OrderID:             order.ID,
		Leg:                 constants.PaymentLegRemaining,
		Outcome:             constants.PaymentEventReversed,
		Amount:              toMoney(delta),
		Reason:              "status update reverted",
		PaymentStatusBefore: order.PaymentStatus,
		PaymentStatusAfter:  window.PreviousPaymentStatus,
		CreatedAt:           now,
	})
}

func (s *GraceService) lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
