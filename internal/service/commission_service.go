package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrimart/ordercore/internal/cache"
	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/metrics"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionOptions configures the tier schedule
type CommissionOptions struct {
	Threshold             decimal.Decimal
	LowRatePercent        decimal.Decimal
	HighRatePercent       decimal.Decimal
	LockTTL               time.Duration
	TimezoneOffsetMinutes int
}

// CommissionService credits referral partners on settled orders
type CommissionService struct {
	commissionRepo repository.CommissionRepository
	orderRepo      repository.OrderRepository
	walletSvc      *PartnerWalletService
	publisher      EventPublisher
	tiers          []CommissionTier
	threshold      models.Money
	lockTTL        time.Duration
	location       *time.Location
}

// NewCommissionService creates the commission service
func NewCommissionService(commissionRepo repository.CommissionRepository, orderRepo repository.OrderRepository, walletSvc *PartnerWalletService, publisher EventPublisher, opts CommissionOptions) *CommissionService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	return &CommissionService{
		commissionRepo: commissionRepo,
		orderRepo:      orderRepo,
		walletSvc:      walletSvc,
		publisher:      publisher,
		tiers:          DefaultCommissionTiers(opts.Threshold, opts.LowRatePercent, opts.HighRatePercent),
		threshold:      toMoney(opts.Threshold),
		lockTTL:        opts.LockTTL,
		location:       time.FixedZone("commission", opts.TimezoneOffsetMinutes*60),
	}
}

// ListCommissions pages commissions
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	return s.commissionRepo.List(filter)
}

// GetCommission returns one commission
func (s *CommissionService) GetCommission(id uint) (*models.Commission, error) {
	commission, err := s.commissionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, ErrCommissionNotFound
	}
	return commission, nil
}

// HandleOrderSettled computes and credits the commission of an eligible order. It is safe to repeat.
func (s *CommissionService) HandleOrderSettled(ctx context.Context, orderID uint) (*models.Commission, error) {
	buf := &eventBuffer{}
	var result *models.Commission
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		result, err = s.settleInTx(ctx, tx, order, time.Now(), buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	buf.flush(ctx, s.publisher)
	return result, nil
}

// HandleOrderCancelled reverses a credited commission after a cancellation or refund
func (s *CommissionService) HandleOrderCancelled(ctx context.Context, orderID uint, reason string) (*models.Commission, error) {
	var result *models.Commission
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.reverseInTx(tx, orderID, reason, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settleInTx runs inside the caller's transaction; the order row must already be locked
func (s *CommissionService) settleInTx(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time, buf *eventBuffer) (*models.Commission, error) {
	if !commissionEligible(order) {
		return nil, nil
	}
	repo := s.commissionRepo.WithTx(tx)
	existing, err := repo.GetByOrderIDForUpdate(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.markSettled(tx, order); err != nil {
			return nil, err
		}
		return existing, nil
	}

	sellerID := *order.SellerID
	month := now.In(s.location).Format("2006-01")
	lock, err := s.acquireLedgerLock(ctx, sellerID, order.UserID, month)
	if err != nil {
		return nil, err
	}
	defer func() {
		if lock != nil {
			if releaseErr := lock.Release(context.Background()); releaseErr != nil {
				logger.Warnw("commission_lock_release_failed", "order_id", order.ID, "error", releaseErr)
			}
		}
	}()

	ledger, err := repo.GetLedgerForUpdate(sellerID, order.UserID, month)
	if err != nil {
		return nil, err
	}
	purchase := order.TotalAmount.Decimal.Round(2)
	before := ledger.CumulativeAmount.Decimal.Round(2)
	after := before.Add(purchase)
	amount := ComputeTieredAmount(before, after, s.tiers)

	commission := &models.Commission{
		OrderID:                     order.ID,
		UserID:                      order.UserID,
		Month:                       month,
		SellerID:                    sellerID,
		OrderAmount:                 toMoney(purchase),
		CumulativePurchaseAmount:    toMoney(before),
		NewCumulativePurchaseAmount: toMoney(after),
		CommissionRate:              EffectiveRate(amount, purchase),
		CommissionAmount:            toMoney(amount),
		Status:                      constants.CommissionStatusPending,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	if err := repo.Create(commission); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflictf(ErrConcurrentUpdate, "commission for order %d already recorded", order.ID)
		}
		return nil, err
	}

	ledger.CumulativeAmount = toMoney(after)
	ledger.OrderCount++
	ledger.UpdatedAt = now
	if err := repo.UpdateLedger(ledger); err != nil {
		return nil, err
	}
	if !ledger.CumulativeAmount.Decimal.Equal(commission.NewCumulativePurchaseAmount.Decimal) {
		metrics.ConsistencyFailures.WithLabelValues("commission").Inc()
		return nil, consistencyf(ErrCommissionMismatch, "ledger %d cumulative %s != commission %s",
			ledger.ID, ledger.CumulativeAmount, commission.NewCumulativePurchaseAmount)
	}

	if amount.GreaterThan(decimal.Zero) {
		if _, _, err := s.walletSvc.CreditInTx(tx, WalletChangeInput{
			SellerID:     sellerID,
			Amount:       toMoney(amount),
			TxnType:      constants.WalletTxnTypeCommissionCredit,
			Reference:    commissionWalletReference(commission.ID, "credit"),
			Remark:       fmt.Sprintf("commission on order %s", order.OrderNumber),
			OrderID:      uintPtr(order.ID),
			CommissionID: uintPtr(commission.ID),
		}); err != nil {
			return nil, err
		}
	}
	commission.Status = constants.CommissionStatusCredited
	commission.CreditedAt = &now
	if err := repo.Update(commission); err != nil {
		return nil, err
	}
	if err := s.markSettled(tx, order); err != nil {
		return nil, err
	}

	metrics.CommissionsCredited.Inc()
	logger.Infow("commission_credited",
		"order_id", order.ID,
		"seller_id", sellerID,
		"user_id", order.UserID,
		"month", month,
		"cumulative_before", commission.CumulativePurchaseAmount.String(),
		"cumulative_after", commission.NewCumulativePurchaseAmount.String(),
		"amount", commission.CommissionAmount.String(),
	)
	buf.add(DomainEvent{
		Name:       constants.EventCommissionCredited,
		OrderID:    order.ID,
		Recipients: []string{sellerRecipient(sellerID)},
		Data: map[string]interface{}{
			"commission_id":     commission.ID,
			"order_number":      order.OrderNumber,
			"commission_amount": commission.CommissionAmount.String(),
			"commission_rate":   commission.CommissionRate.String(),
		},
	})
	if commission.CrossedThreshold(s.threshold) {
		buf.add(DomainEvent{
			Name:       constants.EventCommissionThreshold,
			OrderID:    order.ID,
			Recipients: []string{sellerRecipient(sellerID)},
			Data: map[string]interface{}{
				"user_id":   order.UserID,
				"month":     month,
				"threshold": s.threshold.String(),
			},
		})
	}
	return commission, nil
}

// reverseInTx cancels a credited commission and debits the partner wallet, which may go negative
func (s *CommissionService) reverseInTx(tx *gorm.DB, orderID uint, reason string, now time.Time) (*models.Commission, error) {
	repo := s.commissionRepo.WithTx(tx)
	commission, err := repo.GetByOrderIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if commission == nil || commission.Status != constants.CommissionStatusCredited {
		return commission, nil
	}

	ledger, err := repo.GetLedgerForUpdate(commission.SellerID, commission.UserID, commission.Month)
	if err != nil {
		return nil, err
	}
	remaining := ledger.CumulativeAmount.Decimal.Sub(commission.OrderAmount.Decimal)
	if remaining.LessThan(decimal.Zero) {
		remaining = decimal.Zero
	}
	ledger.CumulativeAmount = toMoney(remaining)
	if ledger.OrderCount > 0 {
		ledger.OrderCount--
	}
	ledger.UpdatedAt = now
	if err := repo.UpdateLedger(ledger); err != nil {
		return nil, err
	}

	if commission.CommissionAmount.Decimal.GreaterThan(decimal.Zero) {
		if _, _, err := s.walletSvc.DebitInTx(tx, WalletChangeInput{
			SellerID:      commission.SellerID,
			Amount:        commission.CommissionAmount,
			TxnType:       constants.WalletTxnTypeCommissionReversal,
			Reference:     commissionWalletReference(commission.ID, "reversal"),
			Remark:        reason,
			OrderID:       uintPtr(commission.OrderID),
			CommissionID:  uintPtr(commission.ID),
			AllowNegative: true,
		}); err != nil {
			return nil, err
		}
	}

	commission.Status = constants.CommissionStatusCancelled
	commission.CancelledAt = &now
	commission.CancelReason = reason
	commission.UpdatedAt = now
	if err := repo.Update(commission); err != nil {
		return nil, err
	}
	metrics.CommissionsReversed.Inc()
	logger.Infow("commission_reversed",
		"order_id", orderID,
		"commission_id", commission.ID,
		"seller_id", commission.SellerID,
		"amount", commission.CommissionAmount.String(),
	)
	return commission, nil
}

func (s *CommissionService) markSettled(tx *gorm.DB, order *models.Order) error {
	if order.CommissionSettled {
		return nil
	}
	if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, map[string]interface{}{"commission_settled": true}); err != nil {
		return err
	}
	order.CommissionSettled = true
	return nil
}

// acquireLedgerLock serializes settlements of one (partner, buyer, month) across instances.
// Without redis the ledger row lock alone serializes them.
func (s *CommissionService) acquireLedgerLock(ctx context.Context, sellerID, userID uint, month string) (*cache.Lock, error) {
	if !cache.Enabled() {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()
	key := fmt.Sprintf("commission:%d:%d:%s", sellerID, userID, month)
	lock, err := cache.AcquireLock(waitCtx, key, s.lockTTL, 0)
	if err == nil {
		return lock, nil
	}
	if errors.Is(err, cache.ErrLockNotAcquired) {
		return nil, conflictf(ErrCommissionLockBusy, "commission ledger %s is busy", key)
	}
	logger.Warnw("commission_lock_unavailable", "key", key, "error", err)
	return nil, nil
}
