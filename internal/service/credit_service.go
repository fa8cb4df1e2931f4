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

// RepaymentTier adjusts a repayment by Percent when the cycle age in days is within [MinDays, MaxDays]; MaxDays 0 is unbounded
type RepaymentTier struct {
	Name    string
	MinDays int
	MaxDays int
	Percent decimal.Decimal
}

func (t RepaymentTier) covers(days int) bool {
	if days < t.MinDays {
		return false
	}
	return t.MaxDays == 0 || days <= t.MaxDays
}

// CreditOptions configures vendor credit purchases
type CreditOptions struct {
	MinPurchase   decimal.Decimal
	MaxPurchase   decimal.Decimal
	DiscountTiers []RepaymentTier
	InterestTiers []RepaymentTier
	RetryAttempts int
}

// CreditService runs vendor inventory credit cycles
type CreditService struct {
	creditRepo repository.CreditRepository
	vendorRepo repository.VendorRepository
	catalog    ProductCatalog
	opts       CreditOptions
}

// CreditPurchaseItemInput is one purchased line
type CreditPurchaseItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

// CreditPurchaseInput is a vendor purchase request; TotalAmount must match the priced items
type CreditPurchaseInput struct {
	Items       []CreditPurchaseItemInput `json:"items" validate:"required,min=1,dive"`
	TotalAmount models.Money              `json:"total_amount"`
	Notes       string                    `json:"notes" validate:"max=500"`
}

// RepaymentInput is one repayment; Reference is the payment idempotency key
type RepaymentInput struct {
	Amount    models.Money `json:"amount"`
	PaidAt    *time.Time   `json:"paid_at"`
	Method    string       `json:"method" validate:"omitempty,oneof=razorpay bank_transfer upi cash other"`
	Reference string       `json:"reference" validate:"required,max=128"`
}

// RepaymentQuote is the amount due today including an early discount or late interest
type RepaymentQuote struct {
	CreditPurchaseID uint         `json:"credit_purchase_id"`
	Outstanding      models.Money `json:"outstanding"`
	DaysElapsed      int          `json:"days_elapsed"`
	Tier             string       `json:"tier,omitempty"`
	DiscountPercent  string       `json:"discount_percent"`
	InterestPercent  string       `json:"interest_percent"`
	Adjustment       models.Money `json:"adjustment"`
	AmountDue        models.Money `json:"amount_due"`
}

// NewCreditService creates the credit service
func NewCreditService(creditRepo repository.CreditRepository, vendorRepo repository.VendorRepository, catalog ProductCatalog, opts CreditOptions) *CreditService {
	return &CreditService{creditRepo: creditRepo, vendorRepo: vendorRepo, catalog: catalog, opts: opts}
}

// RequestCreditPurchase records a pending purchase priced from the catalog
func (s *CreditService) RequestCreditPurchase(principal Principal, input CreditPurchaseInput) (*models.CreditPurchase, error) {
	if principal.Role != constants.RoleVendor || principal.ID == 0 {
		return nil, ErrOrderAccessDenied
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	vendor, err := s.vendorRepo.GetByID(principal.ID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	if vendor.Status != constants.VendorStatusActive {
		return nil, ErrVendorInactive
	}

	now := time.Now()
	items := make([]models.CreditPurchaseItem, 0, len(input.Items))
	sum := decimal.Zero
	for _, in := range input.Items {
		snapshot, err := s.catalog.GetProductSnapshot(context.Background(), in.ProductID)
		if err != nil {
			return nil, err
		}
		total := lineTotal(snapshot.Price, in.Quantity)
		sum = sum.Add(total.Decimal)
		items = append(items, models.CreditPurchaseItem{
			ProductID:   snapshot.ProductID,
			ProductName: snapshot.Name,
			Quantity:    in.Quantity,
			UnitPrice:   snapshot.Price,
			TotalPrice:  total,
			CreatedAt:   now,
		})
	}
	declared := input.TotalAmount.Decimal.Round(2)
	if !declared.Equal(sum.Round(2)) {
		return nil, validationf(ErrCreditItemsMismatch, "credit purchase total ₹%s does not match items total ₹%s",
			declared.StringFixed(2), sum.StringFixed(2))
	}
	if declared.LessThan(s.opts.MinPurchase) || declared.GreaterThan(s.opts.MaxPurchase) {
		return nil, validationf(ErrCreditAmountOutOfRange, "credit purchase total must be between ₹%s and ₹%s, got ₹%s",
			s.opts.MinPurchase.StringFixed(2), s.opts.MaxPurchase.StringFixed(2), declared.StringFixed(2))
	}
	if declared.GreaterThan(vendor.AvailableCredit.Decimal) {
		return nil, validationf(ErrInsufficientCredit, "purchase of ₹%s exceeds available credit ₹%s",
			declared.StringFixed(2), vendor.AvailableCredit.String())
	}

	purchase := &models.CreditPurchase{
		VendorID:          vendor.ID,
		Status:            constants.CreditPurchaseStatusPending,
		PrincipalAmount:   toMoney(declared),
		OutstandingAmount: models.ZeroMoney(),
		TotalRepaid:       models.ZeroMoney(),
		Notes:             strings.TrimSpace(input.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	}
	if err := s.creditRepo.Create(purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ApproveCreditPurchase takes the principal from the vendor credit line and opens the cycle
func (s *CreditService) ApproveCreditPurchase(principal Principal, id uint) (*models.CreditPurchase, error) {
	return s.review(principal, id, func(tx *gorm.DB, purchase *models.CreditPurchase, now time.Time) error {
		vendorRepo := s.vendorRepo.WithTx(tx)
		vendor, err := vendorRepo.GetByIDForUpdate(purchase.VendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return ErrVendorNotFound
		}
		if purchase.PrincipalAmount.Decimal.GreaterThan(vendor.AvailableCredit.Decimal) {
			return validationf(ErrInsufficientCredit, "purchase of ₹%s exceeds available credit ₹%s",
				purchase.PrincipalAmount.String(), vendor.AvailableCredit.String())
		}
		vendor.AvailableCredit = toMoney(vendor.AvailableCredit.Decimal.Sub(purchase.PrincipalAmount.Decimal))
		if err := vendorRepo.Update(vendor); err != nil {
			return err
		}
		purchase.Status = constants.CreditPurchaseStatusApproved
		purchase.CycleStatus = constants.CreditCycleStatusActive
		purchase.OutstandingAmount = purchase.PrincipalAmount
		purchase.ApprovedAt = &now
		return nil
	})
}

// RejectCreditPurchase closes a pending request
func (s *CreditService) RejectCreditPurchase(principal Principal, id uint, reason string) (*models.CreditPurchase, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf(ErrInvalidInput, "reason is required")
	}
	return s.review(principal, id, func(tx *gorm.DB, purchase *models.CreditPurchase, now time.Time) error {
		purchase.Status = constants.CreditPurchaseStatusRejected
		purchase.RejectionReason = reason
		return nil
	})
}

// ProcessPartialRepayment applies a repayment once per reference: outstanding goes down, the vendor
// credit line is restored by the same amount and the cycle closes at zero.
func (s *CreditService) ProcessPartialRepayment(ctx context.Context, principal Principal, cycleID uint, input RepaymentInput) (*models.CreditPurchase, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	amount := input.Amount.Decimal.Round(2)
	if !amount.IsPositive() {
		return nil, ErrRepaymentAmountInvalid
	}
	var result *models.CreditPurchase
	err := withConflictRetry(s.opts.RetryAttempts, "credit_repayment", func() error {
		return models.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.creditRepo.WithTx(tx)
			reference := strings.TrimSpace(input.Reference)
			existing, err := repo.GetRepaymentByReference(reference)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.CreditPurchaseID != cycleID {
					return validationf(ErrInvalidInput, "reference %s belongs to another credit cycle", reference)
				}
				result, err = repo.GetByID(cycleID)
				return err
			}

			purchase, err := repo.GetByIDForUpdate(cycleID)
			if err != nil {
				return err
			}
			if purchase == nil {
				return ErrCreditPurchaseNotFound
			}
			if err := authorizeCreditAccess(principal, purchase); err != nil {
				return err
			}
			if purchase.Status != constants.CreditPurchaseStatusApproved || purchase.CycleStatus != constants.CreditCycleStatusActive {
				return ErrCreditCycleClosed
			}
			outstanding := purchase.OutstandingAmount.Decimal.Round(2)
			if amount.GreaterThan(outstanding) {
				return validationf(ErrRepaymentExceedsOutstanding, "repayment exceeds outstanding: requested ₹%s, outstanding ₹%s",
					amount.StringFixed(2), outstanding.StringFixed(2))
			}

			now := time.Now()
			paidAt := now
			if input.PaidAt != nil && !input.PaidAt.IsZero() {
				paidAt = *input.PaidAt
			}
			after := outstanding.Sub(amount)
			purchase.OutstandingAmount = toMoney(after)
			purchase.TotalRepaid = toMoney(purchase.TotalRepaid.Decimal.Add(amount))
			if after.IsZero() {
				purchase.CycleStatus = constants.CreditCycleStatusClosed
				purchase.ClosedAt = &now
			}
			purchase.UpdatedAt = now

			vendorRepo := s.vendorRepo.WithTx(tx)
			vendor, err := vendorRepo.GetByIDForUpdate(purchase.VendorID)
			if err != nil {
				return err
			}
			if vendor == nil {
				return ErrVendorNotFound
			}
			vendor.AvailableCredit = toMoney(vendor.AvailableCredit.Decimal.Add(amount))
			if err := vendorRepo.Update(vendor); err != nil {
				return err
			}

			repayment := &models.CreditRepayment{
				CreditPurchaseID:  purchase.ID,
				VendorID:          purchase.VendorID,
				Amount:            toMoney(amount),
				OutstandingBefore: toMoney(outstanding),
				OutstandingAfter:  toMoney(after),
				Method:            input.Method,
				Reference:         reference,
				Status:            constants.RepaymentStatusCompleted,
				RepaidAt:          paidAt,
				CreatedAt:         now,
			}
			if err := repo.CreateRepayment(repayment); err != nil {
				if repository.IsUniqueViolation(err) {
					return conflictf(ErrConcurrentUpdate, "repayment reference %s recorded concurrently", reference)
				}
				return err
			}
			if err := repo.Update(purchase); err != nil {
				return err
			}
			if after.Add(purchase.TotalRepaid.Decimal).Cmp(purchase.PrincipalAmount.Decimal) != 0 {
				metrics.ConsistencyFailures.WithLabelValues("credit_repayment").Inc()
				return consistencyf(ErrOrderTotalsMismatch, "credit cycle %d outstanding %s + repaid %s != principal %s",
					purchase.ID, purchase.OutstandingAmount, purchase.TotalRepaid, purchase.PrincipalAmount)
			}
			metrics.CreditRepayments.Inc()
			logger.Infow("credit_repayment_applied",
				"credit_purchase_id", purchase.ID,
				"vendor_id", purchase.VendorID,
				"amount", repayment.Amount.String(),
				"outstanding_after", repayment.OutstandingAfter.String(),
				"cycle_status", purchase.CycleStatus,
			)
			result = purchase
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QuoteRepayment prices settling the whole outstanding amount at asOf.
// Early discount and late interest are mutually exclusive; discount tiers are checked first.
func (s *CreditService) QuoteRepayment(principal Principal, cycleID uint, asOf time.Time) (*RepaymentQuote, error) {
	purchase, err := s.creditRepo.GetByID(cycleID)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrCreditPurchaseNotFound
	}
	if err := authorizeCreditAccess(principal, purchase); err != nil {
		return nil, err
	}
	if purchase.CycleStatus != constants.CreditCycleStatusActive || purchase.ApprovedAt == nil {
		return nil, ErrCreditCycleClosed
	}
	return quoteRepayment(purchase, asOf, s.opts.DiscountTiers, s.opts.InterestTiers), nil
}

func quoteRepayment(purchase *models.CreditPurchase, asOf time.Time, discounts, interests []RepaymentTier) *RepaymentQuote {
	outstanding := purchase.OutstandingAmount.Decimal
	days := 0
	if purchase.ApprovedAt != nil && asOf.After(*purchase.ApprovedAt) {
		days = int(asOf.Sub(*purchase.ApprovedAt).Hours() / 24)
	}
	quote := &RepaymentQuote{
		CreditPurchaseID: purchase.ID,
		Outstanding:      toMoney(outstanding),
		DaysElapsed:      days,
		DiscountPercent:  "0",
		InterestPercent:  "0",
		Adjustment:       models.ZeroMoney(),
		AmountDue:        toMoney(outstanding),
	}
	for _, tier := range discounts {
		if tier.covers(days) {
			adjustment := percentOf(outstanding, tier.Percent).Round(2)
			quote.Tier = tier.Name
			quote.DiscountPercent = tier.Percent.String()
			quote.Adjustment = toMoney(adjustment.Neg())
			quote.AmountDue = toMoney(outstanding.Sub(adjustment))
			return quote
		}
	}
	for _, tier := range interests {
		if tier.covers(days) {
			adjustment := percentOf(outstanding, tier.Percent).Round(2)
			quote.Tier = tier.Name
			quote.InterestPercent = tier.Percent.String()
			quote.Adjustment = toMoney(adjustment)
			quote.AmountDue = toMoney(outstanding.Add(adjustment))
			return quote
		}
	}
	return quote
}

// GetCreditPurchase returns one purchase with items and repayments
func (s *CreditService) GetCreditPurchase(principal Principal, id uint) (*models.CreditPurchase, error) {
	purchase, err := s.creditRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrCreditPurchaseNotFound
	}
	if err := authorizeCreditAccess(principal, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListCreditPurchases pages purchases; vendors only see their own
func (s *CreditService) ListCreditPurchases(principal Principal, filter repository.CreditPurchaseListFilter) ([]models.CreditPurchase, int64, error) {
	switch principal.Role {
	case constants.RoleAdmin:
	case constants.RoleVendor:
		filter.VendorID = principal.ID
	default:
		return nil, 0, ErrOrderAccessDenied
	}
	return s.creditRepo.List(filter)
}

func (s *CreditService) review(principal Principal, id uint, apply func(tx *gorm.DB, purchase *models.CreditPurchase, now time.Time) error) (*models.CreditPurchase, error) {
	if !principal.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	var result *models.CreditPurchase
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.creditRepo.WithTx(tx)
		purchase, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return ErrCreditPurchaseNotFound
		}
		if purchase.Status != constants.CreditPurchaseStatusPending {
			return ErrCreditPurchaseStatusInvalid
		}
		now := time.Now()
		if err := apply(tx, purchase, now); err != nil {
			return err
		}
		purchase.ReviewedByID = principal.actorID()
		purchase.ReviewedAt = &now
		purchase.UpdatedAt = now
		if err := repo.Update(purchase); err != nil {
			return err
		}
		result = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("credit_purchase_reviewed",
		"credit_purchase_id", result.ID,
		"vendor_id", result.VendorID,
		"status", result.Status,
	)
	return result, nil
}

func authorizeCreditAccess(principal Principal, purchase *models.CreditPurchase) error {
	if principal.IsAdmin() {
		return nil
	}
	if principal.Role == constants.RoleVendor && purchase.VendorID == principal.ID {
		return nil
	}
	return ErrOrderAccessDenied
}
