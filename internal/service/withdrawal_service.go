package service

import (
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"gorm.io/gorm"
)

// WithdrawalService handles partner payout requests
type WithdrawalService struct {
	withdrawalRepo repository.WithdrawalRepository
	walletRepo     repository.WalletRepository
	walletSvc      *PartnerWalletService
}

// WithdrawalRequestInput is a partner payout request
type WithdrawalRequestInput struct {
	Amount         models.Money `json:"amount"`
	BankAccountRef string       `json:"bank_account_ref" validate:"required,max=120"`
}

// NewWithdrawalService creates the withdrawal service
func NewWithdrawalService(withdrawalRepo repository.WithdrawalRepository, walletRepo repository.WalletRepository, walletSvc *PartnerWalletService) *WithdrawalService {
	return &WithdrawalService{withdrawalRepo: withdrawalRepo, walletRepo: walletRepo, walletSvc: walletSvc}
}

// RequestWithdrawal records a payout request within the balance not already requested
func (s *WithdrawalService) RequestWithdrawal(principal Principal, input WithdrawalRequestInput) (*models.WithdrawalRequest, error) {
	if principal.Role != constants.RoleSeller || principal.ID == 0 {
		return nil, ErrOrderAccessDenied
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	amount := input.Amount.Decimal.Round(2)
	if !amount.IsPositive() {
		return nil, ErrWithdrawalAmountInvalid
	}
	var result *models.WithdrawalRequest
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		account, err := s.walletSvc.ensureAccountForUpdate(s.walletRepo.WithTx(tx), principal.ID, now)
		if err != nil {
			return err
		}
		pending, err := s.withdrawalRepo.WithTx(tx).SumPendingBySeller(principal.ID)
		if err != nil {
			return err
		}
		available := account.Balance.Decimal.Sub(pending.Decimal)
		if amount.GreaterThan(available) {
			return validationf(ErrWithdrawalExceedsBalance, "withdrawal exceeds available balance: requested ₹%s, available ₹%s",
				amount.StringFixed(2), available.StringFixed(2))
		}
		req := &models.WithdrawalRequest{
			SellerID:       principal.ID,
			Amount:         toMoney(amount),
			Status:         constants.WithdrawalStatusPending,
			BankAccountRef: strings.TrimSpace(input.BankAccountRef),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.withdrawalRepo.WithTx(tx).Create(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveWithdrawal debits the partner wallet once
func (s *WithdrawalService) ApproveWithdrawal(principal Principal, id uint) (*models.WithdrawalRequest, error) {
	return s.review(principal, id, func(tx *gorm.DB, req *models.WithdrawalRequest) error {
		if _, _, err := s.walletSvc.DebitInTx(tx, WalletChangeInput{
			SellerID:     req.SellerID,
			Amount:       req.Amount,
			TxnType:      constants.WalletTxnTypeWithdrawal,
			Reference:    withdrawalWalletReference(req.ID),
			Remark:       "withdrawal to " + req.BankAccountRef,
			WithdrawalID: uintPtr(req.ID),
		}); err != nil {
			return err
		}
		req.Status = constants.WithdrawalStatusApproved
		return nil
	})
}

// RejectWithdrawal closes the request without moving money
func (s *WithdrawalService) RejectWithdrawal(principal Principal, id uint, reason string) (*models.WithdrawalRequest, error) {
	return s.review(principal, id, func(tx *gorm.DB, req *models.WithdrawalRequest) error {
		req.Status = constants.WithdrawalStatusRejected
		req.RejectReason = strings.TrimSpace(reason)
		return nil
	})
}

// ListWithdrawals pages requests; partners only see their own
func (s *WithdrawalService) ListWithdrawals(principal Principal, filter repository.WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	switch principal.Role {
	case constants.RoleAdmin:
	case constants.RoleSeller:
		filter.SellerID = principal.ID
	default:
		return nil, 0, ErrOrderAccessDenied
	}
	return s.withdrawalRepo.List(filter)
}

func (s *WithdrawalService) review(principal Principal, id uint, apply func(tx *gorm.DB, req *models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	if !principal.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	var result *models.WithdrawalRequest
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawalRepo.WithTx(tx)
		req, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrWithdrawalNotFound
		}
		if req.Status != constants.WithdrawalStatusPending {
			return ErrWithdrawalStatusInvalid
		}
		if err := apply(tx, req); err != nil {
			return err
		}
		now := time.Now()
		req.ReviewedByID = principal.actorID()
		req.ReviewedAt = &now
		req.UpdatedAt = now
		if err := repo.Update(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdrawal_reviewed",
		"withdrawal_id", result.ID,
		"seller_id", result.SellerID,
		"status", result.Status,
		"amount", result.Amount.String(),
	)
	return result, nil
}
