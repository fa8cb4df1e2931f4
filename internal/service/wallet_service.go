package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartnerWalletService keeps the commission balance of referral partners
type PartnerWalletService struct {
	walletRepo     repository.WalletRepository
	withdrawalRepo repository.WithdrawalRepository
}

// WalletChangeInput is one reference-keyed balance movement applied inside a transaction
type WalletChangeInput struct {
	SellerID      uint
	Amount        models.Money
	TxnType       string
	Reference     string
	Remark        string
	OrderID       *uint
	CommissionID  *uint
	WithdrawalID  *uint
	AllowNegative bool
}

// WalletSummary is the partner balance view
type WalletSummary struct {
	Account            *models.PartnerWalletAccount `json:"account"`
	PendingWithdrawals models.Money                 `json:"pending_withdrawals"`
	AvailableBalance   models.Money                 `json:"available_balance"`
}

// NewPartnerWalletService creates the wallet service
func NewPartnerWalletService(walletRepo repository.WalletRepository, withdrawalRepo repository.WithdrawalRepository) *PartnerWalletService {
	return &PartnerWalletService{walletRepo: walletRepo, withdrawalRepo: withdrawalRepo}
}

// GetSummary returns the balance net of pending withdrawals
func (s *PartnerWalletService) GetSummary(sellerID uint) (*WalletSummary, error) {
	if sellerID == 0 {
		return nil, ErrSellerNotFound
	}
	account, err := s.walletRepo.GetAccountBySellerID(sellerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &models.PartnerWalletAccount{SellerID: sellerID, Balance: models.ZeroMoney()}
	}
	pending, err := s.withdrawalRepo.SumPendingBySeller(sellerID)
	if err != nil {
		return nil, err
	}
	return &WalletSummary{
		Account:            account,
		PendingWithdrawals: pending,
		AvailableBalance:   toMoney(account.Balance.Decimal.Sub(pending.Decimal)),
	}, nil
}

// ListTransactions pages wallet movements
func (s *PartnerWalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.PartnerWalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// CreditInTx adds to the balance once per reference
func (s *PartnerWalletService) CreditInTx(tx *gorm.DB, input WalletChangeInput) (*models.PartnerWalletAccount, *models.PartnerWalletTransaction, error) {
	return s.applyInTx(tx, input, constants.WalletTxnDirectionIn)
}

// DebitInTx subtracts from the balance once per reference
func (s *PartnerWalletService) DebitInTx(tx *gorm.DB, input WalletChangeInput) (*models.PartnerWalletAccount, *models.PartnerWalletTransaction, error) {
	return s.applyInTx(tx, input, constants.WalletTxnDirectionOut)
}

func (s *PartnerWalletService) applyInTx(tx *gorm.DB, input WalletChangeInput, direction string) (*models.PartnerWalletAccount, *models.PartnerWalletTransaction, error) {
	if tx == nil {
		return nil, nil, consistencyf(ErrCommissionMismatch, "wallet change outside a transaction: %s", input.Reference)
	}
	if input.SellerID == 0 {
		return nil, nil, ErrSellerNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, validationf(ErrInvalidInput, "wallet amount must be positive")
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrInvalidInput
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, err := s.ensureAccountForUpdate(repo, input.SellerID, now)
		if err != nil {
			return nil, nil, err
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.SellerID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(amount)
	if direction == constants.WalletTxnDirectionOut {
		after = before.Sub(amount)
		if after.LessThan(decimal.Zero) && !input.AllowNegative {
			return nil, nil, validationf(ErrWithdrawalExceedsBalance,
				"withdrawal exceeds available balance: requested ₹%s, available ₹%s", amount.StringFixed(2), before.StringFixed(2))
		}
	}
	account.Balance = toMoney(after)
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, err
	}

	txn := &models.PartnerWalletTransaction{
		SellerID:      input.SellerID,
		OrderID:       input.OrderID,
		CommissionID:  input.CommissionID,
		WithdrawalID:  input.WithdrawalID,
		Type:          input.TxnType,
		Direction:     direction,
		Amount:        toMoney(amount),
		BalanceBefore: toMoney(before),
		BalanceAfter:  toMoney(after),
		Reference:     reference,
		Remark:        strings.TrimSpace(input.Remark),
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, err
	}
	return account, txn, nil
}

func (s *PartnerWalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, sellerID uint, now time.Time) (*models.PartnerWalletAccount, error) {
	account, err := repo.GetAccountBySellerIDForUpdate(sellerID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.PartnerWalletAccount{
		SellerID:  sellerID,
		Balance:   models.ZeroMoney(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountBySellerIDForUpdate(sellerID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, err
	}
	return account, nil
}

func commissionWalletReference(commissionID uint, action string) string {
	return fmt.Sprintf("commission:%d:%s", commissionID, action)
}

func withdrawalWalletReference(withdrawalID uint) string {
	return fmt.Sprintf("withdrawal:%d", withdrawalID)
}
