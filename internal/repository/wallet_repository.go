package repository

import (
	"strings"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the partner wallet data access interface
type WalletRepository interface {
	GetAccountBySellerID(sellerID uint) (*models.PartnerWalletAccount, error)
	GetAccountBySellerIDForUpdate(sellerID uint) (*models.PartnerWalletAccount, error)
	CreateAccount(account *models.PartnerWalletAccount) error
	UpdateAccount(account *models.PartnerWalletAccount) error
	CreateTransaction(txn *models.PartnerWalletTransaction) error
	GetTransactionByReference(reference string) (*models.PartnerWalletTransaction, error)
	ListTransactions(filter WalletTransactionListFilter) ([]models.PartnerWalletTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// GormWalletRepository GORM implementation
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates the wallet repository
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx binds a transaction
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// GetAccountBySellerID returns the wallet of a partner, nil when it has none yet
func (r *GormWalletRepository) GetAccountBySellerID(sellerID uint) (*models.PartnerWalletAccount, error) {
	if sellerID == 0 {
		return nil, nil
	}
	return takeOne[models.PartnerWalletAccount](r.db.Where("seller_id = ?", sellerID))
}

// GetAccountBySellerIDForUpdate is GetAccountBySellerID holding a row lock until the transaction ends
func (r *GormWalletRepository) GetAccountBySellerIDForUpdate(sellerID uint) (*models.PartnerWalletAccount, error) {
	if sellerID == 0 {
		return nil, nil
	}
	locked := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("seller_id = ?", sellerID)
	return takeOne[models.PartnerWalletAccount](locked)
}

// CreateAccount inserts a wallet
func (r *GormWalletRepository) CreateAccount(account *models.PartnerWalletAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount saves a wallet
func (r *GormWalletRepository) UpdateAccount(account *models.PartnerWalletAccount) error {
	return r.db.Save(account).Error
}

// CreateTransaction appends a wallet movement
func (r *GormWalletRepository) CreateTransaction(txn *models.PartnerWalletTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference finds the movement booked under an idempotency reference
func (r *GormWalletRepository) GetTransactionByReference(reference string) (*models.PartnerWalletTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	return takeOne[models.PartnerWalletTransaction](r.db.Where("reference = ?", reference))
}

// ListTransactions pages wallet movements, newest first
func (r *GormWalletRepository) ListTransactions(filter WalletTransactionListFilter) ([]models.PartnerWalletTransaction, int64, error) {
	query := r.db.Model(&models.PartnerWalletTransaction{}).Scopes(
		equalsIfSet("seller_id", filter.SellerID),
		equalsIfSet("order_id", filter.OrderID),
		equalsIfSet("type", filter.Type),
		equalsIfSet("direction", filter.Direction),
		createdBetween(filter.CreatedFrom, filter.CreatedTo),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.PartnerWalletTransaction
	err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&txns).Error
	return txns, total, err
}
