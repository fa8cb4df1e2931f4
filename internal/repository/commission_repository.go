package repository

import (
	"errors"
	"time"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository stores commissions and the per-month purchase ledger
type CommissionRepository interface {
	Create(commission *models.Commission) error
	Update(commission *models.Commission) error
	GetByID(id uint) (*models.Commission, error)
	GetByOrderIDForUpdate(orderID uint) (*models.Commission, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
	GetLedgerForUpdate(sellerID, userID uint, month string) (*models.CommissionLedger, error)
	UpdateLedger(ledger *models.CommissionLedger) error
	WithTx(tx *gorm.DB) *GormCommissionRepository
}

// GormCommissionRepository GORM implementation
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates the commission repository
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) *GormCommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Create inserts a commission
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// Update saves a commission
func (r *GormCommissionRepository) Update(commission *models.Commission) error {
	return r.db.Save(commission).Error
}

// GetByID returns a commission by ID
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// GetByOrderIDForUpdate locks the commission of an order
func (r *GormCommissionRepository) GetByOrderIDForUpdate(orderID uint) (*models.Commission, error) {
	return r.getByOrderID(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), orderID)
}

func (r *GormCommissionRepository) getByOrderID(db *gorm.DB, orderID uint) (*models.Commission, error) {
	if orderID == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := db.Where("order_id = ?", orderID).Order("id desc").First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// List pages commissions
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{})
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Month != "" {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var commissions []models.Commission
	if err := query.Order("id desc").Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}

// GetLedgerForUpdate creates the ledger row when missing, then locks it
func (r *GormCommissionRepository) GetLedgerForUpdate(sellerID, userID uint, month string) (*models.CommissionLedger, error) {
	now := time.Now()
	seed := models.CommissionLedger{
		SellerID:         sellerID,
		UserID:           userID,
		Month:            month,
		CumulativeAmount: models.ZeroMoney(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var ledger models.CommissionLedger
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ? AND user_id = ? AND month = ?", sellerID, userID, month).
		First(&ledger).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}

// UpdateLedger saves the ledger row
func (r *GormCommissionRepository) UpdateLedger(ledger *models.CommissionLedger) error {
	return r.db.Save(ledger).Error
}
