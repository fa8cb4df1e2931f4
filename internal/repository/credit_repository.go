package repository

import (
	"errors"
	"strings"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditRepository stores vendor credit purchases and repayments
type CreditRepository interface {
	Create(purchase *models.CreditPurchase) error
	Update(purchase *models.CreditPurchase) error
	GetByID(id uint) (*models.CreditPurchase, error)
	GetByIDForUpdate(id uint) (*models.CreditPurchase, error)
	List(filter CreditPurchaseListFilter) ([]models.CreditPurchase, int64, error)
	CreateRepayment(repayment *models.CreditRepayment) error
	GetRepaymentByReference(reference string) (*models.CreditRepayment, error)
	WithTx(tx *gorm.DB) *GormCreditRepository
}

// GormCreditRepository GORM implementation
type GormCreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates the credit repository
func NewCreditRepository(db *gorm.DB) *GormCreditRepository {
	return &GormCreditRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCreditRepository) WithTx(tx *gorm.DB) *GormCreditRepository {
	if tx == nil {
		return r
	}
	return &GormCreditRepository{db: tx}
}

// Create inserts the purchase with its items
func (r *GormCreditRepository) Create(purchase *models.CreditPurchase) error {
	return r.db.Create(purchase).Error
}

// Update saves the purchase row only
func (r *GormCreditRepository) Update(purchase *models.CreditPurchase) error {
	return r.db.Omit(clause.Associations).Save(purchase).Error
}

// GetByID returns a purchase with items and repayments
func (r *GormCreditRepository) GetByID(id uint) (*models.CreditPurchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.CreditPurchase
	if err := r.db.Preload("Items").
		Preload("Repayments", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// GetByIDForUpdate locks the purchase row
func (r *GormCreditRepository) GetByIDForUpdate(id uint) (*models.CreditPurchase, error) {
	if id == 0 {
		return nil, nil
	}
	var purchase models.CreditPurchase
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// List pages purchases
func (r *GormCreditRepository) List(filter CreditPurchaseListFilter) ([]models.CreditPurchase, int64, error) {
	query := r.db.Model(&models.CreditPurchase{})
	if filter.VendorID != 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CycleStatus != "" {
		query = query.Where("cycle_status = ?", filter.CycleStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var purchases []models.CreditPurchase
	if err := query.Preload("Items").Order("id desc").Find(&purchases).Error; err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

// CreateRepayment inserts a repayment
func (r *GormCreditRepository) CreateRepayment(repayment *models.CreditRepayment) error {
	return r.db.Create(repayment).Error
}

// GetRepaymentByReference returns the repayment with the reference
func (r *GormCreditRepository) GetRepaymentByReference(reference string) (*models.CreditRepayment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var repayment models.CreditRepayment
	if err := r.db.Where("reference = ?", reference).First(&repayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &repayment, nil
}
