package repository

import (
	"errors"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawalRepository stores partner payout requests
type WithdrawalRepository interface {
	Create(req *models.WithdrawalRequest) error
	Update(req *models.WithdrawalRequest) error
	GetByID(id uint) (*models.WithdrawalRequest, error)
	GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error)
	SumPendingBySeller(sellerID uint) (models.Money, error)
	List(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error)
	WithTx(tx *gorm.DB) *GormWithdrawalRepository
}

// GormWithdrawalRepository GORM implementation
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates the withdrawal repository
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx binds a transaction
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) *GormWithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// Create inserts a request
func (r *GormWithdrawalRepository) Create(req *models.WithdrawalRequest) error {
	return r.db.Create(req).Error
}

// Update saves a request
func (r *GormWithdrawalRepository) Update(req *models.WithdrawalRequest) error {
	return r.db.Save(req).Error
}

// GetByID returns a request by ID
func (r *GormWithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	return r.get(r.db, id)
}

// GetByIDForUpdate locks a request
func (r *GormWithdrawalRepository) GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error) {
	return r.get(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormWithdrawalRepository) get(db *gorm.DB, id uint) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var req models.WithdrawalRequest
	if err := db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// SumPendingBySeller totals requests still awaiting review
func (r *GormWithdrawalRepository) SumPendingBySeller(sellerID uint) (models.Money, error) {
	var rows []models.WithdrawalRequest
	if err := r.db.Select("amount").
		Where("seller_id = ? AND status = ?", sellerID, constants.WithdrawalStatusPending).
		Find(&rows).Error; err != nil {
		return models.ZeroMoney(), err
	}
	total := models.ZeroMoney()
	for _, row := range rows {
		total = models.NewMoneyFromDecimal(total.Decimal.Add(row.Amount.Decimal))
	}
	return total, nil
}

// List pages requests
func (r *GormWithdrawalRepository) List(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	query := r.db.Model(&models.WithdrawalRequest{})
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var reqs []models.WithdrawalRequest
	if err := query.Order("id desc").Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}
