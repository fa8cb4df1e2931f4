package repository

import (
	"errors"
	"strings"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
)

// SellerRepository is the referral partner registry
type SellerRepository interface {
	Create(seller *models.Seller) error
	GetByID(id uint) (*models.Seller, error)
	GetByIDCode(code string) (*models.Seller, error)
	List(page, pageSize int) ([]models.Seller, int64, error)
	WithTx(tx *gorm.DB) *GormSellerRepository
}

// GormSellerRepository GORM implementation
type GormSellerRepository struct {
	db *gorm.DB
}

// NewSellerRepository creates the seller repository
func NewSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// WithTx binds a transaction
func (r *GormSellerRepository) WithTx(tx *gorm.DB) *GormSellerRepository {
	if tx == nil {
		return r
	}
	return &GormSellerRepository{db: tx}
}

// Create inserts a seller
func (r *GormSellerRepository) Create(seller *models.Seller) error {
	return r.db.Create(seller).Error
}

// GetByID returns a seller by ID
func (r *GormSellerRepository) GetByID(id uint) (*models.Seller, error) {
	if id == 0 {
		return nil, nil
	}
	var seller models.Seller
	if err := r.db.First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// GetByIDCode resolves the code a buyer entered at checkout
func (r *GormSellerRepository) GetByIDCode(code string) (*models.Seller, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var seller models.Seller
	if err := r.db.Where("id_code = ?", code).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// List pages sellers
func (r *GormSellerRepository) List(page, pageSize int) ([]models.Seller, int64, error) {
	query := r.db.Model(&models.Seller{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sellers []models.Seller
	if err := query.Scopes(paginate(page, pageSize)).Order("id desc").Find(&sellers).Error; err != nil {
		return nil, 0, err
	}
	return sellers, total, nil
}
