package repository

import (
	"strings"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
)

// ProductRepository reads and writes catalog rows. Orders never read it directly;
// they copy a snapshot at placement.
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM implementation
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates the product repository
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx binds a transaction
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

func activeOnly(enabled bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !enabled {
			return db
		}
		return db.Where("is_active = ?", true)
	}
}

// List returns one page of products by id and the total matching the filter
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Scopes(
		activeOnly(filter.OnlyActive),
		containsText("name", strings.TrimSpace(filter.Search)),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	products := make([]models.Product, 0)
	if total == 0 {
		return products, 0, nil
	}
	err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id asc").Find(&products).Error
	return products, total, err
}

// GetByID returns nil without error when the product does not exist
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	return takeOne[models.Product](r.db.Where("id = ?", id))
}

// Create inserts a product
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update saves every column of the product
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}
