package repository

import (
	"errors"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VendorRepository is the vendor data access interface
type VendorRepository interface {
	Create(vendor *models.Vendor) error
	GetByID(id uint) (*models.Vendor, error)
	GetByIDForUpdate(id uint) (*models.Vendor, error)
	Update(vendor *models.Vendor) error
	IncrementEscalationCount(id uint) error
	List(filter VendorListFilter) ([]models.Vendor, int64, error)
	WithTx(tx *gorm.DB) *GormVendorRepository
}

// GormVendorRepository GORM implementation
type GormVendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates the vendor repository
func NewVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// WithTx binds a transaction
func (r *GormVendorRepository) WithTx(tx *gorm.DB) *GormVendorRepository {
	if tx == nil {
		return r
	}
	return &GormVendorRepository{db: tx}
}

// Create inserts a vendor
func (r *GormVendorRepository) Create(vendor *models.Vendor) error {
	return r.db.Create(vendor).Error
}

// GetByID returns a vendor by ID
func (r *GormVendorRepository) GetByID(id uint) (*models.Vendor, error) {
	if id == 0 {
		return nil, nil
	}
	var vendor models.Vendor
	if err := r.db.First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// GetByIDForUpdate locks the vendor row
func (r *GormVendorRepository) GetByIDForUpdate(id uint) (*models.Vendor, error) {
	if id == 0 {
		return nil, nil
	}
	var vendor models.Vendor
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// Update saves a vendor
func (r *GormVendorRepository) Update(vendor *models.Vendor) error {
	return r.db.Save(vendor).Error
}

// IncrementEscalationCount bumps the counter atomically
func (r *GormVendorRepository) IncrementEscalationCount(id uint) error {
	return r.db.Model(&models.Vendor{}).Where("id = ?", id).
		UpdateColumn("escalation_count", gorm.Expr("escalation_count + ?", 1)).Error
}

// List pages vendors
func (r *GormVendorRepository) List(filter VendorListFilter) ([]models.Vendor, int64, error) {
	query := r.db.Model(&models.Vendor{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		op := likeOperator(r.db)
		query = query.Where("(name "+op+" ? OR phone "+op+" ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var vendors []models.Vendor
	if err := query.Order("id desc").Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}
