package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/cache"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the name and price copied onto an order line at checkout
type ProductSnapshot struct {
	ProductID uint
	Name      string
	Price     models.Money
}

// ProductCatalog resolves product snapshots; it is read at order creation only
type ProductCatalog interface {
	GetProductSnapshot(ctx context.Context, productID uint) (*ProductSnapshot, error)
}

const productSnapshotTTL = 5 * time.Minute

// CatalogService serves snapshots from the local product table and manages its rows
type CatalogService struct {
	productRepo repository.ProductRepository
}

// CreateProductInput admin product input
type CreateProductInput struct {
	Name     string       `json:"name" validate:"required,max=200"`
	Price    models.Money `json:"price"`
	IsActive bool         `json:"is_active"`
}

// NewCatalogService creates the catalog
func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

func productSnapshotKey(productID uint) string {
	return "product_snapshot:" + strconv.FormatUint(uint64(productID), 10)
}

// GetProductSnapshot returns the current name and price of an active product.
// Snapshots are cached in redis when it is enabled; updates drop the entry.
func (s *CatalogService) GetProductSnapshot(ctx context.Context, productID uint) (*ProductSnapshot, error) {
	var cached ProductSnapshot
	if hit, err := cache.GetJSON(ctx, productSnapshotKey(productID), &cached); err != nil {
		logger.Warnw("product_snapshot_cache_read_failed", "product_id", productID, "error", err)
	} else if hit {
		return &cached, nil
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, validationf(ErrProductNotAvailable, "product %d does not exist", productID)
	}
	if !product.IsActive || product.Price.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, validationf(ErrProductNotAvailable, "product %s is not available", product.Name)
	}
	snapshot := &ProductSnapshot{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
	}
	if err := cache.SetJSON(ctx, productSnapshotKey(productID), snapshot, productSnapshotTTL); err != nil {
		logger.Warnw("product_snapshot_cache_write_failed", "product_id", productID, "error", err)
	}
	return snapshot, nil
}

// ListProducts pages catalog rows
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// CreateProduct adds a catalog row
func (s *CatalogService) CreateProduct(input CreateProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Price.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, validationf(ErrInvalidInput, "price must be positive")
	}
	product := &models.Product{
		Name:     strings.TrimSpace(input.Name),
		Price:    toMoney(input.Price.Decimal),
		IsActive: input.IsActive,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct changes price, name or availability; existing orders keep their snapshots
func (s *CatalogService) UpdateProduct(id uint, input CreateProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.Price.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, validationf(ErrInvalidInput, "price must be positive")
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Price = toMoney(input.Price.Decimal)
	product.IsActive = input.IsActive
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	if err := cache.Del(context.Background(), productSnapshotKey(id)); err != nil {
		logger.Warnw("product_snapshot_cache_evict_failed", "product_id", id, "error", err)
	}
	return product, nil
}
