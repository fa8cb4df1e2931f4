package repository

import (
	"errors"
	"strings"

	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
)

// PaymentEventRepository stores gateway callbacks
type PaymentEventRepository interface {
	Create(event *models.PaymentEvent) error
	GetByReference(reference string) (*models.PaymentEvent, error)
	ListByOrderID(orderID uint) ([]models.PaymentEvent, error)
	WithTx(tx *gorm.DB) *GormPaymentEventRepository
}

// GormPaymentEventRepository GORM implementation
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates the payment event repository
func NewPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// WithTx binds a transaction
func (r *GormPaymentEventRepository) WithTx(tx *gorm.DB) *GormPaymentEventRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentEventRepository{db: tx}
}

// Create inserts an event
func (r *GormPaymentEventRepository) Create(event *models.PaymentEvent) error {
	return r.db.Create(event).Error
}

// GetByReference returns the event with the gateway reference
func (r *GormPaymentEventRepository) GetByReference(reference string) (*models.PaymentEvent, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var event models.PaymentEvent
	if err := r.db.Where("reference = ?", reference).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListByOrderID lists events of an order, oldest first
func (r *GormPaymentEventRepository) ListByOrderID(orderID uint) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
