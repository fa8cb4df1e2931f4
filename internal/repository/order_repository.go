package repository

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the order data access interface
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	OrderNumberExists(orderNumber string) (bool, error)
	MaxDailySequence(prefix, day string) (int64, error)
	ListChildren(parentID uint) ([]models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	Save(order *models.Order) error
	UpdateFields(id uint, updates map[string]interface{}) error
	CloseGrace(id uint, kind string, updates map[string]interface{}) (bool, error)
	ListGraceExpired(kind string, now time.Time, limit int) ([]uint, error)
	ListGraceExpiring(kind string, before time.Time, limit int) ([]models.Order, error)
	MarkGraceExpiringNotified(id uint, kind string) (bool, error)
	SaveItem(item *models.OrderItem) error
	DeleteItems(ids []uint) error
	AppendTimeline(event *models.OrderStatusEvent) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM implementation
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GraceColumnPrefix maps a grace window kind to its embedded column prefix
func GraceColumnPrefix(kind string) string {
	switch kind {
	case constants.GraceWindowStatusUpdate:
		return "status_grace_"
	default:
		return "acceptance_grace_"
	}
}

func (r *GormOrderRepository) withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Children.Items")
}

// Create inserts the order and its items
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID returns an order with items, timeline and children
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.withDetails(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate locks the order row and loads its items
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", order.ID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// GetByOrderNumber returns an order by its number
func (r *GormOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.withDetails(r.db).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// OrderNumberExists checks numbers including soft deleted orders
func (r *GormOrderRepository) OrderNumberExists(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MaxDailySequence returns the highest counter suffix stored for the day, 0 when none.
// Timestamp fallback numbers and split children are skipped.
func (r *GormOrderRepository) MaxDailySequence(prefix, day string) (int64, error) {
	base := prefix + "-" + day + "-"
	var numbers []string
	if err := r.db.Unscoped().Model(&models.Order{}).
		Where("order_number LIKE ? AND order_number NOT LIKE ?", base+"%", base+"T%").
		Where("parent_order_id IS NULL").
		Order("LENGTH(order_number) desc, order_number desc").
		Limit(1).
		Pluck("order_number", &numbers).Error; err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	value, err := strconv.ParseInt(strings.TrimPrefix(numbers[0], base), 10, 64)
	if err != nil {
		return 0, nil
	}
	return value, nil
}

// ListChildren lists split children of a parent order
func (r *GormOrderRepository) ListChildren(parentID uint) ([]models.Order, error) {
	var orders []models.Order
	if parentID == 0 {
		return orders, nil
	}
	if err := r.db.Preload("Items").
		Where("parent_order_id = ?", parentID).
		Order("id asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List pages orders matching the filter
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.VendorID != 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	query = query.Scopes(containsText("order_number", filter.OrderNumber))
	if filter.ParentOrderID != 0 {
		query = query.Where("parent_order_id = ?", filter.ParentOrderID)
	}
	if filter.RootOnly {
		query = query.Where("parent_order_id IS NULL")
	}
	if filter.EscalatedOnly {
		query = query.Where("escalation_active = ?", true)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var orders []models.Order
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Save writes the order row without touching associations
func (r *GormOrderRepository) Save(order *models.Order) error {
	return r.db.Omit(clause.Associations).Save(order).Error
}

// UpdateFields applies a partial update
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// CloseGrace applies updates only while the window is still open.
// It reports false when another caller already closed the window.
func (r *GormOrderRepository) CloseGrace(id uint, kind string, updates map[string]interface{}) (bool, error) {
	prefix := GraceColumnPrefix(kind)
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates[prefix+"active"] = false
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND "+prefix+"active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListGraceExpired returns ids of orders whose window has run out
func (r *GormOrderRepository) ListGraceExpired(kind string, now time.Time, limit int) ([]uint, error) {
	prefix := GraceColumnPrefix(kind)
	var ids []uint
	query := r.db.Model(&models.Order{}).
		Where(prefix+"active = ? AND "+prefix+"expires_at <= ?", true, now).
		Order(prefix + "expires_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListGraceExpiring returns open windows closing before the given time that were not announced yet
func (r *GormOrderRepository) ListGraceExpiring(kind string, before time.Time, limit int) ([]models.Order, error) {
	prefix := GraceColumnPrefix(kind)
	var orders []models.Order
	query := r.db.Model(&models.Order{}).
		Where(prefix+"active = ? AND "+prefix+"expiring_notified = ? AND "+prefix+"expires_at <= ?", true, false, before).
		Order(prefix + "expires_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkGraceExpiringNotified flags the window once; false means someone else did it first
func (r *GormOrderRepository) MarkGraceExpiringNotified(id uint, kind string) (bool, error) {
	prefix := GraceColumnPrefix(kind)
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND "+prefix+"active = ? AND "+prefix+"expiring_notified = ?", id, true, false).
		Update(prefix+"expiring_notified", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SaveItem writes one order item
func (r *GormOrderRepository) SaveItem(item *models.OrderItem) error {
	return r.db.Save(item).Error
}

// DeleteItems removes order items by ID
func (r *GormOrderRepository) DeleteItems(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.OrderItem{}).Error
}

// AppendTimeline records one status event
func (r *GormOrderRepository) AppendTimeline(event *models.OrderStatusEvent) error {
	return r.db.Create(event).Error
}
