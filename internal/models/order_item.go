package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem is an order line; name and unit price are snapshots taken at checkout
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // primary key
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                           // order
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                         // product
	ProductName string         `gorm:"type:varchar(200);not null" json:"product_name"`           // name snapshot
	Quantity    int            `gorm:"not null" json:"quantity"`                                 // quantity
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // price snapshot
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // quantity * unit price
	ItemStatus  string         `gorm:"type:varchar(16);not null" json:"item_status"`             // pending / accepted / rejected
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // created
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // updated
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // soft delete
}

// TableName sets the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusEvent is one append-only status timeline entry
type OrderStatusEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Status    string    `gorm:"type:varchar(32);not null" json:"status"`
	Actor     string    `gorm:"type:varchar(16);not null" json:"actor"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	Note      string    `gorm:"type:varchar(500)" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

// TableName sets the table name
func (OrderStatusEvent) TableName() string {
	return "order_status_events"
}
