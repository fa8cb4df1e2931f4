package models

import "time"

// Product is the local catalog snapshot source read at checkout
type Product struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name
func (Product) TableName() string {
	return "products"
}
