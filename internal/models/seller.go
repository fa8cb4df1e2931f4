package models

import (
	"time"

	"gorm.io/gorm"
)

// Seller is a referral partner identified to buyers by IDCode
type Seller struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	IDCode    string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"id_code"`
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`
	Status    string         `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name
func (Seller) TableName() string {
	return "sellers"
}
