package models

import (
	"time"

	"gorm.io/gorm"
)

// Vendor is a regional fulfilling vendor with an inventory credit line
type Vendor struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // primary key
	Name            string         `gorm:"type:varchar(120);not null" json:"name"`                        // display name
	Phone           string         `gorm:"type:varchar(20);index" json:"phone,omitempty"`                 // contact
	Status          string         `gorm:"type:varchar(16);not null;index" json:"status"`                 // active / disabled
	CreditLimit     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"credit_limit"`     // total credit line
	AvailableCredit Money          `gorm:"type:decimal(20,2);not null;default:0" json:"available_credit"` // unused part of the line
	EscalationCount int            `gorm:"not null;default:0" json:"escalation_count"`                    // orders escalated away
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name
func (Vendor) TableName() string {
	return "vendors"
}
