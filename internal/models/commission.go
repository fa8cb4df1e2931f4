package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission is the partner commission earned on one settled order
type Commission struct {
	ID                          uint           `gorm:"primarykey" json:"id"`                                                                      // primary key
	OrderID                     uint           `gorm:"not null;index:idx_commission_unique,unique" json:"order_id"`                               // settled order
	UserID                      uint           `gorm:"not null;index;index:idx_commission_unique,unique" json:"user_id"`                          // referred buyer
	Month                       string         `gorm:"type:varchar(7);not null;index;index:idx_commission_unique,unique" json:"month"`            // YYYY-MM
	SellerID                    uint           `gorm:"not null;index" json:"seller_id"`                                                           // referral partner
	OrderAmount                 Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`                                 // order total
	CumulativePurchaseAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cumulative_purchase_amount"`                   // before this order
	NewCumulativePurchaseAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"new_cumulative_purchase_amount"`               // after this order
	CommissionRate              decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_rate"`                             // effective percent
	CommissionAmount            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`                            // amount
	Status                      string         `gorm:"type:varchar(16);not null;index" json:"status"`                                             // pending / credited / cancelled
	CreditedAt                  *time.Time     `json:"credited_at,omitempty"`                                                                     // wallet credit time
	CancelledAt                 *time.Time     `json:"cancelled_at,omitempty"`                                                                    // reversal time
	CancelReason                string         `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`                                          // reversal reason
	CreatedAt                   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt                   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt                   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name
func (Commission) TableName() string {
	return "commissions"
}

// CrossedThreshold reports whether this commission moved the buyer past threshold
func (c *Commission) CrossedThreshold(threshold Money) bool {
	if c == nil {
		return false
	}
	return c.CumulativePurchaseAmount.Decimal.LessThan(threshold.Decimal) &&
		c.NewCumulativePurchaseAmount.Decimal.GreaterThan(threshold.Decimal)
}

// CommissionLedger holds the settled cumulative purchase of a buyer under one partner in one month.
// The row is locked while a commission is computed so settlements are applied one at a time.
type CommissionLedger struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	SellerID         uint      `gorm:"not null;index:idx_commission_ledger_unique,unique" json:"seller_id"`
	UserID           uint      `gorm:"not null;index:idx_commission_ledger_unique,unique" json:"user_id"`
	Month            string    `gorm:"type:varchar(7);not null;index:idx_commission_ledger_unique,unique" json:"month"`
	CumulativeAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"cumulative_amount"`
	OrderCount       int       `gorm:"not null;default:0" json:"order_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName sets the table name
func (CommissionLedger) TableName() string {
	return "commission_ledgers"
}
