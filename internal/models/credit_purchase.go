package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditPurchase is a vendor inventory purchase on credit; once approved it is an active credit cycle
type CreditPurchase struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                             // primary key
	VendorID          uint           `gorm:"index;not null" json:"vendor_id"`                                  // vendor
	Status            string         `gorm:"type:varchar(16);index;not null" json:"status"`                    // pending / approved / rejected
	PrincipalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"principal_amount"`    // purchase total
	OutstandingAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"outstanding_amount"`  // never increases
	TotalRepaid       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_repaid"`        // repaid so far
	CycleStatus       string         `gorm:"type:varchar(16);index" json:"cycle_status,omitempty"`             // active / closed
	Notes             string         `gorm:"type:varchar(500)" json:"notes,omitempty"`                         // vendor note
	ReviewedByID      *uint          `json:"reviewed_by_id,omitempty"`                                         // reviewing admin
	ReviewedAt        *time.Time     `json:"reviewed_at,omitempty"`                                            // review time
	RejectionReason   string         `gorm:"type:varchar(255)" json:"rejection_reason,omitempty"`              // reject reason
	ApprovedAt        *time.Time     `gorm:"index" json:"approved_at,omitempty"`                               // cycle start
	ClosedAt          *time.Time     `json:"closed_at,omitempty"`                                              // cycle end
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Items      []CreditPurchaseItem `gorm:"foreignKey:CreditPurchaseID" json:"items,omitempty"`
	Repayments []CreditRepayment    `gorm:"foreignKey:CreditPurchaseID" json:"repayments,omitempty"`
}

// TableName sets the table name
func (CreditPurchase) TableName() string {
	return "credit_purchases"
}

// CreditPurchaseItem is a purchased inventory line
type CreditPurchaseItem struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	CreditPurchaseID uint      `gorm:"index;not null" json:"credit_purchase_id"`
	ProductID        uint      `gorm:"index;not null" json:"product_id"`
	ProductName      string    `gorm:"type:varchar(200)" json:"product_name"`
	Quantity         int       `gorm:"not null" json:"quantity"`
	UnitPrice        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	TotalPrice       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName sets the table name
func (CreditPurchaseItem) TableName() string {
	return "credit_purchase_items"
}

// CreditRepayment is one repayment against a credit cycle
type CreditRepayment struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                           // primary key
	CreditPurchaseID  uint      `gorm:"index;not null" json:"credit_purchase_id"`                       // cycle
	VendorID          uint      `gorm:"index;not null" json:"vendor_id"`                                // vendor
	Amount            Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`            // repaid principal
	OutstandingBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"outstanding_before"` // before
	OutstandingAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"outstanding_after"`  // after
	Method            string    `gorm:"type:varchar(32)" json:"method,omitempty"`                        // razorpay / bank_transfer / other
	Reference         string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`        // idempotency key
	Status            string    `gorm:"type:varchar(16);not null" json:"status"`                        // completed
	RepaidAt          time.Time `gorm:"index" json:"repaid_at"`                                         // payment date
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name
func (CreditRepayment) TableName() string {
	return "credit_repayments"
}
