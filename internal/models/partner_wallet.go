package models

import "time"

// PartnerWalletAccount is the commission balance of a referral partner
type PartnerWalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // primary key
	SellerID  uint      `gorm:"uniqueIndex;not null" json:"seller_id"`                // partner
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // may go negative after a reversal
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (PartnerWalletAccount) TableName() string {
	return "partner_wallet_accounts"
}

// PartnerWalletTransaction is a balance movement; Reference makes each business event apply once
type PartnerWalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // primary key
	SellerID      uint      `gorm:"index;not null" json:"seller_id"`                             // partner
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`                             // related order
	CommissionID  *uint     `gorm:"index" json:"commission_id,omitempty"`                        // related commission
	WithdrawalID  *uint     `gorm:"index" json:"withdrawal_id,omitempty"`                        // related withdrawal
	Type          string    `gorm:"type:varchar(32);index;not null" json:"type"`                 // transaction type
	Direction     string    `gorm:"type:varchar(8);not null" json:"direction"`                   // in / out
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`         // absolute amount
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"` // before
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`  // after
	Reference     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`     // idempotency key
	Remark        string    `gorm:"type:varchar(255)" json:"remark,omitempty"`                   // remark
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name
func (PartnerWalletTransaction) TableName() string {
	return "partner_wallet_transactions"
}

// WithdrawalRequest is a partner payout request reviewed by admin
type WithdrawalRequest struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	SellerID       uint       `gorm:"index;not null" json:"seller_id"`
	Amount         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Status         string     `gorm:"type:varchar(16);index;not null" json:"status"`
	BankAccountRef string     `gorm:"type:varchar(120)" json:"bank_account_ref,omitempty"`
	ReviewedByID   *uint      `json:"reviewed_by_id,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	RejectReason   string     `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
