package repository

import "time"

// OrderListFilter filters order lists
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	VendorID      uint
	SellerID      uint
	Status        string
	PaymentStatus string
	AssignedTo    string
	OrderNumber   string
	ParentOrderID uint
	RootOnly      bool
	EscalatedOnly bool
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// CommissionListFilter filters commission lists
type CommissionListFilter struct {
	Page     int
	PageSize int
	SellerID uint
	UserID   uint
	OrderID  uint
	Month    string
	Status   string
}

// WalletTransactionListFilter filters partner wallet transactions
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	SellerID    uint
	OrderID     uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WithdrawalListFilter filters withdrawal requests
type WithdrawalListFilter struct {
	Page     int
	PageSize int
	SellerID uint
	Status   string
}

// CreditPurchaseListFilter filters credit purchases
type CreditPurchaseListFilter struct {
	Page        int
	PageSize    int
	VendorID    uint
	Status      string
	CycleStatus string
}

// VendorListFilter filters vendors
type VendorListFilter struct {
	Page     int
	PageSize int
	Status   string
	Search   string
}

// ProductListFilter filters catalog products
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}
