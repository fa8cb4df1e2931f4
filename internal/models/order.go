package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is the order aggregate; grace windows and the escalation record live inside it
type Order struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                                   // primary key
	OrderNumber          string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`              // ORD-YYYYMMDD-NNNN
	ParentOrderID        *uint          `gorm:"index" json:"parent_order_id,omitempty"`                                 // set on split children
	UserID               uint           `gorm:"index;not null" json:"user_id"`                                          // buyer
	SellerIDCode         string         `gorm:"type:varchar(32);index" json:"seller_id_code,omitempty"`                 // referral partner code
	SellerID             *uint          `gorm:"index" json:"seller_id,omitempty"`                                       // referral partner
	VendorID             *uint          `gorm:"index" json:"vendor_id,omitempty"`                                       // fulfilling vendor
	AssignedTo           string         `gorm:"type:varchar(16);index;not null" json:"assigned_to"`                     // vendor / admin
	Status               string         `gorm:"type:varchar(32);index;not null" json:"status"`                          // order status
	PaymentStatus        string         `gorm:"type:varchar(32);index;not null" json:"payment_status"`                  // payment status
	PaymentPreference    string         `gorm:"type:varchar(16);not null" json:"payment_preference"`                    // partial / full
	Subtotal             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                  // sum of item totals
	DeliveryCharge       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_charge"`           // flat fee
	DeliveryChargeWaived bool           `gorm:"not null;default:false" json:"delivery_charge_waived"`                   // waived on full upfront
	TotalAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`              // subtotal + delivery
	UpfrontAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"upfront_amount"`            // first leg
	RemainingAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"remaining_amount"`          // second leg
	PaidAmount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"`               // settled so far
	IsPartialFulfillment bool           `gorm:"not null;default:false;index" json:"is_partial_fulfillment"`             // parent of a split
	DeliveryOverride     bool           `gorm:"not null;default:false" json:"delivery_override"`                        // remaining amount written off by admin
	DeliveryOverrideNote string         `gorm:"type:varchar(255)" json:"delivery_override_note,omitempty"`              // write-off reason
	Notes                string         `gorm:"type:text" json:"notes,omitempty"`                                       // free text notes
	AcceptanceGrace      GracePeriod    `gorm:"embedded;embeddedPrefix:acceptance_grace_" json:"acceptance_grace"`      // acceptance window
	StatusGrace          GracePeriod    `gorm:"embedded;embeddedPrefix:status_grace_" json:"status_grace"`              // status update window
	Escalation           Escalation     `gorm:"embedded;embeddedPrefix:escalation_" json:"escalation"`                  // escalation record
	CommissionSettled    bool           `gorm:"not null;default:false" json:"commission_settled"`                       // commission already computed
	ExpectedDeliveryAt   *time.Time     `json:"expected_delivery_at,omitempty"`                                         // created + delivery timeline
	DeliveredAt          *time.Time     `gorm:"index" json:"delivered_at,omitempty"`                                    // delivered time
	CancelledAt          *time.Time     `gorm:"index" json:"cancelled_at,omitempty"`                                    // cancel time
	CancelledBy          string         `gorm:"type:varchar(16)" json:"cancelled_by,omitempty"`                         // cancelling actor
	CancellationReason   string         `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`                 // cancel reason
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                                // created
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                                // updated
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                         // soft delete

	Items    []OrderItem        `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Timeline []OrderStatusEvent `gorm:"foreignKey:OrderID" json:"status_timeline,omitempty"`
	Children []Order            `gorm:"foreignKey:ParentOrderID" json:"children,omitempty"`
}

// TableName sets the table name
func (Order) TableName() string {
	return "orders"
}

// IsChild reports whether the order was produced by a split
func (o *Order) IsChild() bool {
	return o != nil && o.ParentOrderID != nil && *o.ParentOrderID != 0
}

// GracePeriod is a reversible-decision window. The snapshot fields are used by the status window only.
type GracePeriod struct {
	Active                  bool       `gorm:"not null;default:false;index" json:"active"`
	ProtectedStatus         string     `gorm:"type:varchar(32)" json:"protected_status,omitempty"`
	PreviousStatus          string     `gorm:"type:varchar(32)" json:"previous_status,omitempty"`
	PreviousPaymentStatus   string     `gorm:"type:varchar(32)" json:"previous_payment_status,omitempty"`
	PreviousRemainingAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"previous_remaining_amount"`
	PreviousPaidAmount      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"previous_paid_amount"`
	StartedAt               *time.Time `json:"started_at,omitempty"`
	ExpiresAt               *time.Time `gorm:"index" json:"expires_at,omitempty"`
	ClosedAt                *time.Time `json:"closed_at,omitempty"`
	Outcome                 string     `gorm:"type:varchar(16)" json:"outcome,omitempty"`
	ExpiringNotified        bool       `gorm:"not null;default:false" json:"-"`
}

// Escalation records a handoff of the order, or part of it, to admin
type Escalation struct {
	Active           bool           `gorm:"not null;default:false;index" json:"is_escalated"`
	Type             string         `gorm:"type:varchar(16)" json:"type,omitempty"`
	Reason           string         `gorm:"type:varchar(255)" json:"reason,omitempty"`
	EscalatedBy      string         `gorm:"type:varchar(16)" json:"escalated_by,omitempty"`
	EscalatedAt      *time.Time     `json:"escalated_at,omitempty"`
	OriginalVendorID *uint          `json:"original_vendor_id,omitempty"`
	Items            EscalatedItems `gorm:"type:text" json:"items,omitempty"`
	Resolution       string         `gorm:"type:varchar(16)" json:"resolution,omitempty"`
	ResolvedByID     *uint          `json:"resolved_by_id,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	RevertedByID     *uint          `json:"reverted_by_id,omitempty"`
	RevertReason     string         `gorm:"type:varchar(255)" json:"revert_reason,omitempty"`
	RevertedAt       *time.Time     `json:"reverted_at,omitempty"`
}
