package models

import "time"

// PaymentEvent is one gateway callback; Reference is the idempotency key
type PaymentEvent struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                    // primary key
	Reference           string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"` // gateway reference
	OrderID             uint      `gorm:"index;not null" json:"order_id"`                          // order
	Leg                 string    `gorm:"type:varchar(16);not null" json:"leg"`                    // upfront / remaining
	Outcome             string    `gorm:"type:varchar(16);not null" json:"outcome"`                // settled / failed
	Amount              Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`     // settled amount
	Reason              string    `gorm:"type:varchar(255)" json:"reason,omitempty"`               // failure reason
	PaymentStatusBefore string    `gorm:"type:varchar(32)" json:"payment_status_before"`           // status before the event
	PaymentStatusAfter  string    `gorm:"type:varchar(32)" json:"payment_status_after"`            // status after the event
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                                 // received
}

// TableName sets the table name
func (PaymentEvent) TableName() string {
	return "payment_events"
}
