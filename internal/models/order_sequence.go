package models

import "time"

// OrderSequence is the per-day order number counter
type OrderSequence struct {
	Day       string    `gorm:"primarykey;type:varchar(8)" json:"day"` // YYYYMMDD
	Value     int64     `gorm:"not null;default:0" json:"value"`       // last issued sequence
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name
func (OrderSequence) TableName() string {
	return "order_sequences"
}
