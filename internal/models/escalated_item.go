package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EscalatedItem is a line (or part of one) handed to admin
type EscalatedItem struct {
	OrderItemID       uint   `json:"order_item_id"`
	ProductID         uint   `json:"product_id"`
	ProductName       string `json:"product_name"`
	UnitPrice         Money  `json:"unit_price"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	EscalatedQuantity int    `json:"escalated_quantity"`
	Reason            string `json:"reason,omitempty"`
}

// EscalatedItems is stored as a JSON text column
type EscalatedItems []EscalatedItem

// Value implements driver.Valuer
func (e EscalatedItems) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (e *EscalatedItems) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported escalated items type %T", value)
	}
	if len(raw) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(raw, e)
}
