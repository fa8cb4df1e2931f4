package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money is a rupee amount held at paise precision. It is stored as decimal(20,2)
// and travels in JSON as a fixed two-decimal string.
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal rounds amount to paise
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// NewMoneyFromInt builds a whole-rupee amount
func NewMoneyFromInt(rupees int64) Money {
	return Money{Decimal: decimal.NewFromInt(rupees)}
}

// ParseMoney reads "1250", "1250.5" or "1250.50"
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// ZeroMoney returns 0.00
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// String renders two decimals
func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

// MarshalJSON writes "1250.50"
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare number; null leaves m untouched
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	parsed, err := ParseMoney(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

// Scan implements sql.Scanner; NULL reads as zero
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = ZeroMoney()
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}
