package service

import (
	"strconv"

	"github.com/agrimart/ordercore/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func toMoney(d decimal.Decimal) models.Money {
	return models.NewMoneyFromDecimal(d)
}

func percentOf(amount decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

func rupees(m models.Money) string {
	return m.String()
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func uintPtr(v uint) *uint {
	return &v
}
