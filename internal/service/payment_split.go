package service

import (
	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"

	"github.com/shopspring/decimal"
)

// PricingRules are the order money settings
type PricingRules struct {
	DeliveryCharge decimal.Decimal
	MinOrderValue  decimal.Decimal
	UpfrontPercent decimal.Decimal
}

// DefaultPricingRules returns ₹50 delivery, ₹2000 minimum, 30% upfront
func DefaultPricingRules() PricingRules {
	return PricingRules{
		DeliveryCharge: decimal.NewFromInt(50),
		MinOrderValue:  decimal.NewFromInt(2000),
		UpfrontPercent: decimal.NewFromInt(30),
	}
}

// PaymentSplit is the money breakdown fixed at creation
type PaymentSplit struct {
	Subtotal             models.Money
	DeliveryCharge       models.Money
	DeliveryChargeWaived bool
	TotalAmount          models.Money
	UpfrontAmount        models.Money
	RemainingAmount      models.Money
}

// ComputePaymentSplit derives the delivery charge, total and the two legs.
// The delivery charge is waived iff the buyer pays everything upfront.
func ComputePaymentSplit(subtotal decimal.Decimal, preference string, rules PricingRules) (PaymentSplit, error) {
	subtotal = subtotal.Round(2)
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return PaymentSplit{}, ErrInvalidOrderItem
	}
	split := PaymentSplit{Subtotal: toMoney(subtotal)}
	switch preference {
	case constants.PaymentPreferenceFull:
		split.DeliveryCharge = models.ZeroMoney()
		split.DeliveryChargeWaived = true
		split.TotalAmount = toMoney(subtotal)
		split.UpfrontAmount = split.TotalAmount
		split.RemainingAmount = models.ZeroMoney()
	case constants.PaymentPreferencePartial:
		total := subtotal.Add(rules.DeliveryCharge).Round(2)
		upfront := percentOf(total, rules.UpfrontPercent).Round(2)
		split.DeliveryCharge = toMoney(rules.DeliveryCharge)
		split.TotalAmount = toMoney(total)
		split.UpfrontAmount = toMoney(upfront)
		split.RemainingAmount = toMoney(total.Sub(upfront))
	default:
		return PaymentSplit{}, ErrInvalidPaymentPreference
	}
	return split, nil
}

// applySplit copies the breakdown onto the order
func applySplit(order *models.Order, split PaymentSplit) {
	order.Subtotal = split.Subtotal
	order.DeliveryCharge = split.DeliveryCharge
	order.DeliveryChargeWaived = split.DeliveryChargeWaived
	order.TotalAmount = split.TotalAmount
	order.UpfrontAmount = split.UpfrontAmount
	order.RemainingAmount = split.RemainingAmount
}

// derivePaymentStatus maps the settled amount to a payment status
func derivePaymentStatus(order *models.Order, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(order.TotalAmount.Decimal) && order.TotalAmount.Decimal.GreaterThan(decimal.Zero):
		return constants.PaymentStatusFullyPaid
	case paid.GreaterThanOrEqual(order.UpfrontAmount.Decimal) && paid.GreaterThan(decimal.Zero):
		return constants.PaymentStatusPartialPaid
	default:
		return constants.PaymentStatusPending
	}
}

// sumItems totals item lines
func sumItems(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice.Decimal)
	}
	return total.Round(2)
}

// lineTotal is quantity times unit price
func lineTotal(unitPrice models.Money, quantity int) models.Money {
	return toMoney(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
}

// verifyOrderTotals recomputes the totals from items before persistence
func verifyOrderTotals(order *models.Order) error {
	subtotal := sumItems(order.Items)
	if !subtotal.Equal(order.Subtotal.Decimal) {
		return consistencyf(ErrOrderTotalsMismatch, "order %s subtotal %s != items %s", order.OrderNumber, order.Subtotal, subtotal.StringFixed(2))
	}
	expected := subtotal.Add(order.DeliveryCharge.Decimal).Round(2)
	if !expected.Equal(order.TotalAmount.Decimal) {
		return consistencyf(ErrOrderTotalsMismatch, "order %s total %s != subtotal+delivery %s", order.OrderNumber, order.TotalAmount, expected.StringFixed(2))
	}
	return nil
}
