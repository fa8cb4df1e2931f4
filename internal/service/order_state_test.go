package service

import (
	"testing"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(constants.OrderStatusPending, constants.OrderStatusAwaiting))
	assert.True(t, CanTransition(constants.OrderStatusDispatched, constants.OrderStatusDelivered))
	assert.True(t, CanTransition(constants.OrderStatusDelivered, constants.OrderStatusCancelled))
	assert.False(t, CanTransition(constants.OrderStatusPending, constants.OrderStatusDelivered))
	assert.False(t, CanTransition(constants.OrderStatusCancelled, constants.OrderStatusPending))
	assert.False(t, CanTransition("unknown", constants.OrderStatusPending))
}

func TestVendorForwardStatusIsSingleStep(t *testing.T) {
	for from, to := range vendorForwardStatus {
		assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
	}
	_, ok := vendorForwardStatus[constants.OrderStatusPending]
	assert.False(t, ok, "pending moves through accept, not a status update")
}

func TestCanBuyerCancel(t *testing.T) {
	assert.True(t, CanBuyerCancel(&models.Order{Status: constants.OrderStatusPending}))
	assert.True(t, CanBuyerCancel(&models.Order{Status: constants.OrderStatusAwaiting}))
	assert.False(t, CanBuyerCancel(&models.Order{Status: constants.OrderStatusProcessing}))
	assert.False(t, CanBuyerCancel(&models.Order{Status: constants.OrderStatusPending, IsPartialFulfillment: true}))
	assert.False(t, CanBuyerCancel(nil))
}

func TestCanDeliver(t *testing.T) {
	partial := &models.Order{PaymentStatus: constants.PaymentStatusPartialPaid}
	assert.False(t, CanDeliver(partial, false))
	assert.True(t, CanDeliver(partial, true))
	assert.True(t, CanDeliver(&models.Order{PaymentStatus: constants.PaymentStatusFailed, DeliveryOverride: true}, false))
	assert.True(t, CanDeliver(&models.Order{PaymentStatus: constants.PaymentStatusFullyPaid}, false))
}

func TestCommissionEligible(t *testing.T) {
	seller := uint(3)
	order := &models.Order{
		Status:        constants.OrderStatusDelivered,
		PaymentStatus: constants.PaymentStatusFullyPaid,
		SellerID:      &seller,
	}
	assert.True(t, commissionEligible(order))

	order.StatusGrace.Active = true
	assert.False(t, commissionEligible(order), "open status window")
	order.StatusGrace.Active = false

	order.CommissionSettled = true
	assert.False(t, commissionEligible(order), "already settled")
	order.CommissionSettled = false

	order.SellerID = nil
	assert.False(t, commissionEligible(order), "no referral partner")
}

func TestComputePaymentSplitPartial(t *testing.T) {
	split, err := ComputePaymentSplit(dec("2000"), constants.PaymentPreferencePartial, DefaultPricingRules())
	require.NoError(t, err)
	assert.Equal(t, "50.00", split.DeliveryCharge.Decimal.StringFixed(2))
	assert.False(t, split.DeliveryChargeWaived)
	assert.Equal(t, "2050.00", split.TotalAmount.Decimal.StringFixed(2))
	assert.Equal(t, "615.00", split.UpfrontAmount.Decimal.StringFixed(2))
	assert.Equal(t, "1435.00", split.RemainingAmount.Decimal.StringFixed(2))
}

func TestComputePaymentSplitFullWaivesDelivery(t *testing.T) {
	split, err := ComputePaymentSplit(dec("3000"), constants.PaymentPreferenceFull, DefaultPricingRules())
	require.NoError(t, err)
	assert.True(t, split.DeliveryChargeWaived)
	assert.True(t, split.DeliveryCharge.Decimal.IsZero())
	assert.Equal(t, "3000.00", split.TotalAmount.Decimal.StringFixed(2))
	assert.Equal(t, "3000.00", split.UpfrontAmount.Decimal.StringFixed(2))
	assert.True(t, split.RemainingAmount.Decimal.IsZero())
}

func TestComputePaymentSplitRejectsUnknownPreference(t *testing.T) {
	_, err := ComputePaymentSplit(dec("3000"), "later", DefaultPricingRules())
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ComputePaymentSplit(dec("0"), constants.PaymentPreferenceFull, DefaultPricingRules())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAllocatePaidConservesAndCaps(t *testing.T) {
	parent := &models.Order{Subtotal: moneyOf("1000"), TotalAmount: moneyOf("1000")}
	child := &models.Order{Subtotal: moneyOf("3000"), TotalAmount: moneyOf("3050")}
	allocatePaid(parent, child, dec("1230"))
	assert.Equal(t, "1230.00", parent.PaidAmount.Decimal.Add(child.PaidAmount.Decimal).StringFixed(2))
	assert.Equal(t, "922.50", child.PaidAmount.Decimal.StringFixed(2))

	// everything paid upfront on a full order: each side is capped by its own total
	parent = &models.Order{Subtotal: moneyOf("1000"), TotalAmount: moneyOf("1000")}
	child = &models.Order{Subtotal: moneyOf("1000"), TotalAmount: moneyOf("1000")}
	allocatePaid(parent, child, dec("2000"))
	assert.Equal(t, "1000.00", parent.PaidAmount.Decimal.StringFixed(2))
	assert.Equal(t, "1000.00", child.PaidAmount.Decimal.StringFixed(2))
}

func TestBuildChildOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-20260101-0042-01", buildChildOrderNumber("ORD-20260101-0042", 1))
	assert.Equal(t, "ORD-20260101-0042-12", buildChildOrderNumber("ORD-20260101-0042", 12))
}
