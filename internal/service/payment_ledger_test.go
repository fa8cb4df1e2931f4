package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"
)

func fullOrder(t *testing.T, e *testEngine, quantity int, sellerCode string) *models.Order {
	t.Helper()
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	return e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: quantity}},
		PaymentPreference: constants.PaymentPreferenceFull,
		SellerIDCode:      sellerCode,
		VendorID:          &vendor.ID,
	})
}

func TestPaymentSettledRejectsOverpayment(t *testing.T) {
	e := newTestEngine(t)
	order := fullOrder(t, e, 20, "")
	if order.TotalAmount.String() != "10000.00" {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
	ctx := context.Background()

	_, err := e.payments.OnPaymentSettled(ctx, PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegUpfront,
		Amount:    moneyOf("10001"),
		Reference: "rzp_over",
	})
	if !errors.Is(err, ErrPaymentExceedsTotal) {
		t.Fatalf("expected overpayment error, got %v", err)
	}

	paid := e.settle(t, order, constants.PaymentLegUpfront, moneyOf("10000"), "rzp_exact")
	if paid.PaymentStatus != constants.PaymentStatusFullyPaid || paid.PaidAmount.String() != "10000.00" {
		t.Fatalf("exact payment should close the order: %s %s", paid.PaymentStatus, paid.PaidAmount)
	}
	events, err := e.payments.ListPaymentEvents(order.ID)
	if err != nil || len(events) != 1 {
		t.Fatalf("rejected payment must leave no event, got %d (%v)", len(events), err)
	}
}

func TestPaymentSettledIsIdempotentByReference(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 20}},
		PaymentPreference: constants.PaymentPreferencePartial,
	})

	first := e.settle(t, order, constants.PaymentLegUpfront, order.UpfrontAmount, "rzp_1")
	second, err := e.payments.OnPaymentSettled(context.Background(), PaymentEventInput{
		OrderNumber: order.OrderNumber,
		Leg:         constants.PaymentLegUpfront,
		Amount:      order.UpfrontAmount,
		Reference:   "rzp_1",
	})
	if err != nil {
		t.Fatalf("duplicate callback must succeed, got %v", err)
	}
	if second.PaidAmount.String() != first.PaidAmount.String() || first.PaymentStatus != constants.PaymentStatusPartialPaid {
		t.Fatalf("duplicate changed the order: %s -> %s", first.PaidAmount, second.PaidAmount)
	}

	settled := e.settle(t, order, constants.PaymentLegRemaining, order.RemainingAmount, "rzp_2")
	if settled.PaymentStatus != constants.PaymentStatusFullyPaid {
		t.Fatalf("both legs paid should be fully paid, got %s", settled.PaymentStatus)
	}
}

func TestDuplicateFinalLegCreditsCommissionOnce(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seller := e.seller(t, "AGRI01")
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 20}},
		PaymentPreference: constants.PaymentPreferencePartial,
		SellerIDCode:      seller.IDCode,
		VendorID:          &vendor.ID,
	})
	e.settle(t, order, constants.PaymentLegUpfront, order.UpfrontAmount, "rzp_upfront")
	if _, err := e.fulfillment.AcceptOrder(ctx, vendorP(vendor.ID), order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched, constants.OrderStatusDelivered} {
		input := UpdateOrderStatusInput{Status: status, AdminOverride: status == constants.OrderStatusDelivered}
		if _, err := e.orders.UpdateOrderStatus(ctx, admin(), order.ID, input); err != nil {
			t.Fatalf("admin move to %s failed: %v", status, err)
		}
	}
	if delivered := e.reload(t, order.ID); delivered.CommissionSettled {
		t.Fatalf("commission must wait for the remaining leg")
	}

	final := PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegRemaining,
		Amount:    order.RemainingAmount,
		Reference: "rzp_remaining",
	}
	for i := 0; i < 3; i++ {
		if _, err := e.payments.OnPaymentSettled(ctx, final); err != nil {
			t.Fatalf("remaining leg callback %d failed: %v", i, err)
		}
	}

	settled := e.reload(t, order.ID)
	if !settled.CommissionSettled || settled.PaidAmount.String() != "10050.00" {
		t.Fatalf("expected settled commission on a fully paid order: %v %s", settled.CommissionSettled, settled.PaidAmount)
	}
	_, total, err := e.commissions.ListCommissions(repository.CommissionListFilter{SellerID: seller.ID})
	if err != nil || total != 1 {
		t.Fatalf("expected exactly one commission, got %d (%v)", total, err)
	}
	summary, err := e.wallet.GetSummary(seller.ID)
	if err != nil || summary.Account.Balance.String() != "201.00" {
		t.Fatalf("expected 2%% of 10050 in wallet once, got %+v (%v)", summary, err)
	}
	events, err := e.payments.ListPaymentEvents(order.ID)
	if err != nil || len(events) != 2 {
		t.Fatalf("duplicates must not add events, got %d (%v)", len(events), err)
	}
}

func TestRemainingLegOnFullOrderIsInvalid(t *testing.T) {
	e := newTestEngine(t)
	order := fullOrder(t, e, 20, "")
	_, err := e.payments.OnPaymentSettled(context.Background(), PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegRemaining,
		Amount:    moneyOf("100"),
		Reference: "rzp_remaining",
	})
	if !errors.Is(err, ErrPaymentLegInvalid) {
		t.Fatalf("expected invalid leg, got %v", err)
	}
	_, err = e.payments.OnPaymentSettled(context.Background(), PaymentEventInput{
		OrderID:   order.ID,
		Leg:       "later",
		Amount:    moneyOf("100"),
		Reference: "rzp_leg",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown leg, got %v", err)
	}
}

func TestPaymentFailureAndWriteOff(t *testing.T) {
	e := newTestEngine(t)
	order := fullOrder(t, e, 20, "")
	ctx := context.Background()

	failed, err := e.payments.OnPaymentFailed(ctx, PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegUpfront,
		Amount:    order.TotalAmount,
		Reference: "rzp_fail_1",
		Reason:    "card declined",
	})
	if err != nil {
		t.Fatalf("payment failed event errored: %v", err)
	}
	if failed.PaymentStatus != constants.PaymentStatusFailed || failed.Status != constants.OrderStatusPending {
		t.Fatalf("failure marks payment only: %s %s", failed.PaymentStatus, failed.Status)
	}

	if _, err := e.payments.ResolvePaymentFailure(ctx, vendorP(1), order.ID, ResolvePaymentFailureInput{Action: PaymentResolutionRetry}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("only admin resolves payment failures, got %v", err)
	}
	retried, err := e.payments.ResolvePaymentFailure(ctx, admin(), order.ID, ResolvePaymentFailureInput{Action: PaymentResolutionRetry})
	if err != nil || retried.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("retry should reset to pending, got %+v (%v)", retried, err)
	}
	if _, err := e.payments.ResolvePaymentFailure(ctx, admin(), order.ID, ResolvePaymentFailureInput{Action: PaymentResolutionRetry}); !errors.Is(err, ErrPaymentNotFailed) {
		t.Fatalf("resolve needs a failed payment, got %v", err)
	}

	if _, err := e.payments.OnPaymentFailed(ctx, PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegUpfront,
		Amount:    order.TotalAmount,
		Reference: "rzp_fail_2",
	}); err != nil {
		t.Fatalf("second failure errored: %v", err)
	}
	written, err := e.payments.ResolvePaymentFailure(ctx, admin(), order.ID, ResolvePaymentFailureInput{Action: PaymentResolutionWriteOff, Note: "farmer paid cash"})
	if err != nil {
		t.Fatalf("write off failed: %v", err)
	}
	if !written.DeliveryOverride || !CanDeliver(written, false) {
		t.Fatalf("write off must unlock delivery")
	}
}
