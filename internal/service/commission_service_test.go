package service

import (
	"context"
	"testing"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"
)

// deliverAsAdmin pays the order in full and drives it to delivered without status windows
func deliverAsAdmin(t *testing.T, e *testEngine, order *models.Order, vendorID uint, reference string) *models.Order {
	t.Helper()
	ctx := context.Background()
	e.settle(t, order, constants.PaymentLegUpfront, order.TotalAmount, reference)
	if _, err := e.fulfillment.AcceptOrder(ctx, vendorP(vendorID), order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	var updated *models.Order
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched, constants.OrderStatusDelivered} {
		var err error
		updated, err = e.orders.UpdateOrderStatus(ctx, admin(), order.ID, UpdateOrderStatusInput{Status: status})
		if err != nil {
			t.Fatalf("admin move to %s failed: %v", status, err)
		}
	}
	return updated
}

func TestCommissionStraddlesThreshold(t *testing.T) {
	e := newTestEngine(t)
	seller := e.seller(t, "AGRI01")
	urea := e.product(t, "Urea 45kg", 1000)
	vendor := e.vendor(t, "Kisan Traders")
	place := func(quantity int) *models.Order {
		return e.placeOrder(t, CreateOrderInput{
			Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: quantity}},
			PaymentPreference: constants.PaymentPreferenceFull,
			SellerIDCode:      seller.IDCode,
			VendorID:          &vendor.ID,
		})
	}

	first := deliverAsAdmin(t, e, place(48), vendor.ID, "rzp_first")
	if !first.CommissionSettled {
		t.Fatalf("admin delivery of a paid order settles commission at once")
	}
	second := deliverAsAdmin(t, e, place(5), vendor.ID, "rzp_second")

	commissions, total, err := e.commissions.ListCommissions(repository.CommissionListFilter{SellerID: seller.ID})
	if err != nil || total != 2 {
		t.Fatalf("expected 2 commissions, got %d (%v)", total, err)
	}
	var straddling *models.Commission
	for i := range commissions {
		if commissions[i].OrderID == second.ID {
			straddling = &commissions[i]
		}
	}
	if straddling == nil {
		t.Fatalf("commission of second order missing")
	}
	if straddling.CumulativePurchaseAmount.String() != "48000.00" || straddling.NewCumulativePurchaseAmount.String() != "53000.00" {
		t.Fatalf("unexpected cumulative %s -> %s", straddling.CumulativePurchaseAmount, straddling.NewCumulativePurchaseAmount)
	}
	if straddling.CommissionAmount.String() != "130.00" {
		t.Fatalf("expected 40 + 90 = 130, got %s", straddling.CommissionAmount)
	}
	if e.publisher.count(constants.EventCommissionThreshold) != 1 {
		t.Fatalf("expected one threshold notice, got %v", e.publisher.names())
	}

	summary, err := e.wallet.GetSummary(seller.ID)
	if err != nil || summary.Account.Balance.String() != "1090.00" {
		t.Fatalf("expected 960 + 130 in wallet, got %+v (%v)", summary, err)
	}

	// settling again is a no-op
	again, err := e.commissions.HandleOrderSettled(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("repeat settle failed: %v", err)
	}
	if again != nil {
		t.Fatalf("settled order must not produce a new commission")
	}
	_, total, _ = e.commissions.ListCommissions(repository.CommissionListFilter{SellerID: seller.ID})
	if total != 2 {
		t.Fatalf("commission duplicated, total %d", total)
	}
}

func TestCommissionCountsDeliveryCharge(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seller := e.seller(t, "AGRI01")
	urea := e.product(t, "Urea 45kg", 1000)
	dap := e.product(t, "DAP 50kg", 990)
	vendor := e.vendor(t, "Kisan Traders")

	deliverAsAdmin(t, e, e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 48}},
		PaymentPreference: constants.PaymentPreferenceFull,
		SellerIDCode:      seller.IDCode,
		VendorID:          &vendor.ID,
	}), vendor.ID, "rzp_first")

	partial := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: dap.ID, Quantity: 5}},
		PaymentPreference: constants.PaymentPreferencePartial,
		SellerIDCode:      seller.IDCode,
		VendorID:          &vendor.ID,
	})
	if partial.Subtotal.String() != "4950.00" || partial.TotalAmount.String() != "5000.00" {
		t.Fatalf("expected 4950 + 50 delivery, got %s / %s", partial.Subtotal, partial.TotalAmount)
	}
	e.settle(t, partial, constants.PaymentLegUpfront, partial.UpfrontAmount, "rzp_second_upfront")
	e.settle(t, partial, constants.PaymentLegRemaining, partial.RemainingAmount, "rzp_second_remaining")
	if _, err := e.fulfillment.AcceptOrder(ctx, vendorP(vendor.ID), partial.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched, constants.OrderStatusDelivered} {
		if _, err := e.orders.UpdateOrderStatus(ctx, admin(), partial.ID, UpdateOrderStatusInput{Status: status}); err != nil {
			t.Fatalf("admin move to %s failed: %v", status, err)
		}
	}

	commissions, _, err := e.commissions.ListCommissions(repository.CommissionListFilter{SellerID: seller.ID})
	if err != nil {
		t.Fatalf("list commissions failed: %v", err)
	}
	var commission *models.Commission
	for i := range commissions {
		if commissions[i].OrderID == partial.ID {
			commission = &commissions[i]
		}
	}
	if commission == nil {
		t.Fatalf("commission of partial order missing")
	}
	if commission.OrderAmount.String() != "5000.00" {
		t.Fatalf("commission must use the order total, got %s", commission.OrderAmount)
	}
	if commission.CumulativePurchaseAmount.String() != "48000.00" || commission.NewCumulativePurchaseAmount.String() != "53000.00" {
		t.Fatalf("unexpected cumulative %s -> %s", commission.CumulativePurchaseAmount, commission.NewCumulativePurchaseAmount)
	}
	if commission.CommissionAmount.String() != "130.00" {
		t.Fatalf("expected 40 + 90 = 130, got %s", commission.CommissionAmount)
	}
	summary, err := e.wallet.GetSummary(seller.ID)
	if err != nil || summary.Account.Balance.String() != "1090.00" {
		t.Fatalf("expected 960 + 130 in wallet, got %+v (%v)", summary, err)
	}
}

func TestCommissionReversalMayGoNegative(t *testing.T) {
	e := newTestEngine(t)
	seller := e.seller(t, "AGRI01")
	order := fullOrder(t, e, 20, seller.IDCode)
	delivered := deliverAsAdmin(t, e, order, *order.VendorID, "rzp_full")
	if !delivered.CommissionSettled {
		t.Fatalf("commission should be settled")
	}

	withdrawal, err := e.withdrawals.RequestWithdrawal(sellerP(seller.ID), WithdrawalRequestInput{Amount: moneyOf("150"), BankAccountRef: "HDFC-0001"})
	if err != nil {
		t.Fatalf("withdrawal request failed: %v", err)
	}
	if _, err := e.withdrawals.ApproveWithdrawal(admin(), withdrawal.ID); err != nil {
		t.Fatalf("withdrawal approve failed: %v", err)
	}

	cancelled, err := e.orders.CancelOrder(context.Background(), admin(), order.ID, "refund issued")
	if err != nil {
		t.Fatalf("refund cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	commissions, _, err := e.commissions.ListCommissions(repository.CommissionListFilter{OrderID: order.ID})
	if err != nil || len(commissions) != 1 || commissions[0].Status != constants.CommissionStatusCancelled {
		t.Fatalf("commission should be cancelled: %+v (%v)", commissions, err)
	}
	summary, err := e.wallet.GetSummary(seller.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	// 200 credited, 150 withdrawn, 200 reversed
	if summary.Account.Balance.String() != "-150.00" {
		t.Fatalf("expected negative balance -150.00, got %s", summary.Account.Balance)
	}

	if _, err := e.commissions.HandleOrderCancelled(context.Background(), order.ID, "again"); err != nil {
		t.Fatalf("repeat reversal failed: %v", err)
	}
	summary, _ = e.wallet.GetSummary(seller.ID)
	if summary.Account.Balance.String() != "-150.00" {
		t.Fatalf("reversal must apply once, balance %s", summary.Account.Balance)
	}
}
