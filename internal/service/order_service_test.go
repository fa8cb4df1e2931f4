package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"
)

func TestCreateOrderSnapshotsCatalogAndSplitsPayment(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	dap := e.product(t, "DAP 50kg", 1350)
	vendor := e.vendor(t, "Kisan Traders")
	seller := e.seller(t, "AGRI01")

	order := e.placeOrder(t, CreateOrderInput{
		Items: []CreateOrderItemInput{
			{ProductID: urea.ID, Quantity: 2},
			{ProductID: dap.ID, Quantity: 1},
			{ProductID: urea.ID, Quantity: 1},
		},
		PaymentPreference: constants.PaymentPreferencePartial,
		SellerIDCode:      "agri01",
		VendorID:          &vendor.ID,
	})

	if !strings.HasPrefix(order.OrderNumber, "ORD-") || !strings.HasSuffix(order.OrderNumber, "-0001") {
		t.Fatalf("unexpected order number %s", order.OrderNumber)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected repeated products to merge into 2 lines, got %d", len(order.Items))
	}
	if order.Subtotal.String() != "2850.00" || order.TotalAmount.String() != "2900.00" {
		t.Fatalf("unexpected totals subtotal=%s total=%s", order.Subtotal, order.TotalAmount)
	}
	if order.UpfrontAmount.String() != "870.00" || order.RemainingAmount.String() != "2030.00" {
		t.Fatalf("unexpected legs upfront=%s remaining=%s", order.UpfrontAmount, order.RemainingAmount)
	}
	if order.SellerID == nil || *order.SellerID != seller.ID || order.SellerIDCode != "AGRI01" {
		t.Fatalf("seller not attached: %+v", order.SellerID)
	}
	if order.Status != constants.OrderStatusPending || order.AssignedTo != constants.AssignedToVendor {
		t.Fatalf("unexpected status=%s assigned=%s", order.Status, order.AssignedTo)
	}
	if order.ExpectedDeliveryAt == nil || order.ExpectedDeliveryAt.Sub(order.CreatedAt).Round(time.Minute) != 24*time.Hour {
		t.Fatalf("expected delivery 24h after creation, got %v", order.ExpectedDeliveryAt)
	}
	if len(order.Timeline) != 1 || order.Timeline[0].Note != "order placed" {
		t.Fatalf("unexpected timeline %+v", order.Timeline)
	}

	// later price changes never touch the snapshot
	if _, err := e.catalog.UpdateProduct(urea.ID, CreateProductInput{Name: "Urea 45kg", Price: models.NewMoneyFromInt(900), IsActive: true}); err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	reloaded := e.reload(t, order.ID)
	if reloaded.Items[0].UnitPrice.String() != "500.00" {
		t.Fatalf("snapshot price changed to %s", reloaded.Items[0].UnitPrice)
	}
}

func TestCreateOrderBelowMinimumValue(t *testing.T) {
	e := newTestEngine(t)
	seed := e.product(t, "Paddy seed 5kg", 450)

	_, err := e.orders.CreateOrder(context.Background(), buyer(7), CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: seed.ID, Quantity: 4}},
		PaymentPreference: constants.PaymentPreferenceFull,
	})
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrMinOrderValue) {
		t.Fatalf("expected minimum order value error, got %v", err)
	}
	if !strings.Contains(PublicMessage(err), "₹2000.00") || !strings.Contains(PublicMessage(err), "₹1800.00") {
		t.Fatalf("message should carry both amounts: %s", PublicMessage(err))
	}
}

func TestCreateOrderWithoutVendorEscalatesToAdmin(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)

	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 10}},
		PaymentPreference: constants.PaymentPreferenceFull,
	})
	if order.AssignedTo != constants.AssignedToAdmin || order.VendorID != nil {
		t.Fatalf("expected admin assignment, got %s", order.AssignedTo)
	}
	if !order.Escalation.Active || order.Escalation.Type != constants.EscalationTypeFull || order.Escalation.EscalatedBy != constants.ActorSystem {
		t.Fatalf("unexpected escalation %+v", order.Escalation)
	}
	if !order.DeliveryChargeWaived || order.TotalAmount.String() != "5000.00" {
		t.Fatalf("full payment must waive delivery, total=%s", order.TotalAmount)
	}
	if e.publisher.count(constants.EventOrderEscalated) != 1 {
		t.Fatalf("expected one escalation event, got %v", e.publisher.names())
	}
}

func TestCreateOrderRejectsUnknownSellerAndInactiveProduct(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)

	_, err := e.orders.CreateOrder(context.Background(), buyer(7), CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 10}},
		PaymentPreference: constants.PaymentPreferenceFull,
		SellerIDCode:      "NOPE1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown seller, got %v", err)
	}

	if _, err := e.catalog.UpdateProduct(urea.ID, CreateProductInput{Name: "Urea 45kg", Price: models.NewMoneyFromInt(500), IsActive: false}); err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	_, err = e.orders.CreateOrder(context.Background(), buyer(7), CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 10}},
		PaymentPreference: constants.PaymentPreferenceFull,
	})
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got %v", err)
	}

	_, err = e.orders.CreateOrder(context.Background(), vendorP(1), CreateOrderInput{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("only buyers may place orders, got %v", err)
	}
}

func TestCreateOrderConcurrentNumbersAreUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrent numbering in short mode")
	}
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	const total = 1000

	var wg sync.WaitGroup
	numbers := make(chan string, total)
	failures := make(chan error, total)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			order, err := e.orders.CreateOrder(context.Background(), buyer(userID), CreateOrderInput{
				Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 4}},
				PaymentPreference: constants.PaymentPreferencePartial,
			})
			if err != nil {
				failures <- err
				return
			}
			numbers <- order.OrderNumber
		}(uint(i + 1))
	}
	wg.Wait()
	close(numbers)
	close(failures)

	for err := range failures {
		t.Fatalf("create order failed: %v", err)
	}
	seen := make(map[string]bool, total)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate order number %s", number)
		}
		seen[number] = true
	}
	if len(seen) != total {
		t.Fatalf("expected %d numbers, got %d", total, len(seen))
	}
	day := e.orders.allocator.Day(time.Now())
	for seq := int64(1); seq <= total; seq++ {
		if !seen[FormatOrderNumber("ORD", day, seq)] {
			t.Fatalf("sequence has a gap at %d", seq)
		}
	}
}

func TestCreateOrderRecoversFromNumberCollision(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	day := e.orders.allocator.Day(time.Now())

	// a row written by another writer that the counter does not know about
	taken := &models.Order{
		OrderNumber:       FormatOrderNumber("ORD", day, 1),
		UserID:            99,
		AssignedTo:        constants.AssignedToAdmin,
		Status:            constants.OrderStatusPending,
		PaymentStatus:     constants.PaymentStatusPending,
		PaymentPreference: constants.PaymentPreferenceFull,
		Subtotal:          models.NewMoneyFromInt(2000),
		TotalAmount:       models.NewMoneyFromInt(2000),
	}
	if err := e.orderRepo.Create(taken, nil); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	seqRepo := repository.NewOrderSequenceRepository(e.db)
	if _, err := seqRepo.Next(day); err != nil {
		t.Fatalf("seed counter failed: %v", err)
	}
	if err := e.db.Model(&models.OrderSequence{}).Where("day = ?", day).Update("value", 0).Error; err != nil {
		t.Fatalf("rewind counter failed: %v", err)
	}

	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 4}},
		PaymentPreference: constants.PaymentPreferenceFull,
	})
	if order.OrderNumber != FormatOrderNumber("ORD", day, 2) {
		t.Fatalf("expected the next free number, got %s", order.OrderNumber)
	}
}

func TestBuyerCancelGuard(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	input := CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 6}},
		PaymentPreference: constants.PaymentPreferencePartial,
		VendorID:          &vendor.ID,
	}
	ctx := context.Background()

	pending := e.placeOrder(t, input)
	if _, err := e.orders.CancelOrder(ctx, buyer(8), pending.ID, "changed mind"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("another buyer must not cancel, got %v", err)
	}
	cancelled, err := e.orders.CancelOrder(ctx, buyer(7), pending.ID, "changed mind")
	if err != nil {
		t.Fatalf("cancel pending failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledBy != constants.ActorUser || cancelled.CancellationReason != "changed mind" || cancelled.CancelledAt == nil {
		t.Fatalf("cancel metadata missing: %+v", cancelled)
	}

	processing := e.placeOrder(t, input)
	if _, err := e.fulfillment.AcceptOrder(ctx, vendorP(vendor.ID), processing.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := e.orders.UpdateOrderStatus(ctx, vendorP(vendor.ID), processing.ID, UpdateOrderStatusInput{Status: constants.OrderStatusProcessing}); err != nil {
		t.Fatalf("processing failed: %v", err)
	}
	if _, err := e.orders.CancelOrder(ctx, buyer(7), processing.ID, "too late"); !errors.Is(err, ErrCancelNotAllowed) {
		t.Fatalf("buyer cancel after processing must fail, got %v", err)
	}
	adminCancelled, err := e.orders.CancelOrder(ctx, admin(), processing.ID, "stock damaged")
	if err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if adminCancelled.StatusGrace.Active || adminCancelled.StatusGrace.Outcome != constants.GraceOutcomeCancelled {
		t.Fatalf("cancel must close the open status window: %+v", adminCancelled.StatusGrace)
	}
	if adminCancelled.CancelledBy != constants.ActorAdmin {
		t.Fatalf("expected admin actor, got %s", adminCancelled.CancelledBy)
	}
}

func TestVendorStatusMovesOneStepAndDeliveryNeedsPayment(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	ctx := context.Background()
	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 6}},
		PaymentPreference: constants.PaymentPreferencePartial,
		VendorID:          &vendor.ID,
	})
	vp := vendorP(vendor.ID)
	if _, err := e.fulfillment.AcceptOrder(ctx, vp, order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDispatched}); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("skipping processing must fail, got %v", err)
	}
	if _, err := e.orders.UpdateOrderStatus(ctx, vendorP(vendor.ID+1), order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusProcessing}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign vendor must be denied, got %v", err)
	}
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched} {
		if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, UpdateOrderStatusInput{Status: status}); err != nil {
			t.Fatalf("move to %s failed: %v", status, err)
		}
	}
	deliver := UpdateOrderStatusInput{Status: constants.OrderStatusDelivered}
	if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, deliver); !errors.Is(err, ErrOrderNotDeliverable) {
		t.Fatalf("delivery with nothing paid must fail, got %v", err)
	}

	e.settle(t, order, constants.PaymentLegUpfront, order.UpfrontAmount, "pay-upfront-1")
	if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, deliver); !errors.Is(err, ErrOrderNotDeliverable) {
		t.Fatalf("delivery with the remaining leg outstanding must fail, got %v", err)
	}
	if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, UpdateOrderStatusInput{
		Status:        constants.OrderStatusDelivered,
		AdminOverride: true,
	}); !errors.Is(err, ErrOrderNotDeliverable) {
		t.Fatalf("vendor must not use the admin override, got %v", err)
	}
	if current := e.reload(t, order.ID); current.Status != constants.OrderStatusDispatched || current.PaidAmount.String() != order.UpfrontAmount.String() {
		t.Fatalf("refused delivery must leave the order untouched: %s %s", current.Status, current.PaidAmount)
	}

	e.settle(t, order, constants.PaymentLegRemaining, order.RemainingAmount, "pay-remaining-1")
	delivered, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, deliver)
	if err != nil {
		t.Fatalf("delivery after settlement failed: %v", err)
	}
	if delivered.PaymentStatus != constants.PaymentStatusFullyPaid || delivered.PaidAmount.String() != delivered.TotalAmount.String() {
		t.Fatalf("expected a fully paid order: %s %s", delivered.PaymentStatus, delivered.PaidAmount)
	}
	if delivered.DeliveredAt == nil || !delivered.StatusGrace.Active || delivered.StatusGrace.ProtectedStatus != constants.OrderStatusDelivered {
		t.Fatalf("delivered must open a status window: %+v", delivered.StatusGrace)
	}
	events, err := e.payments.ListPaymentEvents(order.ID)
	if err != nil || len(events) != 2 {
		t.Fatalf("only ledger events may move money, got %+v (%v)", events, err)
	}
}

func TestVendorCannotDeliverAfterFailedPayment(t *testing.T) {
	e := newTestEngine(t)
	order, vendor := acceptedOrder(t, e, constants.PaymentPreferenceFull, "")
	ctx := context.Background()
	vp := vendorP(vendor.ID)
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched} {
		if _, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, UpdateOrderStatusInput{Status: status}); err != nil {
			t.Fatalf("move to %s failed: %v", status, err)
		}
	}
	if _, err := e.payments.OnPaymentFailed(ctx, PaymentEventInput{
		OrderID:   order.ID,
		Leg:       constants.PaymentLegUpfront,
		Amount:    order.UpfrontAmount,
		Reference: "pay-upfront-declined",
		Reason:    "card declined",
	}); err != nil {
		t.Fatalf("record failure failed: %v", err)
	}
	_, err := e.orders.UpdateOrderStatus(ctx, vp, order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDelivered})
	if !errors.Is(err, ErrOrderNotDeliverable) {
		t.Fatalf("delivery after a failed payment must fail, got %v", err)
	}
	current := e.reload(t, order.ID)
	if current.Status != constants.OrderStatusDispatched || current.PaymentStatus != constants.PaymentStatusFailed || current.PaidAmount.String() != "0.00" {
		t.Fatalf("failed payment must stay unpaid: %s %s %s", current.Status, current.PaymentStatus, current.PaidAmount)
	}
}

func TestAdminDeliveryOverride(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	ctx := context.Background()
	order := e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 6}},
		PaymentPreference: constants.PaymentPreferencePartial,
		VendorID:          &vendor.ID,
	})
	if _, err := e.fulfillment.AcceptOrder(ctx, vendorP(vendor.ID), order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusDispatched} {
		if _, err := e.orders.UpdateOrderStatus(ctx, admin(), order.ID, UpdateOrderStatusInput{Status: status}); err != nil {
			t.Fatalf("admin move to %s failed: %v", status, err)
		}
	}
	delivered, err := e.orders.UpdateOrderStatus(ctx, admin(), order.ID, UpdateOrderStatusInput{
		Status:        constants.OrderStatusDelivered,
		AdminOverride: true,
		Note:          "cash pending",
	})
	if err != nil {
		t.Fatalf("override delivery failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered || delivered.StatusGrace.Active {
		t.Fatalf("admin changes apply at once: %s %+v", delivered.Status, delivered.StatusGrace)
	}
	if delivered.PaymentStatus == constants.PaymentStatusFullyPaid {
		t.Fatalf("override must not change payment status")
	}
	last := delivered.Timeline[len(delivered.Timeline)-1]
	if !strings.Contains(last.Note, "admin override") {
		t.Fatalf("override must be noted on the timeline, got %q", last.Note)
	}
}

func TestListOrdersIsScopedByRole(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	e.placeOrder(t, CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 6}},
		PaymentPreference: constants.PaymentPreferencePartial,
		VendorID:          &vendor.ID,
	})
	if _, err := e.orders.CreateOrder(context.Background(), buyer(9), CreateOrderInput{
		Items:             []CreateOrderItemInput{{ProductID: urea.ID, Quantity: 6}},
		PaymentPreference: constants.PaymentPreferencePartial,
	}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, total, err := e.orders.ListOrders(buyer(7), repository.OrderListFilter{})
	if err != nil || total != 1 {
		t.Fatalf("buyer should see 1 order, got %d (%v)", total, err)
	}
	_, total, err = e.orders.ListOrders(vendorP(vendor.ID), repository.OrderListFilter{})
	if err != nil || total != 1 {
		t.Fatalf("vendor should see 1 order, got %d (%v)", total, err)
	}
	_, total, err = e.orders.ListOrders(admin(), repository.OrderListFilter{})
	if err != nil || total != 2 {
		t.Fatalf("admin should see 2 orders, got %d (%v)", total, err)
	}
	_, total, err = e.fulfillment.ListEscalated(repository.OrderListFilter{})
	if err != nil || total != 1 {
		t.Fatalf("expected 1 escalated order, got %d (%v)", total, err)
	}
}
