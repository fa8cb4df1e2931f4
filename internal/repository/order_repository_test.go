package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createRepoTestOrder(t *testing.T, repo *GormOrderRepository, number string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:       number,
		UserID:            7,
		AssignedTo:        constants.AssignedToVendor,
		Status:            constants.OrderStatusPending,
		PaymentStatus:     constants.PaymentStatusPending,
		PaymentPreference: constants.PaymentPreferencePartial,
		Subtotal:          models.NewMoneyFromInt(2000),
		TotalAmount:       models.NewMoneyFromInt(2050),
	}
	items := []models.OrderItem{{
		ProductID:   1,
		ProductName: "Urea 45kg",
		Quantity:    4,
		UnitPrice:   models.NewMoneyFromInt(500),
		TotalPrice:  models.NewMoneyFromInt(2000),
		ItemStatus:  constants.OrderItemStatusPending,
	}}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCloseGraceOnlyOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	order := createRepoTestOrder(t, repo, "ORD-20260101-0001")

	expires := time.Now().Add(-time.Minute)
	if err := repo.UpdateFields(order.ID, map[string]interface{}{
		"status_grace_active":     true,
		"status_grace_expires_at": expires,
	}); err != nil {
		t.Fatalf("open grace failed: %v", err)
	}

	ids, err := repo.ListGraceExpired(constants.GraceWindowStatusUpdate, time.Now(), 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != order.ID {
		t.Fatalf("unexpected expired ids: %v", ids)
	}

	closed, err := repo.CloseGrace(order.ID, constants.GraceWindowStatusUpdate, map[string]interface{}{
		"status_grace_outcome": constants.GraceOutcomeFinalized,
	})
	if err != nil || !closed {
		t.Fatalf("first close should win, closed=%v err=%v", closed, err)
	}
	closed, err = repo.CloseGrace(order.ID, constants.GraceWindowStatusUpdate, nil)
	if err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if closed {
		t.Fatalf("second close should be a no-op")
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.StatusGrace.Active || reloaded.StatusGrace.Outcome != constants.GraceOutcomeFinalized {
		t.Fatalf("unexpected grace state: %+v", reloaded.StatusGrace)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected items to be preloaded, got %d", len(reloaded.Items))
	}
}

func TestOrderRepositoryEscalatedItemsRoundTrip(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	order := createRepoTestOrder(t, repo, "ORD-20260101-0002")

	order.Escalation = models.Escalation{
		Active: true,
		Type:   constants.EscalationTypeQuantity,
		Items: models.EscalatedItems{{
			OrderItemID:       order.Items[0].ID,
			ProductID:         1,
			RequestedQuantity: 4,
			AvailableQuantity: 3,
			EscalatedQuantity: 1,
		}},
	}
	if err := repo.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	orders, total, err := repo.List(OrderListFilter{EscalatedOnly: true, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list escalated failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected one escalated order, got %d", total)
	}
	if len(orders[0].Escalation.Items) != 1 || orders[0].Escalation.Items[0].EscalatedQuantity != 1 {
		t.Fatalf("escalated items not restored: %+v", orders[0].Escalation.Items)
	}
}

func TestOrderSequenceRepositoryNext(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderSequenceRepository(db)

	for want := int64(1); want <= 3; want++ {
		var got int64
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			got, err = repo.WithTx(tx).Next("20260101")
			return err
		})
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("sequence mismatch: got=%d want=%d", got, want)
		}
	}
	other, err := repo.Next("20260102")
	if err != nil {
		t.Fatalf("next other day failed: %v", err)
	}
	if other != 1 {
		t.Fatalf("new day should restart at 1, got %d", other)
	}
}

func TestCommissionLedgerForUpdateCreatesOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCommissionRepository(db)

	first, err := repo.GetLedgerForUpdate(1, 2, "2026-01")
	if err != nil {
		t.Fatalf("get ledger failed: %v", err)
	}
	first.CumulativeAmount = models.NewMoneyFromInt(48000)
	if err := repo.UpdateLedger(first); err != nil {
		t.Fatalf("update ledger failed: %v", err)
	}
	second, err := repo.GetLedgerForUpdate(1, 2, "2026-01")
	if err != nil {
		t.Fatalf("get ledger again failed: %v", err)
	}
	if second.ID != first.ID || second.CumulativeAmount.String() != "48000.00" {
		t.Fatalf("ledger should be reused: first=%+v second=%+v", first, second)
	}
}
