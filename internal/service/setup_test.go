package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Name)
	}
	return names
}

func (p *recordingPublisher) count(name string) int {
	total := 0
	for _, n := range p.names() {
		if n == name {
			total++
		}
	}
	return total
}

type testEngine struct {
	db          *gorm.DB
	publisher   *recordingPublisher
	orderRepo   *repository.GormOrderRepository
	vendorRepo  *repository.GormVendorRepository
	walletRepo  *repository.GormWalletRepository
	catalog     *CatalogService
	partners    *PartnerService
	wallet      *PartnerWalletService
	commissions *CommissionService
	grace       *GraceService
	orders      *OrderService
	fulfillment *FulfillmentService
	payments    *PaymentLedgerService
	withdrawals *WithdrawalService
	credit      *CreditService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	models.DB = db
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := setupServiceTestDB(t)
	publisher := &recordingPublisher{}

	orderRepo := repository.NewOrderRepository(db)
	seqRepo := repository.NewOrderSequenceRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	productRepo := repository.NewProductRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	pricing := DefaultPricingRules()
	catalog := NewCatalogService(productRepo)
	partners := NewPartnerService(vendorRepo, sellerRepo, decimal.NewFromInt(100000))
	wallet := NewPartnerWalletService(walletRepo, withdrawalRepo)
	commissions := NewCommissionService(commissionRepo, orderRepo, wallet, publisher, CommissionOptions{
		Threshold:       decimal.NewFromInt(50000),
		LowRatePercent:  decimal.NewFromInt(2),
		HighRatePercent: decimal.NewFromInt(3),
	})
	grace := NewGraceService(orderRepo, paymentEventRepo, commissions, nil, publisher, DefaultGraceWindow, 10*time.Minute)
	allocator := NewOrderNumberAllocator(orderRepo, seqRepo, "ORD", 330)
	orders := NewOrderService(orderRepo, partners, catalog, allocator, grace, commissions, publisher, OrderOptions{
		Pricing:               pricing,
		DeliveryTimeline:      24 * time.Hour,
		ConflictRetryAttempts: 5,
	})
	fulfillment := NewFulfillmentService(orderRepo, vendorRepo, orders, grace, partners, publisher, pricing)
	payments := NewPaymentLedgerService(orderRepo, paymentEventRepo, grace, commissions, publisher, 3)
	withdrawals := NewWithdrawalService(withdrawalRepo, walletRepo, wallet)
	credit := NewCreditService(creditRepo, vendorRepo, catalog, CreditOptions{
		MinPurchase: decimal.NewFromInt(1000),
		MaxPurchase: decimal.NewFromInt(500000),
		DiscountTiers: []RepaymentTier{
			{Name: "early_7", MinDays: 0, MaxDays: 7, Percent: decimal.NewFromInt(2)},
		},
		InterestTiers: []RepaymentTier{
			{Name: "late_30", MinDays: 31, MaxDays: 60, Percent: decimal.NewFromInt(1)},
			{Name: "late_60", MinDays: 61, Percent: decimal.NewFromInt(3)},
		},
		RetryAttempts: 3,
	})

	return &testEngine{
		db:          db,
		publisher:   publisher,
		orderRepo:   orderRepo,
		vendorRepo:  vendorRepo,
		walletRepo:  walletRepo,
		catalog:     catalog,
		partners:    partners,
		wallet:      wallet,
		commissions: commissions,
		grace:       grace,
		orders:      orders,
		fulfillment: fulfillment,
		payments:    payments,
		withdrawals: withdrawals,
		credit:      credit,
	}
}

func (e *testEngine) product(t *testing.T, name string, price int64) *models.Product {
	t.Helper()
	product, err := e.catalog.CreateProduct(CreateProductInput{
		Name:     name,
		Price:    models.NewMoneyFromInt(price),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (e *testEngine) vendor(t *testing.T, name string) *models.Vendor {
	t.Helper()
	vendor, err := e.partners.CreateVendor(CreateVendorInput{Name: name, Phone: "9800000000"})
	if err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	return vendor
}

func (e *testEngine) seller(t *testing.T, code string) *models.Seller {
	t.Helper()
	seller, err := e.partners.CreateSeller(CreateSellerInput{IDCode: code, Name: "Partner " + code})
	if err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
	return seller
}

// placeOrder creates an order for user 7 through the public path
func (e *testEngine) placeOrder(t *testing.T, input CreateOrderInput) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(context.Background(), buyer(7), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

// expireGrace moves a window's expiry into the past
func (e *testEngine) expireGrace(t *testing.T, orderID uint, kind string) time.Time {
	t.Helper()
	past := time.Now().Add(-time.Minute)
	column := repository.GraceColumnPrefix(kind) + "expires_at"
	if err := e.orderRepo.UpdateFields(orderID, map[string]interface{}{column: past}); err != nil {
		t.Fatalf("expire grace failed: %v", err)
	}
	return time.Now()
}

func (e *testEngine) reload(t *testing.T, orderID uint) *models.Order {
	t.Helper()
	order, err := e.orderRepo.GetByID(orderID)
	if err != nil || order == nil {
		t.Fatalf("reload order %d failed: %v", orderID, err)
	}
	return order
}

func (e *testEngine) settle(t *testing.T, order *models.Order, leg string, amount models.Money, reference string) *models.Order {
	t.Helper()
	updated, err := e.payments.OnPaymentSettled(context.Background(), PaymentEventInput{
		OrderID:   order.ID,
		Leg:       leg,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		t.Fatalf("settle %s failed: %v", reference, err)
	}
	return updated
}

func buyer(id uint) Principal   { return Principal{ID: id, Role: constants.RoleUser} }
func vendorP(id uint) Principal { return Principal{ID: id, Role: constants.RoleVendor} }
func sellerP(id uint) Principal { return Principal{ID: id, Role: constants.RoleSeller} }
func admin() Principal          { return Principal{ID: 1, Role: constants.RoleAdmin} }

func moneyOf(value string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}
