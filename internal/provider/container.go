package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrimart/ordercore/internal/authz"
	"github.com/agrimart/ordercore/internal/cache"
	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/notify"
	"github.com/agrimart/ordercore/internal/queue"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/shopspring/decimal"
)

// Container holds every repository and service of the process
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Notifier    notify.Notifier
	Publisher   service.EventPublisher

	// Repositories
	OrderRepo        repository.OrderRepository
	OrderSeqRepo     repository.OrderSequenceRepository
	PaymentEventRepo repository.PaymentEventRepository
	ProductRepo      repository.ProductRepository
	VendorRepo       repository.VendorRepository
	SellerRepo       repository.SellerRepository
	CommissionRepo   repository.CommissionRepository
	WalletRepo       repository.WalletRepository
	WithdrawalRepo   repository.WithdrawalRepository
	CreditRepo       repository.CreditRepository

	// Services
	AuthzService       *authz.Service
	CatalogService     *service.CatalogService
	PartnerService     *service.PartnerService
	WalletService      *service.PartnerWalletService
	CommissionService  *service.CommissionService
	GraceService       *service.GraceService
	OrderService       *service.OrderService
	FulfillmentService *service.FulfillmentService
	PaymentService     *service.PaymentLedgerService
	WithdrawalService  *service.WithdrawalService
	CreditService      *service.CreditService
}

// NewContainer wires the container from configuration; models.DB must be open
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	notifier, err := notify.New(context.Background(), cfg.Notification)
	if err != nil {
		logger.Warnw("provider_init_notifier_failed", "provider", cfg.Notification.Provider, "error", err)
		notifier = notify.LogNotifier{}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Notifier:    notifier,
		Publisher:   service.NewQueueEventPublisher(queueClient, notifier),
	}
	c.initRepositories()
	c.initServices()
	return c
}

// Close releases the queue client and the redis connection
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.QueueClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close queue client: %w", err))
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderSeqRepo = repository.NewOrderSequenceRepository(db)
	c.PaymentEventRepo = repository.NewPaymentEventRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VendorRepo = repository.NewVendorRepository(db)
	c.SellerRepo = repository.NewSellerRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.CreditRepo = repository.NewCreditRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	cfg := c.Config
	pricing := PricingRules(cfg.Order)
	retries := cfg.Order.ConflictRetryAttempts

	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.PartnerService = service.NewPartnerService(c.VendorRepo, c.SellerRepo, decimal.NewFromInt(cfg.Credit.DefaultCreditLimit))
	c.WalletService = service.NewPartnerWalletService(c.WalletRepo, c.WithdrawalRepo)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.OrderRepo, c.WalletService, c.Publisher, service.CommissionOptions{
		Threshold:             decimal.NewFromInt(cfg.Commission.Threshold),
		LowRatePercent:        decimal.NewFromFloat(cfg.Commission.LowRatePercent),
		HighRatePercent:       decimal.NewFromFloat(cfg.Commission.HighRatePercent),
		LockTTL:               time.Duration(cfg.Commission.LockTTLSeconds) * time.Second,
		TimezoneOffsetMinutes: cfg.Order.TimezoneOffsetMinutes,
	})
	c.GraceService = service.NewGraceService(c.OrderRepo, c.PaymentEventRepo, c.CommissionService, c.QueueClient, c.Publisher,
		minutes(cfg.Grace.WindowMinutes, service.DefaultGraceWindow),
		minutes(cfg.Grace.ExpiringNoticeMinutes, 10*time.Minute),
	)
	allocator := service.NewOrderNumberAllocator(c.OrderRepo, c.OrderSeqRepo, cfg.Order.NumberPrefix, cfg.Order.TimezoneOffsetMinutes)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PartnerService, c.CatalogService, allocator,
		c.GraceService, c.CommissionService, c.Publisher, service.OrderOptions{
			Pricing:               pricing,
			DeliveryTimeline:      time.Duration(cfg.Order.DeliveryTimelineHours) * time.Hour,
			ConflictRetryAttempts: retries,
		})
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.VendorRepo, c.OrderService, c.GraceService, c.PartnerService, c.Publisher, pricing)
	c.PaymentService = service.NewPaymentLedgerService(c.OrderRepo, c.PaymentEventRepo, c.GraceService, c.CommissionService, c.Publisher, retries)
	c.WithdrawalService = service.NewWithdrawalService(c.WithdrawalRepo, c.WalletRepo, c.WalletService)
	c.CreditService = service.NewCreditService(c.CreditRepo, c.VendorRepo, c.CatalogService, service.CreditOptions{
		MinPurchase:   decimal.NewFromInt(cfg.Credit.MinPurchase),
		MaxPurchase:   decimal.NewFromInt(cfg.Credit.MaxPurchase),
		DiscountTiers: RepaymentTiers(cfg.Credit.DiscountTiers),
		InterestTiers: RepaymentTiers(cfg.Credit.InterestTiers),
		RetryAttempts: retries,
	})
}

// PricingRules converts the order money settings; unset values keep the defaults
func PricingRules(cfg config.OrderConfig) service.PricingRules {
	rules := service.DefaultPricingRules()
	if cfg.DeliveryCharge > 0 {
		rules.DeliveryCharge = decimal.NewFromInt(cfg.DeliveryCharge)
	}
	if cfg.MinOrderValue > 0 {
		rules.MinOrderValue = decimal.NewFromInt(cfg.MinOrderValue)
	}
	if cfg.UpfrontPercent > 0 && cfg.UpfrontPercent <= 100 {
		rules.UpfrontPercent = decimal.NewFromInt(cfg.UpfrontPercent)
	}
	return rules
}

// RepaymentTiers converts configured credit tiers
func RepaymentTiers(items []config.RepaymentTierConfig) []service.RepaymentTier {
	tiers := make([]service.RepaymentTier, 0, len(items))
	for _, item := range items {
		if item.Percent <= 0 {
			continue
		}
		tiers = append(tiers, service.RepaymentTier{
			Name:    item.Name,
			MinDays: item.MinDays,
			MaxDays: item.MaxDays,
			Percent: decimal.NewFromFloat(item.Percent),
		})
	}
	return tiers
}

func minutes(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Minute
}
