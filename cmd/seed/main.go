package main

import (
	"fmt"
	"time"

	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.ToPoolConfig()); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []models.Product{
		{Name: "Urea 45kg", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("266.50")), IsActive: true},
		{Name: "DAP 50kg", Price: models.NewMoneyFromInt(1350), IsActive: true},
		{Name: "Paddy seed 10kg", Price: models.NewMoneyFromInt(980), IsActive: true},
		{Name: "Drip irrigation kit", Price: models.NewMoneyFromInt(12500), IsActive: true},
	}
	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			continue
		}
		stdLog.Printf("Created product: %s (%s)", product.Name, product.Price)
	}

	limit := models.NewMoneyFromInt(cfg.Credit.DefaultCreditLimit)
	vendors := []models.Vendor{
		{Name: "Kisan Agro Traders", Phone: "9000000001", Status: constants.VendorStatusActive, CreditLimit: limit, AvailableCredit: limit},
		{Name: "Green Field Supplies", Phone: "9000000002", Status: constants.VendorStatusActive, CreditLimit: limit, AvailableCredit: limit},
	}
	for i := range vendors {
		vendor := &vendors[i]
		var existing models.Vendor
		if err := models.DB.Where("phone = ?", vendor.Phone).First(&existing).Error; err == nil {
			*vendor = existing
			stdLog.Printf("Vendor already exists: %s", vendor.Name)
			continue
		}
		if err := models.DB.Create(vendor).Error; err != nil {
			stdLog.Fatalf("Failed to create vendor %s: %v", vendor.Name, err)
		}
		stdLog.Printf("Created vendor: %s", vendor.Name)
	}

	seller := models.Seller{IDCode: "SELLER001", Name: "Village Partner", Status: constants.SellerStatusActive}
	var existingSeller models.Seller
	if err := models.DB.Where("id_code = ?", seller.IDCode).First(&existingSeller).Error; err == nil {
		seller = existingSeller
		stdLog.Printf("Seller already exists: %s", seller.IDCode)
	} else if err := models.DB.Create(&seller).Error; err != nil {
		stdLog.Fatalf("Failed to create seller %s: %v", seller.IDCode, err)
	} else {
		stdLog.Printf("Created seller: %s", seller.IDCode)
	}

	ttl := time.Duration(cfg.JWT.ExpireHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	principals := []struct {
		label     string
		principal service.Principal
	}{
		{label: "admin", principal: service.Principal{ID: 1, Role: constants.RoleAdmin}},
		{label: "buyer", principal: service.Principal{ID: 1, Role: constants.RoleUser}},
		{label: "vendor " + vendors[0].Name, principal: service.Principal{ID: vendors[0].ID, Role: constants.RoleVendor}},
		{label: "seller " + seller.IDCode, principal: service.Principal{ID: seller.ID, Role: constants.RoleSeller}},
	}
	fmt.Println("Development tokens:")
	for _, item := range principals {
		token, err := service.SignPrincipalToken(cfg.JWT.SecretKey, item.principal, ttl)
		if err != nil {
			stdLog.Fatalf("Failed to sign token for %s: %v", item.label, err)
		}
		fmt.Printf("  %-28s %s\n", item.label, token)
	}
	stdLog.Println("Seed completed")
}
