package service

import (
	"strings"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/shopspring/decimal"
)

// PartnerService manages vendors and referral partners
type PartnerService struct {
	vendorRepo         repository.VendorRepository
	sellerRepo         repository.SellerRepository
	defaultCreditLimit models.Money
}

// CreateVendorInput admin vendor input
type CreateVendorInput struct {
	Name        string       `json:"name" validate:"required,max=120"`
	Phone       string       `json:"phone" validate:"omitempty,max=20"`
	CreditLimit models.Money `json:"credit_limit"`
}

// CreateSellerInput admin seller input
type CreateSellerInput struct {
	IDCode string `json:"id_code" validate:"required,alphanum,max=32"`
	Name   string `json:"name" validate:"required,max=120"`
}

// NewPartnerService creates the partner registry
func NewPartnerService(vendorRepo repository.VendorRepository, sellerRepo repository.SellerRepository, defaultCreditLimit decimal.Decimal) *PartnerService {
	return &PartnerService{
		vendorRepo:         vendorRepo,
		sellerRepo:         sellerRepo,
		defaultCreditLimit: toMoney(defaultCreditLimit),
	}
}

// CreateVendor registers an active vendor with its full credit line available
func (s *PartnerService) CreateVendor(input CreateVendorInput) (*models.Vendor, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	limit := input.CreditLimit
	if limit.Decimal.LessThanOrEqual(decimal.Zero) {
		limit = s.defaultCreditLimit
	}
	vendor := &models.Vendor{
		Name:            strings.TrimSpace(input.Name),
		Phone:           strings.TrimSpace(input.Phone),
		Status:          constants.VendorStatusActive,
		CreditLimit:     toMoney(limit.Decimal),
		AvailableCredit: toMoney(limit.Decimal),
	}
	if err := s.vendorRepo.Create(vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// GetVendor returns one vendor
func (s *PartnerService) GetVendor(id uint) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	return vendor, nil
}

// ListVendors pages vendors
func (s *PartnerService) ListVendors(filter repository.VendorListFilter) ([]models.Vendor, int64, error) {
	return s.vendorRepo.List(filter)
}

// SetVendorStatus enables or disables a vendor
func (s *PartnerService) SetVendorStatus(id uint, status string) (*models.Vendor, error) {
	if status != constants.VendorStatusActive && status != constants.VendorStatusDisabled {
		return nil, validationf(ErrInvalidInput, "vendor status must be active or disabled")
	}
	vendor, err := s.GetVendor(id)
	if err != nil {
		return nil, err
	}
	vendor.Status = status
	if err := s.vendorRepo.Update(vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// CreateSeller registers a referral partner code
func (s *PartnerService) CreateSeller(input CreateSellerInput) (*models.Seller, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(input.IDCode))
	existing, err := s.sellerRepo.GetByIDCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, validationf(ErrInvalidInput, "seller code %s is already registered", code)
	}
	seller := &models.Seller{
		IDCode: code,
		Name:   strings.TrimSpace(input.Name),
		Status: constants.SellerStatusActive,
	}
	if err := s.sellerRepo.Create(seller); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, validationf(ErrInvalidInput, "seller code %s is already registered", code)
		}
		return nil, err
	}
	return seller, nil
}

// ListSellers pages referral partners
func (s *PartnerService) ListSellers(page, pageSize int) ([]models.Seller, int64, error) {
	return s.sellerRepo.List(page, pageSize)
}

// resolveSeller maps a buyer supplied referral code to the partner
func (s *PartnerService) resolveSeller(code string) (*models.Seller, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	seller, err := s.sellerRepo.GetByIDCode(code)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, validationf(ErrInvalidInput, "seller code %s is not registered", code)
	}
	if seller.Status != constants.SellerStatusActive {
		return nil, ErrSellerInactive
	}
	return seller, nil
}

// resolveVendor checks the discovered vendor can take orders
func (s *PartnerService) resolveVendor(id uint) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	if vendor.Status != constants.VendorStatusActive {
		return nil, ErrVendorInactive
	}
	return vendor, nil
}
