package admin

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

type vendorStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListProducts pages the catalog including inactive rows
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	products, total, err := h.CatalogService.ListProducts(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, products, page, pageSize, total)
}

// CreateProduct adds a catalog row
func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	product, err := h.CatalogService.CreateProduct(req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct changes a catalog row; placed orders keep their snapshot
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	product, err := h.CatalogService.UpdateProduct(id, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// ListVendors pages vendors
func (h *Handler) ListVendors(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	vendors, total, err := h.PartnerService.ListVendors(repository.VendorListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, vendors, page, pageSize, total)
}

// CreateVendor registers a vendor with its credit line
func (h *Handler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	vendor, err := h.PartnerService.CreateVendor(req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, vendor)
}

// GetVendor returns one vendor
func (h *Handler) GetVendor(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	vendor, err := h.PartnerService.GetVendor(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, vendor)
}

// SetVendorStatus enables or disables a vendor
func (h *Handler) SetVendorStatus(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req vendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	vendor, err := h.PartnerService.SetVendorStatus(id, strings.TrimSpace(req.Status))
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, vendor)
}

// ListSellers pages referral partners
func (h *Handler) ListSellers(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	sellers, total, err := h.PartnerService.ListSellers(page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, sellers, page, pageSize, total)
}

// CreateSeller registers a referral partner with its id code
func (h *Handler) CreateSeller(c *gin.Context) {
	var req service.CreateSellerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	seller, err := h.PartnerService.CreateSeller(req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, seller)
}
