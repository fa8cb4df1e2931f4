package admin

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCreditPurchases pages credit purchases of every vendor
func (h *Handler) ListCreditPurchases(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	purchases, total, err := h.CreditService.ListCreditPurchases(principal, repository.CreditPurchaseListFilter{
		Page:        page,
		PageSize:    pageSize,
		VendorID:    shared.QueryUint(c, "vendor_id"),
		Status:      strings.TrimSpace(c.Query("status")),
		CycleStatus: strings.TrimSpace(c.Query("cycle_status")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, purchases, page, pageSize, total)
}

// GetCreditPurchase returns one purchase with its repayments
func (h *Handler) GetCreditPurchase(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.CreditService.GetCreditPurchase(principal, id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}

// ApproveCreditPurchase opens the repayment cycle
func (h *Handler) ApproveCreditPurchase(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.CreditService.ApproveCreditPurchase(principal, id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}

// RejectCreditPurchase declines a pending purchase
func (h *Handler) RejectCreditPurchase(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	purchase, err := h.CreditService.RejectCreditPurchase(principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}

// RecordRepayment enters a repayment collected by the platform
func (h *Handler) RecordRepayment(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.RepaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	purchase, err := h.CreditService.ProcessPartialRepayment(c.Request.Context(), principal, id, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}
