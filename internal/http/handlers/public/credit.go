package public

import (
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestCreditPurchase files a vendor purchase on credit
func (h *Handler) RequestCreditPurchase(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var req service.CreditPurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	purchase, err := h.CreditService.RequestCreditPurchase(principal, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}

// ListMyCreditPurchases pages the vendor's credit purchases
func (h *Handler) ListMyCreditPurchases(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	purchases, total, err := h.CreditService.ListCreditPurchases(principal, repository.CreditPurchaseListFilter{
		Page:        page,
		PageSize:    pageSize,
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

// QuoteRepayment prices the outstanding amount as of today
func (h *Handler) QuoteRepayment(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.CreditService.QuoteRepayment(principal, id, time.Now())
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, quote)
}

// RepayCreditPurchase applies a (partial) repayment
func (h *Handler) RepayCreditPurchase(c *gin.Context) {
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
