package public

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMyWallet returns the seller wallet with the balance available for withdrawal
func (h *Handler) GetMyWallet(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}

	summary, err := h.WalletService.GetSummary(principal.ID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetMyWalletTransactions pages the seller wallet ledger
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	txs, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		SellerID:  principal.ID,
		OrderID:   shared.QueryUint(c, "order_id"),
		Type:      strings.TrimSpace(c.Query("type")),
		Direction: strings.TrimSpace(c.Query("direction")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, txs, page, pageSize, total)
}

// ListMyCommissions pages commissions earned by the seller
func (h *Handler) ListMyCommissions(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	commissions, total, err := h.CommissionService.ListCommissions(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: principal.ID,
		Month:    strings.TrimSpace(c.Query("month")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, commissions, page, pageSize, total)
}

// RequestWithdrawal files a payout request against the wallet
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	var req service.WithdrawalRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	withdrawal, err := h.WithdrawalService.RequestWithdrawal(principal, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ListMyWithdrawals pages the seller's payout requests
func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	withdrawals, total, err := h.WithdrawalService.ListWithdrawals(principal, repository.WithdrawalListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, withdrawals, page, pageSize, total)
}
