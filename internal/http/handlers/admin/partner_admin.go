package admin

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCommissions pages commissions across partners
func (h *Handler) ListCommissions(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	commissions, total, err := h.CommissionService.ListCommissions(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: shared.QueryUint(c, "seller_id"),
		UserID:   shared.QueryUint(c, "user_id"),
		OrderID:  shared.QueryUint(c, "order_id"),
		Month:    strings.TrimSpace(c.Query("month")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, commissions, page, pageSize, total)
}

// GetCommission returns one commission
func (h *Handler) GetCommission(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	commission, err := h.CommissionService.GetCommission(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, commission)
}

// ListWithdrawals pages payout requests
func (h *Handler) ListWithdrawals(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	withdrawals, total, err := h.WithdrawalService.ListWithdrawals(principal, repository.WithdrawalListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: shared.QueryUint(c, "seller_id"),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, withdrawals, page, pageSize, total)
}

// ApproveWithdrawal debits the seller wallet
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	withdrawal, err := h.WithdrawalService.ApproveWithdrawal(principal, id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// RejectWithdrawal closes a payout request without moving money
func (h *Handler) RejectWithdrawal(c *gin.Context) {
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

	withdrawal, err := h.WithdrawalService.RejectWithdrawal(principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// SettleOrderCommission recomputes the commission of a settled order; repeating it is a no-op
func (h *Handler) SettleOrderCommission(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	commission, err := h.CommissionService.HandleOrderSettled(c.Request.Context(), id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RequestLog(c).Infow("admin_commission_settle", "order_id", id, "created", commission != nil)
	response.Success(c, commission)
}
