package admin

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders pages all orders
func (h *Handler) ListOrders(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	orders, total, err := h.OrderService.ListOrders(principal, repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        shared.QueryUint(c, "user_id"),
		VendorID:      shared.QueryUint(c, "vendor_id"),
		SellerID:      shared.QueryUint(c, "seller_id"),
		ParentOrderID: shared.QueryUint(c, "parent_order_id"),
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		AssignedTo:    strings.TrimSpace(c.Query("assigned_to")),
		OrderNumber:   strings.TrimSpace(c.Query("order_number")),
		CreatedFrom:   queryTime(c, "created_from"),
		CreatedTo:     queryTime(c, "created_to"),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, orders, page, pageSize, total)
}

// GetOrder returns any order
func (h *Handler) GetOrder(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(principal, id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus applies an admin status change immediately
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(c.Request.Context(), principal, id, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder cancels on behalf of the platform
func (h *Handler) CancelOrder(c *gin.Context) {
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

	order, err := h.OrderService.CancelOrder(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListPaymentEvents returns the payment audit trail of an order
func (h *Handler) ListPaymentEvents(c *gin.Context) {
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}

	events, err := h.PaymentService.ListPaymentEvents(id)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, events)
}

// ResolvePaymentFailure retries or writes off a failed remaining leg
func (h *Handler) ResolvePaymentFailure(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.ResolvePaymentFailureInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.PaymentService.ResolvePaymentFailure(c.Request.Context(), principal, id, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// RecordPaymentSettled enters a settled leg collected outside the gateway
func (h *Handler) RecordPaymentSettled(c *gin.Context) {
	var req service.PaymentEventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.PaymentService.OnPaymentSettled(c.Request.Context(), req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// RecordPaymentFailed enters a failed leg reported outside the gateway
func (h *Handler) RecordPaymentFailed(c *gin.Context) {
	var req service.PaymentEventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.PaymentService.OnPaymentFailed(c.Request.Context(), req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
