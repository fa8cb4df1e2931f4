package public

import (
	"strings"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrder places a buyer order
func (h *Handler) CreateOrder(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}

	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), principal, req)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders lists the caller's orders; the service scopes them by role
func (h *Handler) ListOrders(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	orders, total, err := h.OrderService.ListOrders(principal, repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNumber:   strings.TrimSpace(c.Query("order_number")),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, orders, page, pageSize, total)
}

// GetOrder returns one order with items and timeline
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

// GetOrderByNumber looks an order up by ORD-YYYYMMDD-NNNN
func (h *Handler) GetOrderByNumber(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		shared.RespondError(c, response.CodeBadRequest, "invalid order number", nil)
		return
	}

	order, err := h.OrderService.GetOrderByNumber(principal, number)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder cancels a buyer order that has not been dispatched
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
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
			return
		}
	}

	order, err := h.OrderService.CancelOrder(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
