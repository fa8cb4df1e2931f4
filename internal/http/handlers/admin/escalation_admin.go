package admin

import (
	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/gin-gonic/gin"
)

type reassignRequest struct {
	VendorID uint   `json:"vendor_id" binding:"required"`
	Note     string `json:"note"`
}

// ListEscalations pages orders currently handed to admin
func (h *Handler) ListEscalations(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	orders, total, err := h.FulfillmentService.ListEscalated(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		VendorID: shared.QueryUint(c, "vendor_id"),
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	shared.RespondPage(c, orders, page, pageSize, total)
}

// RevertEscalation returns an escalated order to its vendor
func (h *Handler) RevertEscalation(c *gin.Context) {
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

	order, err := h.FulfillmentService.RevertEscalation(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ReassignEscalation hands an escalated order to another vendor
func (h *Handler) ReassignEscalation(c *gin.Context) {
	principal, ok := shared.GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.FulfillmentService.ReassignEscalation(c.Request.Context(), principal, id, req.VendorID, req.Note)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ResolveEscalation cancels what is left of an escalated order
func (h *Handler) ResolveEscalation(c *gin.Context) {
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

	order, err := h.FulfillmentService.ResolveEscalation(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
