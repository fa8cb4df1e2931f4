package admin

import (
	"time"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SweepGrace finalizes expired windows now instead of waiting for the next tick
func (h *Handler) SweepGrace(c *gin.Context) {
	now := time.Now()
	finalized, err := h.GraceService.SweepExpired(c.Request.Context(), now)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	notified, err := h.GraceService.NotifyExpiring(c.Request.Context(), now)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"finalized": finalized,
		"notified":  notified,
	})
}
