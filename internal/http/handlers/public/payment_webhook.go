package public

import (
	"errors"
	"io"
	"time"

	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/payment"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 << 10

// PaymentWebhook applies a settled or failed payment leg. Redelivered references are no-ops.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	log := shared.RequestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	cfg := payment.Config{}
	if h.Config != nil {
		cfg.Secret = h.Config.Payment.WebhookSecret
		cfg.ToleranceSeconds = h.Config.Payment.WebhookToleranceSeconds
	}
	event, err := payment.VerifyAndParse(cfg, c.GetHeader(payment.SignatureHeader), body, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPayloadInvalid):
			shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		case errors.Is(err, payment.ErrConfigInvalid):
			log.Errorw("payment_webhook_not_configured", "error", err)
			response.Error(c, response.CodeUnauthorized, "webhook not configured")
		default:
			log.Warnw("payment_webhook_signature_invalid", "client_ip", c.ClientIP(), "error", err)
			response.Error(c, response.CodeUnauthorized, "invalid signature")
		}
		return
	}
	log.Infow("payment_webhook_received",
		"event_id", event.ID,
		"event", event.Type,
		"order_id", event.OrderID,
		"order_number", event.OrderNumber,
		"leg", event.Leg,
		"reference", event.Reference,
	)

	input := service.PaymentEventInput{
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		Leg:         event.Leg,
		Amount:      event.Amount,
		Reference:   event.Reference,
		Reason:      event.Reason,
	}
	ctx := c.Request.Context()
	apply := h.PaymentService.OnPaymentSettled
	if event.Type == payment.EventFailed {
		apply = h.PaymentService.OnPaymentFailed
	}
	order, err := apply(ctx, input)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
