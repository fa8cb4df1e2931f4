package shared

import (
	"errors"

	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog returns a logger carrying the request id
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError writes an error reply and logs the cause when there is one
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// mappedHandlerError maps a service error category to a response code
type mappedHandlerError struct {
	target error
	code   int
}

var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrValidation, code: response.CodeBadRequest},
	{target: service.ErrNotFound, code: response.CodeNotFound},
	{target: service.ErrForbidden, code: response.CodeForbidden},
	{target: service.ErrConflict, code: response.CodeConflict},
}

// RespondServiceError maps a service error to a reply. Consistency failures
// and unknown errors are logged in full and answered with a generic message.
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, service.ErrConsistency) {
		RespondError(c, response.CodeInternal, service.PublicMessage(err), err)
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			RespondError(c, rule.code, service.PublicMessage(err), nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, "internal error", err)
}
