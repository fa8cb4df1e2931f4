package shared

import (
	"strconv"
	"strings"

	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// PrincipalContextKey holds the authenticated service.Principal
const PrincipalContextKey = "principal"

// GetPrincipal reads the authenticated caller and answers 401 when absent
func GetPrincipal(c *gin.Context) (service.Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return service.Principal{}, false
	}
	principal, ok := value.(service.Principal)
	if !ok || principal.ID == 0 {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return service.Principal{}, false
	}
	return principal, true
}

// ParseIDParam reads a positive numeric path parameter and answers 400 otherwise
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// QueryUint reads an optional numeric query value; malformed values read as 0
func QueryUint(c *gin.Context, name string) uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
