package admin

import (
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin console API
type Handler struct {
	*provider.Container
}

// New creates the admin handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// queryTime accepts RFC3339 or a plain date
func queryTime(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}
