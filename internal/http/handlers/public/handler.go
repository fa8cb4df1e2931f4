package public

import "github.com/agrimart/ordercore/internal/provider"

// Handler serves buyer, vendor and seller APIs plus the payment webhook
type Handler struct {
	*provider.Container
}

// New creates the handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// reasonRequest is the body of reject / cancel / revert actions
type reasonRequest struct {
	Reason string `json:"reason"`
}
