package admin

import (
	"errors"
	"strings"

	"github.com/agrimart/ordercore/internal/authz"
	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"

	"github.com/gin-gonic/gin"
)

type policyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// ListAuthzRoles lists principal roles with their grant counts
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "list roles failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies lists the grants of one role
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid role", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy adds a route grant to a role
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "grant policy failed", err)
		return
	}
	shared.RequestLog(c).Infow("authz_policy_granted", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

// RevokeAuthzPolicy removes a route grant from a role
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		if errors.Is(err, authz.ErrProtectedPolicy) {
			shared.RespondError(c, response.CodeForbidden, "policy is protected", err)
			return
		}
		shared.RespondError(c, response.CodeBadRequest, "revoke policy failed", err)
		return
	}
	shared.RequestLog(c).Infow("authz_policy_revoked", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

// ReloadAuthzPolicy reloads policies from storage after out-of-band edits
func (h *Handler) ReloadAuthzPolicy(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		shared.RespondError(c, response.CodeInternal, "reload policy failed", err)
		return
	}
	response.Success(c, gin.H{"reloaded": true})
}
