package authz

import (
	"fmt"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/logger"
)

// RoleSeed is a built-in role with its route grants
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds is the route matrix per principal role
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleUser,
			Policies: []Policy{
				{Object: "/products", Action: "GET"},
				{Object: "/orders", Action: "*"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/lookup/:number", Action: "GET"},
				{Object: "/orders/:id/cancel", Action: "POST"},
			},
		},
		{
			Role: constants.RoleVendor,
			Policies: []Policy{
				{Object: "/products", Action: "GET"},
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/lookup/:number", Action: "GET"},
				{Object: "/orders/:id/accept", Action: "POST"},
				{Object: "/orders/:id/reject", Action: "POST"},
				{Object: "/orders/:id/partial-accept", Action: "POST"},
				{Object: "/orders/:id/acceptance/confirm", Action: "POST"},
				{Object: "/orders/:id/acceptance/cancel", Action: "POST"},
				{Object: "/orders/:id/status", Action: "PATCH"},
				{Object: "/orders/:id/status/confirm", Action: "POST"},
				{Object: "/orders/:id/status/revert", Action: "POST"},
				{Object: "/credit/purchases", Action: "*"},
				{Object: "/credit/purchases/:id", Action: "GET"},
				{Object: "/credit/purchases/:id/quote", Action: "GET"},
				{Object: "/credit/purchases/:id/repayments", Action: "POST"},
			},
		},
		{
			Role: constants.RoleSeller,
			Policies: []Policy{
				{Object: "/products", Action: "GET"},
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/lookup/:number", Action: "GET"},
				{Object: "/wallet", Action: "GET"},
				{Object: "/wallet/transactions", Action: "GET"},
				{Object: "/commissions", Action: "GET"},
				{Object: "/withdrawals", Action: "*"},
			},
		},
		{
			Role: constants.RoleAdmin,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
				{Object: "/products", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles writes the built-in grants; rows already stored are left alone
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	added := 0
	for _, seed := range BuiltinRoleSeeds() {
		subject, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		for _, policy := range seed.Policies {
			ok, err := s.enforcer.AddPolicy(subject, NormalizeObject(policy.Object), NormalizeAction(policy.Action))
			if err != nil {
				return fmt.Errorf("add builtin policy %s %s: %w", subject, policy.Object, err)
			}
			if ok {
				added++
			}
		}
	}
	if added > 0 {
		logger.Infow("authz_builtin_policies_added", "count", added)
	}
	return nil
}
