package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agrimart/ordercore/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

var (
	ErrUnavailable     = errors.New("authz service unavailable")
	ErrUnknownRole     = errors.New("unknown principal role")
	ErrActionRequired  = errors.New("action is required")
	ErrProtectedPolicy = errors.New("policy is protected")
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	adminObject     = "/admin/*"
)

// principalRoles are the only subjects a token can carry
var principalRoles = []string{constants.RoleUser, constants.RoleVendor, constants.RoleSeller, constants.RoleAdmin}

// Subjects are role:<name>; objects are route patterns without /api/v1 matched with keyMatch2
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy is one role grant
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// RoleSummary is a principal role with the number of routes it is granted
type RoleSummary struct {
	Role     string `json:"role"`
	Subject  string `json:"subject"`
	Policies int    `json:"policies"`
}

// Service checks principal roles against routes; grants persist through the gorm adapter
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService creates the enforcer over the casbin_rule table and loads stored grants
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", ErrUnavailable)
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceRole checks a principal role against a request path and method
func (s *Service) EnforceRole(role, path, method string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(subject, NormalizeObject(path), NormalizeAction(method))
}

// ReloadPolicy reloads grants from storage after out-of-band edits
func (s *Service) ReloadPolicy() error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.enforcer.LoadPolicy()
}

// ListRoles summarizes every principal role, including ones without grants
func (s *Service) ListRoles() ([]RoleSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	summaries := make([]RoleSummary, 0, len(principalRoles))
	for _, role := range principalRoles {
		subject := rolePrefix + role
		rules, err := s.enforcer.GetFilteredPolicy(0, subject)
		if err != nil {
			return nil, fmt.Errorf("list %s policies: %w", role, err)
		}
		summaries = append(summaries, RoleSummary{Role: role, Subject: subject, Policies: len(rules)})
	}
	return summaries, nil
}

// GrantRolePolicy allows a role on a route pattern
func (s *Service) GrantRolePolicy(role, object, action string) error {
	subject, obj, act, err := s.normalizeGrant(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(subject, obj, act); err != nil {
		return fmt.Errorf("grant policy: %w", err)
	}
	return nil
}

// RevokeRolePolicy removes a grant. The admin console grant cannot be revoked.
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	subject, obj, act, err := s.normalizeGrant(role, object, action)
	if err != nil {
		return err
	}
	if subject == rolePrefix+constants.RoleAdmin && obj == adminObject {
		return fmt.Errorf("%w: %s %s", ErrProtectedPolicy, subject, obj)
	}
	if _, err := s.enforcer.RemovePolicy(subject, obj, act); err != nil {
		return fmt.Errorf("revoke policy: %w", err)
	}
	return nil
}

// GetRolePolicies lists the grants of a role sorted by route and method
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get role policies: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{Subject: rule[0], Object: NormalizeObject(rule[1]), Action: NormalizeAction(rule[2])})
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object == policies[j].Object {
			return policies[i].Action < policies[j].Action
		}
		return policies[i].Object < policies[j].Object
	})
	return policies, nil
}

func (s *Service) normalizeGrant(role, object, action string) (string, string, string, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return "", "", "", err
	}
	act := NormalizeAction(action)
	if act == "" {
		return "", "", "", ErrActionRequired
	}
	if err := s.ready(); err != nil {
		return "", "", "", err
	}
	return subject, NormalizeObject(object), act, nil
}

// NormalizeRole maps "vendor" or "role:vendor" to the casbin subject; only principal roles are accepted
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(role), rolePrefix))
	for _, known := range principalRoles {
		if name == known {
			return rolePrefix + name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// NormalizeObject strips the API prefix from a route
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction upper-cases the HTTP method
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
