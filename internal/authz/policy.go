package authz

import "github.com/cortexhq/cortex-auth/internal/auth"

// Well-known role names used by the named policies.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// AdminOnly passes only principals holding the admin role.
func AdminOnly(p *auth.Principal) error {
	return RequireRoles(p, Any, RoleAdmin)
}

// ManagerOrAdmin passes principals holding either the manager or the
// admin role.
func ManagerOrAdmin(p *auth.Principal) error {
	return RequireRoles(p, Any, RoleManager, RoleAdmin)
}
