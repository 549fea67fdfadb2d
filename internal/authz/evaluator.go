package authz

import (
	"net/http"

	"github.com/cortexhq/cortex-auth/internal/auth"
)

// Mode selects how a requirement list combines.
type Mode int

const (
	// Any satisfies the requirement when at least one entry matches.
	Any Mode = iota
	// All satisfies the requirement only when every entry matches.
	All
)

// String returns the mode name for logs.
func (m Mode) String() string {
	if m == All {
		return "all"
	}
	return "any"
}

// RequireRoles checks the principal against a role requirement. On
// failure it returns a 403 role_required error. The required roles are
// kept on the error for server-side logs; the client message stays
// generic so responses do not enumerate the role model.
func RequireRoles(p *auth.Principal, mode Mode, roles ...string) error {
	if satisfied(mode, roles, p.HasAnyRole, p.HasAllRoles) {
		return nil
	}
	return &Denial{
		err: &auth.Error{
			Status:  http.StatusForbidden,
			Code:    auth.CodeRoleRequired,
			Message: "Insufficient role privileges",
		},
		Required: roles,
		Mode:     mode,
	}
}

// RequirePermissions checks the principal against a permission
// requirement. On failure it returns a 403 insufficient_permissions
// error.
func RequirePermissions(p *auth.Principal, mode Mode, permissions ...string) error {
	if satisfied(mode, permissions, p.HasAnyPermission, p.HasAllPermissions) {
		return nil
	}
	return &Denial{
		err: &auth.Error{
			Status:  http.StatusForbidden,
			Code:    auth.CodeInsufficientPermissions,
			Message: "Insufficient permissions",
		},
		Required: permissions,
		Mode:     mode,
	}
}

// satisfied applies the mode to a requirement list. An empty list is
// vacuously satisfied in All mode and never satisfied in Any mode,
// which makes All checks monotonic: adding a requirement can only
// shrink the set of principals that pass.
func satisfied(mode Mode, required []string, any, all func(...string) bool) bool {
	if mode == All {
		return all(required...)
	}
	return any(required...)
}

// Denial is an authorization failure. It unwraps to the contract
// *auth.Error while keeping the requirement that failed for
// diagnostics.
type Denial struct {
	err      *auth.Error
	Required []string
	Mode     Mode
}

// Error implements the error interface.
func (d *Denial) Error() string {
	return d.err.Error()
}

// Unwrap exposes the contract error for auth.Classify.
func (d *Denial) Unwrap() error {
	return d.err
}
