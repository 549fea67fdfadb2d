package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Wildcard matches any value in the action or resource position of a
// permission string.
const Wildcard = "*"

// Principal is an authenticated identity. It is only ever constructed
// from successfully verified claims; absence of a Principal in the
// request context is the unauthenticated state.
type Principal struct {
	UserID      uuid.UUID
	Email       string
	Name        string
	Roles       []string
	Permissions []string

	roleSet map[string]struct{}
	permSet map[string]struct{}
}

// NewPrincipal builds a Principal from verified claims. Permission
// strings are parsed once here so that membership queries are set
// lookups, not string scans.
func NewPrincipal(claims *Claims) (*Principal, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id is not a UUID", ErrTokenMalformed)
	}

	p := &Principal{
		UserID:      userID,
		Email:       claims.Email,
		Name:        claims.Name,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
		roleSet:     make(map[string]struct{}, len(claims.Roles)),
		permSet:     make(map[string]struct{}, len(claims.Permissions)),
	}

	for _, role := range claims.Roles {
		p.roleSet[role] = struct{}{}
	}
	for _, perm := range claims.Permissions {
		p.permSet[perm] = struct{}{}
	}

	return p, nil
}

// HasRole checks exact, case-sensitive role membership.
func (p *Principal) HasRole(role string) bool {
	_, ok := p.roleSet[role]
	return ok
}

// HasAnyRole checks if the principal has at least one of the roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// HasAllRoles checks if the principal has every one of the roles.
func (p *Principal) HasAllRoles(roles ...string) bool {
	for _, role := range roles {
		if !p.HasRole(role) {
			return false
		}
	}
	return true
}

// HasPermission checks a requested "action:resource" permission against
// the principal's permission set. A stored permission matches when each
// half matches the corresponding half of the request, with Wildcard
// matching anything: "*:*" grants everything, "*:documents" grants any
// action on documents, "read:*" grants read on any resource.
func (p *Principal) HasPermission(permission string) bool {
	if _, ok := p.permSet[permission]; ok {
		return true
	}
	if _, ok := p.permSet[Wildcard+":"+Wildcard]; ok {
		return true
	}

	action, resource, found := strings.Cut(permission, ":")
	if !found {
		return false
	}
	if _, ok := p.permSet[Wildcard+":"+resource]; ok {
		return true
	}
	if _, ok := p.permSet[action+":"+Wildcard]; ok {
		return true
	}
	return false
}

// HasAnyPermission checks if the principal holds at least one of the
// permissions.
func (p *Principal) HasAnyPermission(permissions ...string) bool {
	for _, perm := range permissions {
		if p.HasPermission(perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the principal holds every one of the
// permissions.
func (p *Principal) HasAllPermissions(permissions ...string) bool {
	for _, perm := range permissions {
		if !p.HasPermission(perm) {
			return false
		}
	}
	return true
}

// PlaceholderPrincipal returns the fixed identity substituted when
// authentication is globally disabled (test environments). It must
// never be reachable while auth is enabled. The identity is
// deliberately all-powerful so that disabled-auth environments exercise
// handler code, not authorization denials.
func PlaceholderPrincipal() *Principal {
	p, err := NewPrincipal(&Claims{
		UserID:      uuid.Nil.String(),
		Email:       "test@example.com",
		Name:        "Test User",
		Roles:       []string{"user"},
		Permissions: []string{Wildcard + ":" + Wildcard},
		Issuer:      "disabled",
		IssuedAt:    &Time{},
		ExpiresAt:   &Time{},
		TokenID:     "placeholder",
	})
	if err != nil {
		panic("auth: placeholder principal must be constructible: " + err.Error())
	}
	return p
}

type principalContextKey struct{}

// ContextWithPrincipal attaches a principal to the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
