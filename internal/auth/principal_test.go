package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrincipal(t *testing.T, roles, permissions []string) *Principal {
	t.Helper()

	claims := testClaims()
	claims.Roles = roles
	claims.Permissions = permissions

	p, err := NewPrincipal(claims)
	require.NoError(t, err)

	return p
}

func TestNewPrincipal_InvalidUserID(t *testing.T) {
	t.Parallel()

	claims := testClaims()
	claims.UserID = "not-a-uuid"

	_, err := NewPrincipal(claims)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestPrincipalRoles(t *testing.T) {
	t.Parallel()

	p := newTestPrincipal(t, []string{"user", "manager"}, nil)

	assert.True(t, p.HasRole("user"))
	assert.True(t, p.HasRole("manager"))
	assert.False(t, p.HasRole("admin"))
	assert.False(t, p.HasRole("User"), "role matching is case-sensitive")

	assert.True(t, p.HasAnyRole("admin", "manager"))
	assert.False(t, p.HasAnyRole("admin", "auditor"))
	assert.False(t, p.HasAnyRole())

	assert.True(t, p.HasAllRoles("user", "manager"))
	assert.False(t, p.HasAllRoles("user", "admin"))
	assert.True(t, p.HasAllRoles())
}

func TestPrincipalHasPermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		granted   []string
		requested string
		want      bool
	}{
		{name: "exact match", granted: []string{"read:documents"}, requested: "read:documents", want: true},
		{name: "no match", granted: []string{"read:documents"}, requested: "write:documents", want: false},
		{name: "full wildcard grants anything", granted: []string{"*:*"}, requested: "delete:presentations", want: true},
		{name: "action wildcard matches resource", granted: []string{"*:documents"}, requested: "write:documents", want: true},
		{name: "action wildcard wrong resource", granted: []string{"*:documents"}, requested: "write:slides", want: false},
		{name: "resource wildcard matches action", granted: []string{"read:*"}, requested: "read:slides", want: true},
		{name: "resource wildcard wrong action", granted: []string{"read:*"}, requested: "write:slides", want: false},
		{name: "wildcard is per-half not substring", granted: []string{"read:*"}, requested: "reader:slides", want: false},
		{name: "no colon in request", granted: []string{"read:documents"}, requested: "admin", want: false},
		{name: "no colon but exact grant", granted: []string{"admin"}, requested: "admin", want: true},
		{name: "empty grants", granted: nil, requested: "read:documents", want: false},
		{
			name:      "wildcard request only matches literally",
			granted:   []string{"read:documents"},
			requested: "*:documents",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newTestPrincipal(t, nil, tt.granted)
			assert.Equal(t, tt.want, p.HasPermission(tt.requested))
		})
	}
}

func TestPrincipalPermissionSets(t *testing.T) {
	t.Parallel()

	p := newTestPrincipal(t, nil, []string{"read:documents", "write:documents"})

	assert.True(t, p.HasAnyPermission("delete:documents", "read:documents"))
	assert.False(t, p.HasAnyPermission("delete:documents", "admin:system"))
	assert.False(t, p.HasAnyPermission())

	assert.True(t, p.HasAllPermissions("read:documents", "write:documents"))
	assert.False(t, p.HasAllPermissions("read:documents", "delete:documents"))
	assert.True(t, p.HasAllPermissions())
}

func TestPlaceholderPrincipal(t *testing.T) {
	t.Parallel()

	p := PlaceholderPrincipal()

	assert.Equal(t, uuid.Nil, p.UserID)
	assert.Equal(t, "test@example.com", p.Email)
	assert.True(t, p.HasRole("user"))
	assert.True(t, p.HasPermission("anything:at-all"))
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := newTestPrincipal(t, []string{"user"}, nil)
	ctx := ContextWithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, p, got)
}
