package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapGroupToRole(t *testing.T) {
	a := NewDirectoryAuthenticator(DirectoryConfig{})

	tests := []struct {
		cn   string
		want Role
		ok   bool
	}{
		{"ROLE_ADMIN", RoleAdmin, true},
		{"ROLE_MODERATOR", RoleModerator, true},
		{"role_viewer", RoleViewer, true},
		{"admin", RoleAdmin, true},
		{"admins", RoleAdmin, true},
		{"moderators", RoleModerator, true},
		{"Viewers", RoleViewer, true},
		{"ROLE_AUDITOR", "", false},
		{"developers", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.cn, func(t *testing.T) {
			got, ok := a.mapGroupToRole(tt.cn)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapGroupToRoleCustomPrefix(t *testing.T) {
	a := NewDirectoryAuthenticator(DirectoryConfig{GroupRolePrefix: "APP_"})

	role, ok := a.mapGroupToRole("APP_MODERATOR")
	assert.True(t, ok)
	assert.Equal(t, RoleModerator, role)

	_, ok = a.mapGroupToRole("ROLE_MODERATOR")
	assert.False(t, ok)
}

func TestDirectorySearchBase(t *testing.T) {
	tests := []struct {
		name     string
		baseDN   string
		relative string
		want     string
	}{
		{"both set", "dc=example,dc=com", "ou=people", "ou=people,dc=example,dc=com"},
		{"relative only", "", "ou=people", "ou=people"},
		{"base only", "dc=example,dc=com", "", "dc=example,dc=com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewDirectoryAuthenticator(DirectoryConfig{BaseDN: tt.baseDN})
			assert.Equal(t, tt.want, a.searchBase(tt.relative))
		})
	}
}

func TestDirectoryAuthenticateExpiredDeadline(t *testing.T) {
	a := NewDirectoryAuthenticator(DirectoryConfig{URL: "ldap://127.0.0.1:1"})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := a.Authenticate(ctx, Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDirectoryAuthenticateUnreachableEndpoint(t *testing.T) {
	a := NewDirectoryAuthenticator(DirectoryConfig{
		URL:     "ldap://127.0.0.1:1",
		Timeout: 100 * time.Millisecond,
	})

	_, err := a.Authenticate(context.Background(), Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDirectoryDefaults(t *testing.T) {
	a := NewDirectoryAuthenticator(DirectoryConfig{})

	assert.Equal(t, "directory", a.Name())
	assert.Equal(t, "ROLE_", a.config.GroupRolePrefix)
	assert.Equal(t, DefaultDirectoryTimeout, a.config.Timeout)
}
