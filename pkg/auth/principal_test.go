package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromExternalDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		attrs ExternalAttributes
		want  string
	}{
		{
			"prefers name",
			ExternalAttributes{Subject: "sub-1", Name: "Ada Lovelace", Email: "ada@example.com"},
			"Ada Lovelace",
		},
		{
			"falls back to email",
			ExternalAttributes{Subject: "sub-1", Email: "ada@example.com"},
			"ada@example.com",
		},
		{
			"falls back to subject",
			ExternalAttributes{Subject: "sub-1"},
			"sub-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromExternal(tt.attrs, []Role{RoleViewer})
			assert.Equal(t, tt.want, p.DisplayName)
			assert.Equal(t, tt.attrs.Subject, p.ID)
			assert.Equal(t, SourceExternal, p.Source)
		})
	}
}

func TestPrincipalHasRole(t *testing.T) {
	p := FromDirectory("carol", []Role{RoleModerator})

	assert.True(t, p.HasRole(RoleModerator))
	assert.True(t, p.HasRole(RoleViewer), "hierarchy applies through granted roles")
	assert.False(t, p.HasRole(RoleAdmin))
}

func TestFromLocal(t *testing.T) {
	p := FromLocal("admin", RoleAdmin)

	assert.Equal(t, "admin", p.ID)
	assert.Equal(t, "admin", p.DisplayName)
	assert.Equal(t, []Role{RoleAdmin}, p.Roles)
	assert.Equal(t, SourceLocal, p.Source)
}

func TestRoleNames(t *testing.T) {
	p := FromDirectory("carol", []Role{RoleModerator, RoleViewer})
	assert.Equal(t, []string{"moderator", "viewer"}, p.RoleNames())
}
