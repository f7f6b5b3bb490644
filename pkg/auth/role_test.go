package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleContains(t *testing.T) {
	tests := []struct {
		name     string
		granted  Role
		required Role
		want     bool
	}{
		{"admin covers admin", RoleAdmin, RoleAdmin, true},
		{"admin covers moderator", RoleAdmin, RoleModerator, true},
		{"admin covers viewer", RoleAdmin, RoleViewer, true},
		{"moderator covers moderator", RoleModerator, RoleModerator, true},
		{"moderator covers viewer", RoleModerator, RoleViewer, true},
		{"moderator does not cover admin", RoleModerator, RoleAdmin, false},
		{"viewer covers viewer", RoleViewer, RoleViewer, true},
		{"viewer does not cover moderator", RoleViewer, RoleModerator, false},
		{"viewer does not cover admin", RoleViewer, RoleAdmin, false},
		{"unknown role covers nothing", Role("auditor"), RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.granted.Contains(tt.required))
		})
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		granted  []Role
		required []Role
		want     bool
	}{
		{"single match", []Role{RoleViewer}, []Role{RoleViewer}, true},
		{"hierarchy match", []Role{RoleAdmin}, []Role{RoleViewer}, true},
		{"any of several required", []Role{RoleModerator}, []Role{RoleAdmin, RoleModerator}, true},
		{"none of required", []Role{RoleViewer}, []Role{RoleAdmin, RoleModerator}, false},
		{"no granted roles", nil, []Role{RoleViewer}, false},
		{"no required roles", []Role{RoleViewer}, nil, false},
		{"multiple granted, one suffices", []Role{RoleViewer, RoleModerator}, []Role{RoleModerator}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(tt.granted, tt.required))
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"ADMIN", RoleAdmin, true},
		{"Moderator", RoleModerator, true},
		{"viewer", RoleViewer, true},
		{"auditor", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
