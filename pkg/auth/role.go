// Package auth implements the authentication broker: credential
// verification against the local store, directory (LDAP) bind
// authentication, external identity completion, and normalization of
// all three into a single Principal representation.
package auth

import "strings"

// Role represents a coarse-grained permission label.
type Role string

const (
	// RoleAdmin has full administrative access.
	RoleAdmin Role = "admin"
	// RoleModerator can manage content and users.
	RoleModerator Role = "moderator"
	// RoleViewer has read-only access to content.
	RoleViewer Role = "viewer"
)

// IsValid checks if the role is a known Role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleViewer
}

// ParseRole parses a role name case-insensitively.
// Returns false if the name is not a known role.
func ParseRole(name string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(name)))
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// roleContains is the role hierarchy as an explicit containment table.
// A role satisfies a requirement when the requirement appears in its
// containment set.
var roleContains = map[Role]map[Role]bool{
	RoleAdmin: {
		RoleAdmin:     true,
		RoleModerator: true,
		RoleViewer:    true,
	},
	RoleModerator: {
		RoleModerator: true,
		RoleViewer:    true,
	},
	RoleViewer: {
		RoleViewer: true,
	},
}

// Contains reports whether r transitively satisfies the required role.
func (r Role) Contains(required Role) bool {
	return roleContains[r][required]
}

// Satisfies reports whether any granted role satisfies any required role.
//
// The requirement has any-of semantics: a principal holding at least one
// role whose containment set covers at least one required role passes.
// An empty requirement is never satisfied by role containment; callers
// model "authenticated only" outside this check.
func Satisfies(granted, required []Role) bool {
	for _, g := range granted {
		for _, q := range required {
			if g.Contains(q) {
				return true
			}
		}
	}
	return false
}
