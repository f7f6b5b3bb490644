// Package authz maps request paths to role requirements and renders
// per-request access decisions. The rule table is static configuration
// loaded once at startup; all policy lives here rather than scattered
// across handlers.
package authz

import (
	"strings"

	"github.com/gatewarden/gatewarden/pkg/auth"
)

// Decision is the outcome of matching a request against the rule table.
type Decision string

const (
	// DecisionPublic applies to paths reachable without any principal.
	DecisionPublic Decision = "public"

	// DecisionAllow means the bound principal satisfies the matched rule.
	DecisionAllow Decision = "allow"

	// DecisionDenyUnauthenticated means no principal is bound and the
	// path requires one. Callers redirect to the login entry point.
	DecisionDenyUnauthenticated Decision = "deny_unauthenticated"

	// DecisionDenyForbidden means a principal is bound but lacks the
	// required roles.
	DecisionDenyForbidden Decision = "deny_forbidden"
)

// AccessRule maps a path pattern to a role requirement. A pattern ending
// in "/**" matches the prefix and everything below it; any other pattern
// matches exactly. Required roles are disjunctive: any one suffices.
type AccessRule struct {
	Pattern  string
	Required []auth.Role
	Public   bool
}

// Matches reports whether the rule's pattern covers the given path.
func (r AccessRule) Matches(path string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// DefaultRules returns the standard rule table. Public entry points come
// first, then role-gated subtrees most specific first. Paths matching no
// rule require authentication but no particular role.
func DefaultRules() []AccessRule {
	return []AccessRule{
		{Pattern: "/login", Public: true},
		{Pattern: "/logout", Public: true},
		{Pattern: "/oauth2/**", Public: true},
		{Pattern: "/health", Public: true},
		{Pattern: "/admin/**", Required: []auth.Role{auth.RoleAdmin}},
		{Pattern: "/moderator/**", Required: []auth.Role{auth.RoleAdmin, auth.RoleModerator}},
		{Pattern: "/viewer/**", Required: []auth.Role{auth.RoleAdmin, auth.RoleModerator, auth.RoleViewer}},
	}
}

// Matcher evaluates paths against an ordered rule table.
type Matcher struct {
	rules []AccessRule
}

// NewMatcher creates a Matcher. Rule order is significant: the first
// matching rule wins, so callers list specific patterns before broad
// ones. Public rules are hoisted ahead of role-gated ones so a public
// path stays public no matter where it appears in the input.
func NewMatcher(rules []AccessRule) *Matcher {
	ordered := make([]AccessRule, 0, len(rules))
	for _, r := range rules {
		if r.Public {
			ordered = append(ordered, r)
		}
	}
	for _, r := range rules {
		if !r.Public {
			ordered = append(ordered, r)
		}
	}
	return &Matcher{rules: ordered}
}

// Rules returns the effective rule table in evaluation order.
func (m *Matcher) Rules() []AccessRule {
	return m.rules
}

// Decide renders the access decision for a path. A nil principal means
// the request is anonymous.
func (m *Matcher) Decide(path string, principal *auth.Principal) Decision {
	for _, rule := range m.rules {
		if !rule.Matches(path) {
			continue
		}
		if rule.Public {
			return DecisionPublic
		}
		if principal == nil {
			return DecisionDenyUnauthenticated
		}
		if auth.Satisfies(principal.Roles, rule.Required) {
			return DecisionAllow
		}
		return DecisionDenyForbidden
	}

	// Catch-all: authenticated required, no specific role.
	if principal == nil {
		return DecisionDenyUnauthenticated
	}
	return DecisionAllow
}
