package auth

import "slices"

// AuthSource identifies which provider resolved a principal.
type AuthSource string

const (
	// SourceLocal marks principals verified against the local credential store.
	SourceLocal AuthSource = "local"
	// SourceDirectory marks principals verified by LDAP bind.
	SourceDirectory AuthSource = "directory"
	// SourceExternal marks principals resolved from the external identity provider.
	SourceExternal AuthSource = "external"
)

// Principal is the identity resolved for the current request.
//
// A Principal is immutable once constructed. It is rebuilt on every
// authentication event and never mutated, so it is safe to share across
// goroutines without synchronization. Downstream consumers read the
// Source tag rather than inferring provenance from the role shape.
type Principal struct {
	// ID is the stable identifier: the username for local and directory
	// principals, the provider subject id for external ones.
	ID string `json:"id"`

	// DisplayName is the best-effort human name.
	DisplayName string `json:"display_name"`

	// Email is optional and only populated for external principals.
	Email string `json:"email,omitempty"`

	// Picture is an optional avatar URL from the external provider.
	Picture string `json:"picture,omitempty"`

	// Roles is the set of granted roles. Never empty for a successfully
	// authenticated principal.
	Roles []Role `json:"roles"`

	// Source records which provider authenticated this principal.
	Source AuthSource `json:"auth_source"`
}

// HasRole reports whether the principal was granted the exact role.
func (p *Principal) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// RoleNames returns the granted roles as strings, for claims and rendering.
func (p *Principal) RoleNames() []string {
	names := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		names[i] = string(r)
	}
	return names
}

// ExternalAttributes is the flat attribute set extracted from a completed
// external identity handshake. Only Subject is guaranteed to be present.
type ExternalAttributes struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// FromLocal builds a Principal for a locally verified username.
func FromLocal(username string, role Role) *Principal {
	return &Principal{
		ID:          username,
		DisplayName: username,
		Roles:       []Role{role},
		Source:      SourceLocal,
	}
}

// FromDirectory builds a Principal for a directory-verified username.
func FromDirectory(username string, roles []Role) *Principal {
	return &Principal{
		ID:          username,
		DisplayName: username,
		Roles:       slices.Clone(roles),
		Source:      SourceDirectory,
	}
}

// FromExternal builds a Principal from external provider attributes.
//
// Display name resolution order is name, then email, then the raw
// subject id - first non-empty wins. This order is load-bearing for
// rendering and must not be re-derived elsewhere.
func FromExternal(attrs ExternalAttributes, roles []Role) *Principal {
	displayName := attrs.Name
	if displayName == "" {
		displayName = attrs.Email
	}
	if displayName == "" {
		displayName = attrs.Subject
	}

	return &Principal{
		ID:          attrs.Subject,
		DisplayName: displayName,
		Email:       attrs.Email,
		Picture:     attrs.Picture,
		Roles:       slices.Clone(roles),
		Source:      SourceExternal,
	}
}
