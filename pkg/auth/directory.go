package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/gatewarden/gatewarden/internal/logger"
)

// DirectoryConfig configures the LDAP directory authenticator.
type DirectoryConfig struct {
	// URL is the directory endpoint, e.g. "ldap://ldap.example.com:389".
	URL string

	// BaseDN is appended to the search bases, e.g. "dc=example,dc=com".
	BaseDN string

	// BindDN and BindPassword are the service credentials used for the
	// initial lookup bind. Empty BindDN means anonymous lookup.
	BindDN       string
	BindPassword string

	// UserSearchFilter locates the user entry; %s is replaced with the
	// escaped username, e.g. "(uid=%s)".
	UserSearchFilter string

	// UserSearchBase is the RDN sequence for user lookup, relative to BaseDN.
	UserSearchBase string

	// GroupSearchBase is the RDN sequence for group lookup, relative to BaseDN.
	GroupSearchBase string

	// GroupRolePrefix is stripped from group CNs before role mapping.
	// Default: "ROLE_".
	GroupRolePrefix string

	// Timeout bounds every remote round trip. Default: 5s.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification for ldaps.
	InsecureSkipVerify bool
}

// DefaultDirectoryTimeout bounds directory round trips when no timeout
// is configured.
const DefaultDirectoryTimeout = 5 * time.Second

// DirectoryAuthenticator performs bind-style credential checks against a
// remote LDAP directory and resolves group membership to roles.
//
// Every failure mode - unreachable endpoint, failed bind, missing user,
// group lookup error, timeout - is reported to callers as the uniform
// ErrAuthenticationFailed (or ErrUserNotKnown for an absent user entry,
// which the broker also collapses to a generic failure at the end of the
// chain). Distinguishing infrastructure state from bad credentials would
// leak directory health to unauthenticated callers.
type DirectoryAuthenticator struct {
	config DirectoryConfig
}

// NewDirectoryAuthenticator creates a DirectoryAuthenticator.
func NewDirectoryAuthenticator(config DirectoryConfig) *DirectoryAuthenticator {
	if config.GroupRolePrefix == "" {
		config.GroupRolePrefix = "ROLE_"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultDirectoryTimeout
	}
	return &DirectoryAuthenticator{config: config}
}

// Name returns "directory".
func (a *DirectoryAuthenticator) Name() string {
	return "directory"
}

// Authenticate binds as the user and resolves group membership to roles.
//
// The call blocks for the duration of the remote round trips, bounded by
// the configured timeout or the context deadline, whichever is sooner.
// No retry is performed; a timeout is an authentication failure.
func (a *DirectoryAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	conn, err := a.dial(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "directory unreachable", "error", err)
		return nil, ErrAuthenticationFailed
	}
	defer conn.Close()

	// Lookup bind with the service account (or anonymous).
	if a.config.BindDN != "" {
		if err := conn.Bind(a.config.BindDN, a.config.BindPassword); err != nil {
			logger.WarnCtx(ctx, "directory lookup bind failed", "error", err)
			return nil, ErrAuthenticationFailed
		}
	}

	userDN, err := a.findUserDN(conn, creds.Username)
	if err != nil {
		return nil, err
	}

	// Bind as the user to verify the password.
	if err := conn.Bind(userDN, creds.Password); err != nil {
		logger.DebugCtx(ctx, "directory user bind rejected", "username", creds.Username)
		return nil, ErrAuthenticationFailed
	}

	roles, err := a.resolveRoles(conn, userDN)
	if err != nil {
		logger.WarnCtx(ctx, "directory group lookup failed", "username", creds.Username, "error", err)
		return nil, ErrAuthenticationFailed
	}
	if len(roles) == 0 {
		// A principal without roles is never produced.
		logger.DebugCtx(ctx, "directory user has no mapped roles", "username", creds.Username)
		return nil, ErrAuthenticationFailed
	}

	return FromDirectory(creds.Username, roles), nil
}

// dial opens the directory connection with the effective timeout applied
// to both the TCP dial and subsequent operations. A context deadline
// tighter than the configured timeout wins, so caller cancellation
// propagates into the remote call.
func (a *DirectoryAuthenticator) dial(ctx context.Context) (*ldap.Conn, error) {
	timeout := a.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	conn, err := ldap.DialURL(a.config.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
		ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: a.config.InsecureSkipVerify}),
	)
	if err != nil {
		return nil, err
	}

	conn.SetTimeout(timeout)
	return conn, nil
}

// findUserDN locates the user entry under the user search base.
func (a *DirectoryAuthenticator) findUserDN(conn *ldap.Conn, username string) (string, error) {
	filter := fmt.Sprintf(a.config.UserSearchFilter, ldap.EscapeFilter(username))

	req := ldap.NewSearchRequest(
		a.searchBase(a.config.UserSearchBase),
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		filter,
		[]string{"dn"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	if len(res.Entries) == 0 {
		return "", ErrUserNotKnown
	}

	return res.Entries[0].DN, nil
}

// resolveRoles maps the user's group memberships to roles.
//
// Group CNs are matched after stripping the configured prefix, so both
// "ROLE_ADMIN" and "admin" style group names resolve. Groups that map to
// no known role are ignored.
func (a *DirectoryAuthenticator) resolveRoles(conn *ldap.Conn, userDN string) ([]Role, error) {
	filter := fmt.Sprintf("(|(member=%s)(uniqueMember=%s))",
		ldap.EscapeFilter(userDN), ldap.EscapeFilter(userDN))

	req := ldap.NewSearchRequest(
		a.searchBase(a.config.GroupSearchBase),
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"cn"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, err
	}

	var roles []Role
	seen := make(map[Role]bool)
	for _, entry := range res.Entries {
		role, ok := a.mapGroupToRole(entry.GetAttributeValue("cn"))
		if !ok || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	return roles, nil
}

// mapGroupToRole converts a group CN to a Role. The configured prefix is
// stripped first, so "ROLE_ADMIN" maps to admin. Plain plural group
// names ("admins", "moderators", "viewers") map as well.
func (a *DirectoryAuthenticator) mapGroupToRole(cn string) (Role, bool) {
	name := strings.TrimPrefix(strings.ToUpper(cn), strings.ToUpper(a.config.GroupRolePrefix))
	if role, ok := ParseRole(name); ok {
		return role, true
	}
	return ParseRole(strings.TrimSuffix(name, "S"))
}

// searchBase joins a relative search base with the configured base DN.
func (a *DirectoryAuthenticator) searchBase(relative string) string {
	switch {
	case relative == "":
		return a.config.BaseDN
	case a.config.BaseDN == "":
		return relative
	default:
		return relative + "," + a.config.BaseDN
	}
}
