package auth

import "context"

// Credentials is a username/password pair presented at the login entry point.
type Credentials struct {
	Username string
	Password string
}

// Authenticator verifies credentials against one backend.
//
// The provider set is fixed and small (local store, directory), so the
// broker holds a closed, ordered list rather than an open plugin
// registry. Every implementation returns a uniform result:
//
//   - (*Principal, nil): credentials accepted
//   - (nil, ErrUserNotKnown): this provider has no record of the
//     username; the broker may try the next provider
//   - (nil, ErrAuthenticationFailed): definitive rejection
//
// Implementations must be safe for concurrent use and must convert any
// backend error (network, bind, timeout) to ErrAuthenticationFailed at
// their boundary.
type Authenticator interface {
	// Name returns the provider identifier, e.g. "local" or "directory".
	Name() string

	// Authenticate validates the credentials and returns the principal.
	Authenticate(ctx context.Context, creds Credentials) (*Principal, error)
}

// LocalAuthenticator verifies credentials against the CredentialStore.
type LocalAuthenticator struct {
	store *CredentialStore
}

// NewLocalAuthenticator creates a LocalAuthenticator over the given store.
func NewLocalAuthenticator(store *CredentialStore) *LocalAuthenticator {
	return &LocalAuthenticator{store: store}
}

// Name returns "local".
func (a *LocalAuthenticator) Name() string {
	return "local"
}

// Authenticate verifies the pair against the local table.
//
// An unknown username yields ErrUserNotKnown so the broker can delegate
// to the directory. A known username with a mismatched password is a
// definitive local rejection: the local store is authoritative for the
// usernames it holds.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	if !a.store.Knows(creds.Username) {
		return nil, ErrUserNotKnown
	}

	role, err := a.store.Verify(creds.Username, creds.Password)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return FromLocal(creds.Username, role), nil
}
