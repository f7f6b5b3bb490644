package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Local usernames are fixed: one identity per supported role. The set is
// loaded once at startup and never changes for the process lifetime.
const (
	LocalAdminUsername     = "admin"
	LocalModeratorUsername = "moderator"
	LocalViewerUsername    = "viewer"
)

// ErrMissingCredentialHash is returned by NewCredentialStore when a
// required password hash is absent. The process must not start with an
// incomplete local identity table.
var ErrMissingCredentialHash = errors.New("missing required password hash")

// CredentialEntry is one configured local identity.
type CredentialEntry struct {
	Username     string
	Role         Role
	PasswordHash string
}

// CredentialStore is the immutable local username to credential mapping.
//
// It is built once at startup and safe for unsynchronized concurrent
// reads afterwards.
type CredentialStore struct {
	entries map[string]CredentialEntry
}

// NewCredentialStore builds the local credential table from the three
// required role hashes. Every hash must be present: a missing secret is
// a fatal configuration error, not a degraded mode.
func NewCredentialStore(adminHash, moderatorHash, viewerHash string) (*CredentialStore, error) {
	required := []CredentialEntry{
		{Username: LocalAdminUsername, Role: RoleAdmin, PasswordHash: adminHash},
		{Username: LocalModeratorUsername, Role: RoleModerator, PasswordHash: moderatorHash},
		{Username: LocalViewerUsername, Role: RoleViewer, PasswordHash: viewerHash},
	}

	entries := make(map[string]CredentialEntry, len(required))
	for _, e := range required {
		if e.PasswordHash == "" {
			return nil, fmt.Errorf("%w: local %s password hash", ErrMissingCredentialHash, e.Role)
		}
		entries[e.Username] = e
	}

	return &CredentialStore{entries: entries}, nil
}

// Len returns the number of configured local identities.
func (s *CredentialStore) Len() int {
	return len(s.entries)
}

// Usernames returns the configured local usernames.
func (s *CredentialStore) Usernames() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Knows reports whether the username exists in the local table.
func (s *CredentialStore) Knows(username string) bool {
	_, ok := s.entries[username]
	return ok
}

// Verify checks a username/password pair against the stored hash.
//
// It returns the configured role on success. Unknown username and
// mismatched password both return ErrAuthenticationFailed without
// distinguishing which reason triggered the failure; the bcrypt compare
// itself is constant-time over the hash input.
func (s *CredentialStore) Verify(username, password string) (Role, error) {
	entry, ok := s.entries[username]
	if !ok {
		return "", ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthenticationFailed
	}

	return entry.Role, nil
}

// DefaultBcryptCost is the cost parameter used when hashing new passwords.
const DefaultBcryptCost = 10

// HashPassword creates a bcrypt hash suitable for the credential store.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
