package auth

import (
	"context"
	"errors"

	"github.com/gatewarden/gatewarden/internal/logger"
)

// Metrics records authentication outcomes. Implementations must be safe
// for concurrent use. A nil Metrics disables recording.
type Metrics interface {
	// RecordAuthAttempt records one authentication attempt against the
	// named provider with outcome "success", "failure" or "unknown_user".
	RecordAuthAttempt(provider, outcome string)
}

// Broker routes authentication requests across the configured identity
// sources. Credential logins walk an ordered provider chain; external
// logins delegate the handshake to the identity adapter.
//
// Chain semantics: a provider that does not know the username yields to
// the next one. A provider that knows the username but rejects the
// password is authoritative and the chain stops there, so an attacker
// cannot use a weaker downstream source to bypass a stronger upstream
// one.
type Broker struct {
	chain    []Authenticator
	external *ExternalIdentityAdapter
	metrics  Metrics
}

// NewBroker creates a Broker over the given provider chain. The external
// adapter may be nil when no external provider is configured.
func NewBroker(chain []Authenticator, external *ExternalIdentityAdapter, metrics Metrics) *Broker {
	return &Broker{
		chain:    chain,
		external: external,
		metrics:  metrics,
	}
}

// ExternalEnabled reports whether an external identity provider is
// configured.
func (b *Broker) ExternalEnabled() bool {
	return b.external != nil
}

// ExternalHandshakeURL returns the external provider's consent URL for
// the given state token. Callers must check ExternalEnabled first.
func (b *Broker) ExternalHandshakeURL(state string) string {
	return b.external.HandshakeURL(state)
}

// Login authenticates the credentials against the provider chain and
// returns the resulting Principal.
//
// Once every provider has been consulted, "no provider knows this user"
// and "a provider rejected the password" collapse into the same
// ErrAuthenticationFailed so the response does not reveal which
// usernames exist.
func (b *Broker) Login(ctx context.Context, creds Credentials) (*Principal, error) {
	if creds.Username == "" || creds.Password == "" {
		b.record("broker", "failure")
		return nil, ErrAuthenticationFailed
	}

	for _, provider := range b.chain {
		principal, err := provider.Authenticate(ctx, creds)
		if err == nil {
			b.record(provider.Name(), "success")
			logger.InfoCtx(ctx, "authentication succeeded",
				logger.Provider(provider.Name()),
				logger.Principal(principal.ID),
				"roles", principal.RoleNames())
			return principal, nil
		}
		if errors.Is(err, ErrUserNotKnown) {
			b.record(provider.Name(), "unknown_user")
			continue
		}
		b.record(provider.Name(), "failure")
		logger.InfoCtx(ctx, "authentication rejected",
			logger.Provider(provider.Name()),
			"username", creds.Username)
		return nil, ErrAuthenticationFailed
	}

	b.record("broker", "unknown_user")
	logger.InfoCtx(ctx, "authentication failed, user unknown to all providers",
		"username", creds.Username)
	return nil, ErrAuthenticationFailed
}

// CompleteExternal finishes the external provider handshake for the
// given authorization code. The caller verifies the state token before
// calling; state handling is a transport concern.
func (b *Broker) CompleteExternal(ctx context.Context, code string) (*Principal, error) {
	if b.external == nil {
		b.record("external", "failure")
		return nil, ErrAuthenticationFailed
	}

	principal, err := b.external.CompleteHandshake(ctx, code)
	if err != nil {
		b.record("external", "failure")
		return nil, err
	}

	b.record("external", "success")
	logger.InfoCtx(ctx, "external authentication succeeded",
		logger.Provider("external"),
		logger.Principal(principal.ID))
	return principal, nil
}

func (b *Broker) record(provider, outcome string) {
	if b.metrics != nil {
		b.metrics.RecordAuthAttempt(provider, outcome)
	}
}
