package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator scripts the three provider outcomes for chain tests.
type stubAuthenticator struct {
	name      string
	principal *Principal
	err       error
	calls     int
}

func (s *stubAuthenticator) Name() string { return s.name }

func (s *stubAuthenticator) Authenticate(_ context.Context, _ Credentials) (*Principal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.principal, nil
}

// recordingMetrics captures RecordAuthAttempt calls for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	attempts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{attempts: make(map[string]int)}
}

func (m *recordingMetrics) RecordAuthAttempt(provider, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[provider+"/"+outcome]++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[key]
}

func TestBrokerFirstProviderWins(t *testing.T) {
	first := &stubAuthenticator{name: "local", principal: FromLocal("admin", RoleAdmin)}
	second := &stubAuthenticator{name: "directory"}
	broker := NewBroker([]Authenticator{first, second}, nil, nil)

	p, err := broker.Login(context.Background(), Credentials{Username: "admin", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "admin", p.ID)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "chain stops at first success")
}

func TestBrokerUnknownUserFallsThrough(t *testing.T) {
	first := &stubAuthenticator{name: "local", err: ErrUserNotKnown}
	second := &stubAuthenticator{name: "directory", principal: FromDirectory("carol", []Role{RoleModerator})}
	metrics := newRecordingMetrics()
	broker := NewBroker([]Authenticator{first, second}, nil, metrics)

	p, err := broker.Login(context.Background(), Credentials{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "carol", p.ID)
	assert.Equal(t, SourceDirectory, p.Source)
	assert.Equal(t, 1, metrics.count("local/unknown_user"))
	assert.Equal(t, 1, metrics.count("directory/success"))
}

func TestBrokerKnownUserRejectionIsAuthoritative(t *testing.T) {
	// Local knows the username and rejects the password. Directory must
	// not be consulted, even if it would accept the credentials.
	first := &stubAuthenticator{name: "local", err: ErrAuthenticationFailed}
	second := &stubAuthenticator{name: "directory", principal: FromDirectory("admin", []Role{RoleAdmin})}
	broker := NewBroker([]Authenticator{first, second}, nil, nil)

	_, err := broker.Login(context.Background(), Credentials{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 0, second.calls)
}

func TestBrokerNoProviderKnowsUser(t *testing.T) {
	first := &stubAuthenticator{name: "local", err: ErrUserNotKnown}
	second := &stubAuthenticator{name: "directory", err: ErrUserNotKnown}
	broker := NewBroker([]Authenticator{first, second}, nil, nil)

	_, err := broker.Login(context.Background(), Credentials{Username: "mallory", Password: "pw"})

	// The per-provider distinction never escapes the broker.
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.NotErrorIs(t, err, ErrUserNotKnown)
}

func TestBrokerDirectoryFailureDoesNotFallThrough(t *testing.T) {
	// An unreachable directory is an authentication failure, not an
	// unknown user: providers after it must not be consulted.
	local := &stubAuthenticator{name: "local", err: ErrUserNotKnown}
	directory := NewDirectoryAuthenticator(DirectoryConfig{
		URL:     "ldap://127.0.0.1:1",
		Timeout: 100 * time.Millisecond,
	})
	fallback := &stubAuthenticator{name: "fallback", principal: FromDirectory("alice", []Role{RoleViewer})}
	broker := NewBroker([]Authenticator{local, directory, fallback}, nil, nil)

	_, err := broker.Login(context.Background(), Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 0, fallback.calls)
}

func TestBrokerRejectsEmptyCredentials(t *testing.T) {
	provider := &stubAuthenticator{name: "local", principal: FromLocal("admin", RoleAdmin)}
	broker := NewBroker([]Authenticator{provider}, nil, nil)

	_, err := broker.Login(context.Background(), Credentials{Username: "admin"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = broker.Login(context.Background(), Credentials{Password: "pw"})
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 0, provider.calls)
}

func TestBrokerCompleteExternalWithoutAdapter(t *testing.T) {
	broker := NewBroker(nil, nil, nil)

	assert.False(t, broker.ExternalEnabled())
	_, err := broker.CompleteExternal(context.Background(), "code")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
