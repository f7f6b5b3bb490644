// Package session issues and validates signed session tokens carried in
// an HTTP cookie. A token is a self-contained snapshot of the principal
// resolved at login; nothing is stored server-side.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/pkg/auth"
)

// Common errors for session validation.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)

// Claims are the signed session contents. The registered subject holds
// the principal id; the rest mirrors the principal fields the rendering
// layer consumes.
type Claims struct {
	jwt.RegisteredClaims

	// DisplayName is the human-readable name shown in pages.
	DisplayName string `json:"display_name"`

	// Email is the principal's email, when the source supplied one.
	Email string `json:"email,omitempty"`

	// Picture is an avatar URL, external source only.
	Picture string `json:"picture,omitempty"`

	// Roles are the granted role names.
	Roles []string `json:"roles"`

	// AuthSource records which identity source produced the principal.
	AuthSource string `json:"auth_source"`
}

// Config configures the session service.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string

	// TTL is the session lifetime.
	TTL time.Duration

	// CookieName is the session cookie name.
	CookieName string

	// Secure marks the cookie Secure (HTTPS only).
	Secure bool
}

// Service issues and validates session tokens signed with HMAC-SHA256.
type Service struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewService creates a session Service.
func NewService(cfg Config) *Service {
	return &Service{
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
	}
}

// Issue creates a signed session token for the principal.
func (s *Service) Issue(principal *auth.Principal) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		DisplayName: principal.DisplayName,
		Email:       principal.Email,
		Picture:     principal.Picture,
		Roles:       principal.RoleNames(),
		AuthSource:  string(principal.Source),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token and reconstructs the
// Principal it was issued for. Tokens with unknown role names fail
// validation rather than silently dropping the role.
func (s *Service) Validate(tokenString string) (*auth.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	roles := make([]auth.Role, 0, len(claims.Roles))
	for _, name := range claims.Roles {
		role, ok := auth.ParseRole(name)
		if !ok {
			return nil, ErrInvalidToken
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, ErrInvalidToken
	}

	return &auth.Principal{
		ID:          claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Picture:     claims.Picture,
		Roles:       roles,
		Source:      auth.AuthSource(claims.AuthSource),
	}, nil
}

// SetCookie writes the session cookie on the response.
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and validates the session from the request cookie.
// A missing cookie is not an error; it returns (nil, nil).
func (s *Service) FromRequest(r *http.Request) (*auth.Principal, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, nil
	}

	principal, err := s.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// CookieName returns the configured cookie name.
func (s *Service) CookieName() string {
	return s.cookieName
}
