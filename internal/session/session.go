// Package session resolves the caller's identity from a signed session
// token. Identity is resolved once per request by middleware and read back
// from the context; handlers never re-derive it.
package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Session is the authenticated caller.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	// Token is the backend session token, never rendered.
	Token string `json:"-"`
}

// IsSeller reports whether the session may use seller screens.
func (s *Session) IsSeller() bool {
	return s.Role == domain.RoleSeller
}

// Provider resolves a session token.
type Provider interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrMissingUser  = errors.New("session: token has no user")
)

// tokenClaims is the JWT payload. user_id wins over sub; sess carries the
// backend session token.
type tokenClaims struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Backend  string `json:"sess,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies and issues HMAC-signed session tokens.
type JWTProvider struct {
	secret  []byte
	nowFunc func() time.Time
}

// NewJWTProvider creates a provider for tokens signed with secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), nowFunc: time.Now}
}

// Resolve verifies token and returns its session. A token without a role is
// a buyer; a token without a backend session forwards itself.
func (p *JWTProvider) Resolve(_ context.Context, token string) (*Session, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.nowFunc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID := cmp.Or(claims.UserID, claims.Subject)
	if userID == "" {
		return nil, ErrMissingUser
	}

	return &Session{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     cmp.Or(claims.Role, domain.RoleBuyer),
		Token:    cmp.Or(claims.Backend, token),
	}, nil
}

// Issue signs a token for s valid for ttl.
func (p *JWTProvider) Issue(s Session, ttl time.Duration) (string, error) {
	now := p.nowFunc()
	claims := tokenClaims{
		UserID:   s.UserID,
		Username: s.Username,
		Email:    s.Email,
		Role:     s.Role,
		Backend:  s.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validator adapts a Provider to the authentication middleware.
func Validator(p Provider) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		s, err := p.Resolve(context.Background(), token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:       s.UserID,
			Username:     s.Username,
			Email:        s.Email,
			Role:         s.Role,
			BackendToken: s.Token,
		}, nil
	}
}

// FromContext returns the session attached by the authentication
// middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	c := middleware.ClaimsFromContext(ctx)
	if c == nil {
		return nil, false
	}
	return &Session{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
		Token:    c.BackendToken,
	}, true
}

// NewContext attaches s to ctx the way the authentication middleware does.
func NewContext(ctx context.Context, s *Session) context.Context {
	return middleware.WithClaims(ctx, &middleware.Claims{
		UserID:       s.UserID,
		Username:     s.Username,
		Email:        s.Email,
		Role:         s.Role,
		BackendToken: s.Token,
	})
}
