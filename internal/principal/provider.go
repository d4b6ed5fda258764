package principal

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the credential token failed verification.
var ErrInvalidToken = errors.New("invalid credential token")

// Provider authenticates a credential token into a Principal. Token issuance
// and identity lifecycle live in the external identity system; this service
// only verifies.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// JWTProvider verifies HS256 access tokens and resolves the subject principal.
type JWTProvider struct {
	secret []byte
	repo   Repository
}

// NewJWTProvider builds a Provider backed by a shared HMAC secret.
func NewJWTProvider(secret string, repo Repository) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), repo: repo}
}

// Authenticate verifies the token signature and expiry, then loads the
// principal named by the subject claim.
func (p *JWTProvider) Authenticate(ctx context.Context, token string) (Principal, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, ErrInvalidToken
	}

	principal, err := p.repo.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	return principal, nil
}

// Issue signs a short-lived access token for the principal. Used by tests and
// local tooling; production tokens come from the identity system.
func (p *JWTProvider) Issue(principal Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": principal.ID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(p.secret)
}
