package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"maintrack/internal/core"
)

const tokenIssuer = "maintrack"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	errEmptySecret  = errors.New("auth: empty signing secret")
)

// Claims are the session claims carried by every access token.
type Claims struct {
	Role     core.Role `json:"role"`
	TenantID string    `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c Claims) UserID() string { return c.Subject }

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for u and its expiry.
func (ti *TokenIssuer) Issue(u core.User) (string, time.Time, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	claims := Claims{
		Role:     u.Role,
		TenantID: u.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates signature, issuer and expiry and returns the claims.
func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.Role.Valid() || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
