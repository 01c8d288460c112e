package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/models"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    string      `json:"id"`
	Role  models.Role `json:"role"`
	Phone string      `json:"phone"`
}

// Claims is the JWT payload issued at login.
type Claims struct {
	Role  models.Role `json:"role"`
	Phone string      `json:"phone"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed JWTs for every principal kind.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT string for the principal.
func (t *TokenManager) Generate(p Principal) (string, error) {
	now := t.now()
	claims := Claims{
		Role:  p.Role,
		Phone: p.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates signature, issuer and expiry and returns the principal.
// Every failure is reported as apperrors.ErrUnauthorized.
func (t *TokenManager) Parse(raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("%w: token expired", apperrors.ErrUnauthorized)
		}
		return Principal{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: incomplete claims", apperrors.ErrUnauthorized)
	}
	return Principal{ID: claims.Subject, Role: claims.Role, Phone: claims.Phone}, nil
}
