package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wordwarrior/internal/validation"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks
var ErrInvalidToken = errors.New("invalid token")

const tokenIssuer = "wordwarrior"

// Claims identify a player. Credentials live outside this service; it only
// verifies tokens signed with the shared secret.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// PlayerID returns the token subject
func (c *Claims) PlayerID() string {
	return c.Subject
}

// TokenIssuer signs and verifies HS256 player tokens
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
}

// NewTokenIssuer creates a token issuer for secret
func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration}
}

// Issue returns a signed token for playerID
func (t *TokenIssuer) Issue(playerID, name string) (string, error) {
	if err := validation.ValidatePlayerID(playerID); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies a token and returns its claims
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
