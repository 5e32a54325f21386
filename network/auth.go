package network

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// DefaultTokenTTL is the lifetime of tokens issued by the daemon.
const DefaultTokenTTL = 24 * time.Hour

// Claims are the token claims. The subject is the textual identity.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(subject principal.Identity, secret []byte, ttl time.Duration) (string, error) {
	if subject.IsAnonymous() {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if len(secret) == 0 {
		return "", errors.New("network: empty signing secret")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("network: sign token: %w", err)
	}
	return s, nil
}

// ParseToken verifies tokenString and returns its subject.
func ParseToken(tokenString string, secret []byte) (principal.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	id, err := principal.Parse(claims.Subject)
	if err != nil || id.IsAnonymous() {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// TokenSubject returns the subject of tokenString without verifying its
// signature. Clients use it to learn their own identity; servers must use
// ParseToken.
func TokenSubject(tokenString string) (principal.Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	id, err := principal.Parse(claims.Subject)
	if err != nil || id.IsAnonymous() {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
