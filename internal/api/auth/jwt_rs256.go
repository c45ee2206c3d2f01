// Package auth issues and verifies the RS256 tenant tokens of the api.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is the iss claim of every token this service accepts.
	Issuer = "catalogfeed"

	// MaxTTL bounds the lifetime SignRS256 will issue.
	MaxTTL = 24 * time.Hour

	leeway = 30 * time.Second
)

var (
	ErrNilKey        = errors.New("rsa key is nil")
	ErrMissingTenant = errors.New("tenant_id missing")
	ErrBadTTL        = fmt.Errorf("ttl must be positive and at most %s", MaxTTL)
)

type Claims struct {
	TenantID uint64 `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks of the parser.
func (c Claims) Validate() error {
	if c.TenantID == 0 {
		return ErrMissingTenant
	}
	return nil
}

// LoadRSAPublicKeyFromEnv reads a PEM public key from an env var. Single-line
// values with literal \n escapes are accepted.
func LoadRSAPublicKeyFromEnv(envKey string) (*rsa.PublicKey, error) {
	raw, err := pemFromEnv(envKey)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public key from %s: %w", envKey, err)
	}
	return pub, nil
}

// LoadRSAPrivateKeyFromEnv reads a PKCS#1 or PKCS#8 RSA private key.
func LoadRSAPrivateKeyFromEnv(envKey string) (*rsa.PrivateKey, error) {
	raw, err := pemFromEnv(envKey)
	if err != nil {
		return nil, err
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key from %s: %w", envKey, err)
	}
	return priv, nil
}

func pemFromEnv(envKey string) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set", envKey)
	}
	raw = strings.Trim(raw, `"`)
	return []byte(strings.ReplaceAll(raw, `\n`, "\n")), nil
}

// ParseAndValidateRS256 accepts unexpired RS256 tokens of this issuer that
// carry a tenant.
func ParseAndValidateRS256(tokenString string, pub *rsa.PublicKey) (*Claims, error) {
	if pub == nil {
		return nil, ErrNilKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return pub, nil
	}); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignRS256 issues a tenant token valid for ttl with a random jti.
func SignRS256(priv *rsa.PrivateKey, tenantID uint64, subject string, ttl time.Duration) (string, error) {
	switch {
	case priv == nil:
		return "", ErrNilKey
	case tenantID == 0:
		return "", ErrMissingTenant
	case ttl <= 0 || ttl > MaxTTL:
		return "", ErrBadTTL
	}

	now := time.Now().UTC()
	c := Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, c).SignedString(priv)
}
